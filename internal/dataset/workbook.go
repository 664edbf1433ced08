package dataset

import "genbea/internal/config"

// Workbook is an ordered collection of sheets looked up by name. It is
// immutable once built; its identity is the list of files it came from.
type Workbook struct {
	Sources []string
	sheets  []*Table
	index   map[string]int
}

// NewWorkbook builds a workbook from sheets in order. A later sheet with a
// name already present replaces the earlier one in place.
func NewWorkbook(sources []string, sheets ...*Table) *Workbook {
	wb := &Workbook{
		Sources: append([]string(nil), sources...),
		index:   make(map[string]int, len(sheets)),
	}
	for _, s := range sheets {
		if i, ok := wb.index[s.Name]; ok {
			wb.sheets[i] = s
			continue
		}
		wb.index[s.Name] = len(wb.sheets)
		wb.sheets = append(wb.sheets, s)
	}
	return wb
}

// Sheet returns the named sheet.
func (w *Workbook) Sheet(name string) (*Table, bool) {
	i, ok := w.index[name]
	if !ok {
		return nil, false
	}
	return w.sheets[i], true
}

// Sheets returns the sheets in workbook order.
func (w *Workbook) Sheets() []*Table {
	return append([]*Table(nil), w.sheets...)
}

// SheetNames returns the sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.sheets))
	for i, s := range w.sheets {
		names[i] = s.Name
	}
	return names
}

// Merge concatenates same-named sheets across workbooks in the given order.
// Sheet order follows first appearance; each merged sheet's columns are the
// ordered union of its inputs' columns, and rows from an input lacking a
// column leave that cell missing.
func Merge(workbooks ...*Workbook) *Workbook {
	if len(workbooks) == 1 {
		return workbooks[0]
	}

	var (
		sources []string
		order   []string
		merged  = map[string]*Table{}
		colSeen = map[string]map[string]bool{}
	)

	for _, wb := range workbooks {
		sources = append(sources, wb.Sources...)
		for _, sheet := range wb.sheets {
			out, ok := merged[sheet.Name]
			if !ok {
				out = NewTable(sheet.Name, nil)
				merged[sheet.Name] = out
				colSeen[sheet.Name] = map[string]bool{}
				order = append(order, sheet.Name)
			}
			for _, c := range sheet.Columns {
				if !colSeen[sheet.Name][c] {
					colSeen[sheet.Name][c] = true
					out.Columns = append(out.Columns, c)
				}
			}
			out.Rows = append(out.Rows, sheet.Rows...)
		}
	}

	tables := make([]*Table, len(order))
	for i, name := range order {
		tables[i] = merged[name]
	}
	return NewWorkbook(sources, tables...)
}

// Schema names the primary sheet conventions applied on load.
type Schema struct {
	PrimarySheet     string
	IdentifierColumn string
	TrackedColumns   []string
	Sentinel         string
}

// SchemaFrom builds the schema of the configured workbook conventions.
func SchemaFrom(cfg config.DatasetConfig) Schema {
	return Schema{
		PrimarySheet:     cfg.PrimarySheet,
		IdentifierColumn: cfg.IdentifierColumn,
		TrackedColumns:   append([]string(nil), cfg.TrackedColumns...),
		Sentinel:         cfg.MissingSentinel,
	}
}

// Normalize returns a workbook whose primary sheet has every missing cell of
// a present tracked column replaced by the sentinel. Other sheets are shared.
func (s Schema) Normalize(wb *Workbook) *Workbook {
	primary, ok := wb.Sheet(s.PrimarySheet)
	if !ok {
		return wb
	}

	var tracked []string
	for _, c := range s.TrackedColumns {
		if primary.HasColumn(c) {
			tracked = append(tracked, c)
		}
	}
	if len(tracked) == 0 {
		return wb
	}

	rows := make([]Row, len(primary.Rows))
	for i, row := range primary.Rows {
		var copied Row
		for _, c := range tracked {
			if _, present := row.Value(c); present {
				continue
			}
			if copied == nil {
				copied = make(Row, len(row)+len(tracked))
				for k, v := range row {
					copied[k] = v
				}
			}
			copied[c] = s.Sentinel
		}
		if copied != nil {
			rows[i] = copied
		} else {
			rows[i] = row
		}
	}

	sheets := wb.Sheets()
	sheets[wb.index[s.PrimarySheet]] = primary.WithRows(rows)
	return NewWorkbook(wb.Sources, sheets...)
}

// Incomplete reports whether any tracked column of row holds the sentinel.
func (s Schema) Incomplete(row Row) bool {
	for _, c := range s.TrackedColumns {
		if row[c] == s.Sentinel {
			return true
		}
	}
	return false
}
