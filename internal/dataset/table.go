package dataset

import (
	"fmt"
	"strings"
)

// Row maps a column name to its cell text. An absent key and an empty string
// both mean the cell is missing. Rows are never mutated once a Table holds
// them; derived tables share row maps with their source.
type Row map[string]string

// Value returns the cell for column and whether it is present.
func (r Row) Value(column string) (string, bool) {
	v, ok := r[column]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Table is one sheet: a name, an ordered column list and ordered rows.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given columns.
func NewTable(name string, columns []string) *Table {
	return &Table{
		Name:    name,
		Columns: append([]string(nil), columns...),
	}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// HasColumn reports whether column is part of the table header.
func (t *Table) HasColumn(column string) bool {
	return t.ColumnIndex(column) >= 0
}

// ColumnIndex returns the position of column in the header, or -1.
func (t *Table) ColumnIndex(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// WithRows returns a table with the same name and columns holding rows.
func (t *Table) WithRows(rows []Row) *Table {
	return &Table{
		Name:    t.Name,
		Columns: append([]string(nil), t.Columns...),
		Rows:    rows,
	}
}

// Records returns the rows as string slices aligned with Columns. Missing
// cells are empty strings.
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			rec[j] = row[c]
		}
		out[i] = rec
	}
	return out
}

// FromRecords builds a table from a header and positional records. Records
// shorter than the header leave the trailing cells missing.
func FromRecords(name string, header []string, records [][]string) *Table {
	t := NewTable(name, header)
	t.Rows = make([]Row, 0, len(records))
	for _, rec := range records {
		row := make(Row, len(header))
		for j, c := range header {
			if j < len(rec) && rec[j] != "" {
				row[c] = rec[j]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// normalizeHeader trims column names, names blank ones "Unnamed: <n>" and
// suffixes duplicates with ".1", ".2", ... so every column is addressable.
func normalizeHeader(raw []string, width int) []string {
	if width < len(raw) {
		width = len(raw)
	}
	header := make([]string, width)
	used := make(map[string]bool, width)
	for i := 0; i < width; i++ {
		base := ""
		if i < len(raw) {
			base = strings.TrimSpace(raw[i])
		}
		if base == "" {
			base = fmt.Sprintf("Unnamed: %d", i)
		}
		name := base
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s.%d", base, n)
		}
		used[name] = true
		header[i] = name
	}
	return header
}

// isBlank reports whether every cell of a raw record is empty or whitespace.
func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
