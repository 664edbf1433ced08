package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"genbea/internal/dataset"
)

const (
	maxSheetNameLength = 31
	defaultSheetName   = "Sheet"
	maxColumnWidth     = 60.0
	minColumnWidth     = 8.0
)

// BuildSpreadsheet writes one worksheet per table, in order, with the table
// name as the sheet name. Empty tables keep their header row. Cells that hold
// a plain decimal number are written as numbers so they round-trip unchanged.
// With no tables the workbook holds a single empty sheet.
func BuildSpreadsheet(sheets []*dataset.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	names := sheetNames(sheets)
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D3D3D3"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, t := range sheets {
		name := names[i]
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, t, headerStyle); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, t *dataset.Table, headerStyle int) error {
	if t == nil || len(t.Columns) == 0 {
		return nil
	}

	header := make([]interface{}, len(t.Columns))
	widths := make([]float64, len(t.Columns))
	for j, c := range t.Columns {
		header[j] = c
		widths[j] = textWidth(c)
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("write header of %q: %w", name, err)
	}

	for i, rec := range t.Records() {
		row := make([]interface{}, len(rec))
		for j, cell := range rec {
			row[j] = cellValue(cell)
			widths[j] = math.Max(widths[j], textWidth(cell))
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cellName, &row); err != nil {
			return fmt.Errorf("write row %d of %q: %w", i+1, name, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(t.Columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header of %q: %w", name, err)
	}
	if err := f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header of %q: %w", name, err)
	}

	for j, w := range widths {
		col, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, col, col, w); err != nil {
			return fmt.Errorf("set width of %s in %q: %w", col, name, err)
		}
	}
	return nil
}

// cellValue returns nil for a missing cell, a float64 for text that is the
// canonical form of a number, and the text otherwise. Codes such as "007" or
// "1e3" stay strings.
func cellValue(s string) interface{} {
	if s == "" {
		return nil
	}
	if v, ok := canonicalNumber(s); ok {
		return v
	}
	return s
}

func canonicalNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if strconv.FormatFloat(v, 'f', -1, 64) != s {
		return 0, false
	}
	// Readers show numbers whose plain form is longer than 15 digits, sign
	// and zeros included, in exponent form. Those stay text.
	if len(strings.ReplaceAll(s, ".", "")) > 15 {
		return 0, false
	}
	return v, true
}

func textWidth(s string) float64 {
	w := float64(utf8.RuneCountInString(s)) + 2
	return math.Min(math.Max(w, minColumnWidth), maxColumnWidth)
}

// sheetNames returns a valid, unique worksheet name for every table.
// Worksheet names are limited to 31 characters, may not contain []:*?/\ and
// are compared case-insensitively.
func sheetNames(sheets []*dataset.Table) []string {
	names := make([]string, len(sheets))
	used := make(map[string]bool, len(sheets))
	for i, t := range sheets {
		base := defaultSheetName
		if t != nil {
			base = sanitizeSheetName(t.Name)
		}
		name := base
		for n := 1; used[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			name = truncateRunes(base, maxSheetNameLength-utf8.RuneCountInString(suffix)) + suffix
		}
		used[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

func sanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(truncateRunes(name, maxSheetNameLength), "'")
	if name == "" {
		return defaultSheetName
	}
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
