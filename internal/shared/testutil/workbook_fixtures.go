package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// SheetFixture is one worksheet of a generated workbook. The first row is the
// header. Cells may be strings, numbers or nil.
type SheetFixture struct {
	Name string
	Rows [][]interface{}
}

// PrimaryHeader is the header of the sample status sheet used by fixtures.
var PrimaryHeader = []interface{}{"Codigo", "Extracción ADN", "PCRs", "Secuenciación", "Proyecto", "Organismo"}

// ExtractionHeader is the header of the extraction metrics sheet used by fixtures.
var ExtractionHeader = []interface{}{"Codigo", "DNA 260/230", "DNA 260/280", "DNA_(ng/uL)"}

// PrimarySheet builds an "Estado_cepas" fixture with PrimaryHeader.
func PrimarySheet(rows ...[]interface{}) SheetFixture {
	return SheetFixture{Name: "Estado_cepas", Rows: append([][]interface{}{PrimaryHeader}, rows...)}
}

// ExtractionSheet builds an "Extraídas" fixture with ExtractionHeader.
func ExtractionSheet(rows ...[]interface{}) SheetFixture {
	return SheetFixture{Name: "Extraídas", Rows: append([][]interface{}{ExtractionHeader}, rows...)}
}

// NewWorkbookFile builds an in-memory excelize file from fixtures.
func NewWorkbookFile(t *testing.T, sheets ...SheetFixture) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			t.Fatalf("create sheet %s: %v", sheet.Name, err)
		}

		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			values := row
			if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
				t.Fatalf("write row %d of %s: %v", r, sheet.Name, err)
			}
		}
	}

	return f
}

// WorkbookBytes renders fixtures to xlsx bytes.
func WorkbookBytes(t *testing.T, sheets ...SheetFixture) []byte {
	t.Helper()

	buf, err := NewWorkbookFile(t, sheets...).WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// WriteWorkbook writes fixtures to dir/name and returns the full path.
func WriteWorkbook(t *testing.T, dir, name string, sheets ...SheetFixture) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, WorkbookBytes(t, sheets...), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
