// Package report assembles the downloadable artifacts of a filtered view: a
// paginated PDF document and an XLSX workbook.
//
// Both are built fresh from the filtered sheets on every call. The document
// follows a Plan, which can be inspected without rendering.
package report

import (
	"fmt"

	"genbea/internal/charts"
	"genbea/internal/dataset"
)

// Download names of the generated files
const (
	DocumentFileName    = "informe_genbea.pdf"
	SpreadsheetFileName = "muestras_filtradas.xlsx"
)

// Artifacts are the two report outputs of one request.
type Artifacts struct {
	Document    []byte
	Spreadsheet []byte
}

// Build renders both artifacts. images holds the PNG bytes of the charts that
// were produced for the view; absent kinds are left out of the document.
func Build(title string, sheets []*dataset.Table, images map[charts.Kind][]byte) (*Artifacts, error) {
	doc, err := BuildDocument(title, sheets, images)
	if err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}
	xlsx, err := BuildSpreadsheet(sheets)
	if err != nil {
		return nil, fmt.Errorf("build spreadsheet: %w", err)
	}
	return &Artifacts{Document: doc, Spreadsheet: xlsx}, nil
}
