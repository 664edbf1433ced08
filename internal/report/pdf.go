package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"genbea/internal/charts"
	"genbea/internal/dataset"
)

// Layout in millimetres on A4 portrait
const (
	pageMargin   = 10.0
	bottomMargin = 15.0
	rowHeight    = 5.0
	tableFont    = 7.0
	imageWidth   = 160.0
	imageHeight  = 90.0
)

var (
	colorGrid   = [3]int{128, 128, 128}
	colorHeader = [3]int{211, 211, 211}
	colorText   = [3]int{0, 0, 0}
	colorMuted  = [3]int{110, 110, 110}
)

// BuildDocument renders the document plan to PDF bytes.
func BuildDocument(title string, sheets []*dataset.Table, images map[charts.Kind][]byte) ([]byte, error) {
	return renderPlan(Plan(title, sheets, images))
}

type documentWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	// breakPending defers the page break after a table until more content
	// follows, so the document never ends on a blank page.
	breakPending bool
}

func renderPlan(sections []Section) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.AliasNbPages("{nb}")

	w := &documentWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("cp1252")}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-bottomMargin + 3)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
		pdf.CellFormat(0, 5, w.text(fmt.Sprintf("Página %d de {nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	for _, s := range sections {
		if w.breakPending {
			pdf.AddPage()
			w.breakPending = false
		}
		switch s.Kind {
		case SectionTitle:
			w.title(s.Heading)
		case SectionTable:
			w.table(s.Heading, s.Table)
		case SectionChart:
			w.chart(s)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output error: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *documentWriter) text(s string) string {
	return w.tr(s)
}

func (w *documentWriter) title(title string) {
	w.pdf.SetFont("Helvetica", "B", 18)
	w.pdf.SetTextColor(colorText[0], colorText[1], colorText[2])
	w.pdf.CellFormat(0, 12, w.text(title), "", 1, "C", false, 0, "")
	w.pdf.Ln(7)
}

func (w *documentWriter) heading(heading string) {
	w.pdf.SetFont("Helvetica", "B", 14)
	w.pdf.SetTextColor(colorText[0], colorText[1], colorText[2])
	w.pdf.CellFormat(0, 9, w.text(heading), "", 1, "L", false, 0, "")
	w.pdf.Ln(3)
}

// table writes a grid-lined table with equal column widths. The header row is
// repeated at the top of every page the table spans. The next section starts
// on a new page.
func (w *documentWriter) table(heading string, t *dataset.Table) {
	w.heading(heading)
	w.breakPending = true
	if len(t.Columns) == 0 {
		return
	}

	pageWidth, pageHeight := w.pdf.GetPageSize()
	colWidth := (pageWidth - 2*pageMargin) / float64(len(t.Columns))

	w.header(t.Columns, colWidth)

	w.pdf.SetFont("Helvetica", "", tableFont)
	for _, rec := range t.Records() {
		if w.pdf.GetY()+rowHeight > pageHeight-bottomMargin {
			w.pdf.AddPage()
			w.header(t.Columns, colWidth)
			w.pdf.SetFont("Helvetica", "", tableFont)
		}
		for _, cell := range rec {
			w.pdf.CellFormat(colWidth, rowHeight, w.fit(cell, colWidth), "1", 0, "C", false, 0, "")
		}
		w.pdf.Ln(-1)
	}

	w.pdf.Ln(5)
}

func (w *documentWriter) header(columns []string, colWidth float64) {
	w.pdf.SetFont("Helvetica", "B", tableFont)
	w.pdf.SetFillColor(colorHeader[0], colorHeader[1], colorHeader[2])
	w.pdf.SetDrawColor(colorGrid[0], colorGrid[1], colorGrid[2])
	w.pdf.SetLineWidth(0.2)
	w.pdf.SetTextColor(colorText[0], colorText[1], colorText[2])
	for _, c := range columns {
		w.pdf.CellFormat(colWidth, rowHeight, w.fit(c, colWidth), "1", 0, "C", true, 0, "")
	}
	w.pdf.Ln(-1)
}

// fit converts s to the document code page and shortens it with an ellipsis
// until it fits in width with the cell margins.
func (w *documentWriter) fit(s string, width float64) string {
	out := w.text(strings.Join(strings.Fields(s), " "))
	avail := width - 2*w.pdf.GetCellMargin()
	if w.pdf.GetStringWidth(out) <= avail {
		return out
	}
	ellipsis := w.text("…")
	for len(out) > 0 && w.pdf.GetStringWidth(out+ellipsis) > avail {
		// code page strings are one byte per glyph
		out = out[:len(out)-1]
	}
	return out + ellipsis
}

func (w *documentWriter) chart(s Section) {
	_, pageHeight := w.pdf.GetPageSize()
	if w.pdf.GetY()+9+3+imageHeight > pageHeight-bottomMargin {
		w.pdf.AddPage()
	}
	w.heading(s.Heading)

	name := "chart-" + string(s.Chart)
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	w.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(s.Image))

	pageWidth, _ := w.pdf.GetPageSize()
	x := (pageWidth - imageWidth) / 2
	y := w.pdf.GetY()
	w.pdf.ImageOptions(name, x, y, imageWidth, imageHeight, false, opts, 0, "")
	w.pdf.SetY(y + imageHeight + 5)
}
