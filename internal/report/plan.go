package report

import (
	"genbea/internal/charts"
	"genbea/internal/dataset"
)

// SectionKind tells how a document section is rendered.
type SectionKind int

// Section kinds
const (
	SectionTitle SectionKind = iota
	SectionTable
	SectionChart
)

// Section is one block of the document.
type Section struct {
	Kind    SectionKind
	Heading string
	Table   *dataset.Table
	Chart   charts.Kind
	Image   []byte
}

// Plan lays out the document: the title, one table section per non-empty
// sheet in order, then one section per supplied chart in report order.
func Plan(title string, sheets []*dataset.Table, images map[charts.Kind][]byte) []Section {
	sections := []Section{{Kind: SectionTitle, Heading: title}}
	for _, sheet := range sheets {
		if sheet.Empty() {
			continue
		}
		sections = append(sections, Section{Kind: SectionTable, Heading: sheet.Name, Table: sheet})
	}
	for _, kind := range charts.Kinds {
		img := images[kind]
		if len(img) == 0 {
			continue
		}
		sections = append(sections, Section{Kind: SectionChart, Heading: kind.Heading(), Chart: kind, Image: img})
	}
	return sections
}
