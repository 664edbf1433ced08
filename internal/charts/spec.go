// Package charts builds grouped bar chart descriptions from filtered sheets
// and rasterizes them to PNG.
//
// Building and rendering are separate steps: a Spec holds the points, series
// and optional quality bands of one chart and can be inspected in tests; Render
// turns it into image bytes. Images are produced per request and never
// cached.
package charts

import (
	"errors"
	"fmt"

	"genbea/internal/dataset"
	"genbea/internal/filter"
	"genbea/internal/quality"
)

// ErrEmptyChart is returned when a chart has nothing to plot.
var ErrEmptyChart = errors.New("chart has no data")

// ErrUnknownKind is returned for unsupported chart names.
var ErrUnknownKind = errors.New("unknown chart kind")

// Kind identifies one of the dashboard charts.
type Kind string

// Chart kinds in report order
const (
	PeriodSummary Kind = "period-summary"
	Purity        Kind = "purity"
	Concentration Kind = "concentration"
)

// Kinds lists every chart kind in the order charts appear in reports.
var Kinds = []Kind{PeriodSummary, Purity, Concentration}

// Series names of the period summary chart
const (
	SeriesComplete   = "Completas"
	SeriesIncomplete = "Incompletas"
)

// ParseKind validates a chart name.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Heading is the report section heading of the chart.
func (k Kind) Heading() string {
	switch k {
	case PeriodSummary:
		return "Resumen por trimestres"
	case Purity:
		return "Absorbancias"
	case Concentration:
		return "Cantidad de ADN"
	}
	return string(k)
}

// FileName is the download name of the chart image.
func (k Kind) FileName() string {
	switch k {
	case PeriodSummary:
		return "resumen_trimestres.png"
	case Purity:
		return "absorbancias.png"
	case Concentration:
		return "cantidad_adn.png"
	}
	return string(k) + ".png"
}

// Point is one bar.
type Point struct {
	Category string       `json:"category"`
	Series   string       `json:"series"`
	Value    float64      `json:"value"`
	Tier     quality.Tier `json:"tier,omitempty"`
}

// Spec describes one grouped bar chart.
type Spec struct {
	Kind       Kind           `json:"kind"`
	Title      string         `json:"title"`
	YLabel     string         `json:"y_label"`
	Categories []string       `json:"categories"`
	Series     []string       `json:"series"`
	Points     []Point        `json:"points"`
	Bands      []quality.Band `json:"-"`
	Metric     quality.Metric `json:"metric,omitempty"`
	// Samples is the number of distinct categories with at least one bar.
	Samples int `json:"samples"`

	seen map[string]bool
}

// Empty reports whether the spec has no bars.
func (s *Spec) Empty() bool {
	return s == nil || len(s.Points) == 0
}

func (s *Spec) add(p Point) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if !s.seen[p.Category] {
		s.seen[p.Category] = true
		s.Categories = append(s.Categories, p.Category)
	}
	s.Points = append(s.Points, p)
}

// Options are the per-chart display controls.
type Options struct {
	// Tiers restricts the bars to values in these tiers; empty shows all.
	Tiers []quality.Tier
	// ShowBands draws the quality tier ranges behind the bars.
	ShowBands bool
}

// PeriodSummarySpec builds the complete/incomplete chart of a year from its
// period summaries.
func PeriodSummarySpec(year string, summaries []filter.PeriodSummary) *Spec {
	spec := &Spec{
		Kind:   PeriodSummary,
		Title:  fmt.Sprintf("Estado de las muestras por trimestre (%s)", year),
		YLabel: "Número de muestras",
		Series: []string{SeriesComplete, SeriesIncomplete},
	}
	for _, s := range summaries {
		spec.add(Point{Category: s.Label, Series: SeriesComplete, Value: float64(s.Complete)})
		spec.add(Point{Category: s.Label, Series: SeriesIncomplete, Value: float64(s.Incomplete)})
	}
	spec.Samples = len(spec.Categories)
	return spec
}

// PuritySpec builds the absorbance ratio chart: one bar per sample and ratio
// column.
func PuritySpec(table *dataset.Table, idColumn string, columns []string, opts Options) *Spec {
	spec := metricSpec(table, idColumn, columns, quality.Purity, opts)
	spec.Kind = Purity
	spec.Title = "Absorbancias 260/280 y 260/230 por muestra"
	spec.YLabel = "Valor"
	return spec
}

// ConcentrationSpec builds the DNA concentration chart: one bar per sample.
func ConcentrationSpec(table *dataset.Table, idColumn, column string, opts Options) *Spec {
	spec := metricSpec(table, idColumn, []string{column}, quality.Concentration, opts)
	spec.Kind = Concentration
	spec.Title = "Cantidad de ADN por muestra"
	spec.YLabel = column
	return spec
}

// metricSpec turns metric columns into points. Cells that do not parse as
// numbers and rows without identifier are dropped, as are values outside the
// selected tiers.
func metricSpec(table *dataset.Table, idColumn string, columns []string, metric quality.Metric, opts Options) *Spec {
	spec := &Spec{Metric: metric}
	if opts.ShowBands {
		spec.Bands = quality.Bands(metric)
	}
	if table == nil {
		return spec
	}
	for _, c := range columns {
		if table.HasColumn(c) {
			spec.Series = append(spec.Series, c)
		}
	}

	for _, row := range table.Rows {
		id, ok := row.Value(idColumn)
		if !ok {
			continue
		}
		for _, c := range spec.Series {
			v, tier, ok := quality.ClassifyString(metric, row[c])
			if !ok || !quality.Accept(metric, opts.Tiers, tier) {
				continue
			}
			spec.add(Point{Category: id, Series: c, Value: v, Tier: tier})
		}
	}
	spec.Samples = len(spec.Categories)
	return spec
}
