// Package quality buckets DNA extraction metrics into quality tiers.
//
// Purity ratios (absorbance 260/230 and 260/280) and DNA concentration each
// have three tiers whose thresholds cover the real line without gaps or
// overlaps.
package quality

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"genbea/internal/filter"
)

// ErrUnknownTier is returned for tier names a metric does not define.
var ErrUnknownTier = errors.New("unknown quality tier")

// ErrUnknownMetric is returned for unsupported metric names.
var ErrUnknownMetric = errors.New("unknown metric")

// Metric is a classified measurement kind.
type Metric string

// Supported metrics
const (
	Purity        Metric = "purity"
	Concentration Metric = "concentration"
)

// Tier is a named quality bucket.
type Tier string

// Purity tiers
const (
	Optimal    Tier = "optimal"
	Acceptable Tier = "acceptable"
	Poor       Tier = "poor"
)

// Concentration tiers
const (
	Low    Tier = "low"
	Medium Tier = "medium"
	High   Tier = "high"
)

// Threshold values in the metric's unit.
const (
	PurityOptimalMin    = 1.8
	PurityOptimalMax    = 2.0
	PurityAcceptableMin = 1.5
	PurityAcceptableMax = 2.3

	ConcentrationMediumMin = 20.0
	ConcentrationMediumMax = 50.0
)

var tierLabels = map[Tier]string{
	Optimal:    "Óptimo",
	Acceptable: "Aceptable",
	Poor:       "No deseable",
	Low:        "< 20 ng/uL",
	Medium:     "20-50 ng/uL",
	High:       "> 50 ng/uL",
}

// Label is the display name of the tier.
func (t Tier) Label() string {
	if l, ok := tierLabels[t]; ok {
		return l
	}
	return string(t)
}

// ParseMetric validates a metric name.
func ParseMetric(name string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(name))); m {
	case Purity, Concentration:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// Tiers lists the tiers of the metric in display order.
func (m Metric) Tiers() []Tier {
	switch m {
	case Purity:
		return []Tier{Optimal, Acceptable, Poor}
	case Concentration:
		return []Tier{Low, Medium, High}
	}
	return nil
}

// ParseValue reads a metric cell. Surrounding space is ignored and a comma is
// accepted as decimal separator. Non-numeric and non-finite values are absent.
func ParseValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Classify assigns v to exactly one tier of m. It reports false for NaN or an
// unknown metric.
func Classify(m Metric, v float64) (Tier, bool) {
	if math.IsNaN(v) {
		return "", false
	}
	switch m {
	case Purity:
		switch {
		case v >= PurityOptimalMin && v <= PurityOptimalMax:
			return Optimal, true
		case v >= PurityAcceptableMin && v < PurityOptimalMin,
			v > PurityOptimalMax && v <= PurityAcceptableMax:
			return Acceptable, true
		default:
			return Poor, true
		}
	case Concentration:
		switch {
		case v < ConcentrationMediumMin:
			return Low, true
		case v <= ConcentrationMediumMax:
			return Medium, true
		default:
			return High, true
		}
	}
	return "", false
}

// ClassifyString parses and classifies a cell.
func ClassifyString(m Metric, s string) (float64, Tier, bool) {
	v, ok := ParseValue(s)
	if !ok {
		return 0, "", false
	}
	t, ok := Classify(m, v)
	return v, t, ok
}

// Accept reports whether tier is shown for a tier selection. An empty
// selection shows every tier.
func Accept(m Metric, selected []Tier, tier Tier) bool {
	return filter.Contains(filter.ResolveSelection(selected, m.Tiers()), tier)
}

// ParseTiers validates tier names for m. Duplicates are dropped.
func ParseTiers(m Metric, names []string) ([]Tier, error) {
	valid := m.Tiers()
	var out []Tier
	for _, name := range names {
		t := Tier(strings.ToLower(strings.TrimSpace(name)))
		if !filter.Contains(valid, t) {
			return nil, fmt.Errorf("%w %q for %s", ErrUnknownTier, name, m)
		}
		if !filter.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Band is a value range highlighted behind a chart. An infinite High extends
// to the top of the plotted data.
type Band struct {
	Tier Tier
	Low  float64
	High float64
}

// Bands returns the highlight ranges of m, drawn in order.
func Bands(m Metric) []Band {
	switch m {
	case Purity:
		return []Band{
			{Tier: Poor, Low: 0.05, High: math.Inf(1)},
			{Tier: Acceptable, Low: PurityAcceptableMin, High: PurityAcceptableMax},
			{Tier: Optimal, Low: PurityOptimalMin, High: PurityOptimalMax},
		}
	case Concentration:
		return []Band{
			{Tier: Low, Low: 0.05, High: ConcentrationMediumMin},
			{Tier: Medium, Low: ConcentrationMediumMin, High: ConcentrationMediumMax},
			{Tier: High, Low: ConcentrationMediumMax, High: math.Inf(1)},
		}
	}
	return nil
}
