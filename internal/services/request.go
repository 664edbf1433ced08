package services

import (
	"fmt"
	"sort"
	"strings"

	"genbea/internal/quality"
)

// Request is one dashboard selection: which files to load and how to filter
// and chart them.
type Request struct {
	Year   string `json:"year" validate:"required,numeric,max=8"`
	Period string `json:"period,omitempty" validate:"omitempty,max=64,pathsafe"`
	// Annual merges every period file of the year.
	Annual bool `json:"annual"`
	// Search is a case-insensitive substring of the sample identifier.
	Search string `json:"search,omitempty" validate:"max=128"`
	// Selections holds the accepted values per tracked column.
	Selections map[string][]string `json:"selections,omitempty" validate:"dive,dive,max=256"`

	PurityTiers        []quality.Tier `json:"purity_tiers,omitempty"`
	ConcentrationTiers []quality.Tier `json:"concentration_tiers,omitempty"`
	PurityBands        bool           `json:"purity_bands,omitempty"`
	ConcentrationBands bool           `json:"concentration_bands,omitempty"`
}

// String describes the selection for logs.
func (r Request) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "year=%s", r.Year)
	if r.Annual {
		b.WriteString(" annual")
	} else if r.Period != "" {
		fmt.Fprintf(&b, " period=%s", r.Period)
	}
	if r.Search != "" {
		fmt.Fprintf(&b, " q=%q", r.Search)
	}
	columns := make([]string, 0, len(r.Selections))
	for c, v := range r.Selections {
		if len(v) > 0 {
			columns = append(columns, c)
		}
	}
	sort.Strings(columns)
	for _, c := range columns {
		fmt.Fprintf(&b, " %s=%d", c, len(r.Selections[c]))
	}
	return b.String()
}
