package filter

import "genbea/internal/dataset"

// Stats are the sample counts shown next to the filtered table.
type Stats struct {
	Total      int `json:"total"`
	Filtered   int `json:"filtered"`
	Delta      int `json:"delta"`
	Incomplete int `json:"incomplete"`
}

// ComputeStats counts rows of the unfiltered and filtered primary tables.
// Incomplete counts unfiltered rows with a sentinel in any tracked column.
func ComputeStats(all, filtered *dataset.Table, schema dataset.Schema) Stats {
	s := Stats{Total: all.Len(), Filtered: filtered.Len()}
	s.Delta = s.Total - s.Filtered
	if all != nil {
		for _, row := range all.Rows {
			if schema.Incomplete(row) {
				s.Incomplete++
			}
		}
	}
	return s
}

// PeriodSummary is the completeness of one period file.
type PeriodSummary struct {
	Label      string `json:"label"`
	Complete   int    `json:"complete"`
	Incomplete int    `json:"incomplete"`
	Total      int    `json:"total"`
}

// SummarizePeriod counts complete and incomplete samples of a period's
// primary table.
func SummarizePeriod(label string, table *dataset.Table, schema dataset.Schema) PeriodSummary {
	st := ComputeStats(table, table, schema)
	return PeriodSummary{
		Label:      label,
		Complete:   st.Total - st.Incomplete,
		Incomplete: st.Incomplete,
		Total:      st.Total,
	}
}
