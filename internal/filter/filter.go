package filter

import (
	"fmt"
	"strings"

	"genbea/internal/dataset"
)

// Criteria is one filter request against the primary sheet.
type Criteria struct {
	// Columns are the filterable columns, in display order.
	Columns []string
	// Selections holds the accepted values per column. A column without an
	// entry, or with an empty one, is unrestricted.
	Selections map[string][]string
	// IdentifierColumn is matched against Search.
	IdentifierColumn string
	// Search is a case-insensitive substring of the identifier.
	Search string
}

// Warning reports a filter column missing from the table.
type Warning struct {
	Column  string `json:"column"`
	Message string `json:"message"`
}

// Result is a filtered table plus the effective selection per present column.
type Result struct {
	Table     *dataset.Table
	Effective map[string][]string
	Warnings  []Warning
}

func missingColumn(column string) Warning {
	return Warning{Column: column, Message: fmt.Sprintf("Columna no encontrada: %s", column)}
}

// Apply filters table by c. Predicates are combined with AND. Missing filter
// columns are reported once each and skipped. Duplicate identifiers are kept.
func Apply(table *dataset.Table, c Criteria) Result {
	res := Result{Effective: make(map[string][]string)}
	if table == nil {
		return res
	}

	type restriction struct {
		column  string
		allowed map[string]bool
	}
	var restrictions []restriction

	for _, col := range c.Columns {
		if !table.HasColumn(col) {
			res.Warnings = append(res.Warnings, missingColumn(col))
			continue
		}
		selected := c.Selections[col]
		res.Effective[col] = ResolveSelection(selected, ObservedValues(table, col))
		if len(selected) == 0 {
			continue
		}
		allowed := make(map[string]bool, len(selected))
		for _, v := range selected {
			allowed[v] = true
		}
		restrictions = append(restrictions, restriction{column: col, allowed: allowed})
	}

	search := strings.ToLower(c.Search)
	if search != "" && !table.HasColumn(c.IdentifierColumn) {
		res.Warnings = append(res.Warnings, missingColumn(c.IdentifierColumn))
		search = ""
	}

	rows := make([]dataset.Row, 0, len(table.Rows))
	for _, row := range table.Rows {
		keep := true
		for _, r := range restrictions {
			if !r.allowed[row[r.column]] {
				keep = false
				break
			}
		}
		if keep && search != "" {
			id, ok := row.Value(c.IdentifierColumn)
			keep = ok && strings.Contains(strings.ToLower(id), search)
		}
		if keep {
			rows = append(rows, row)
		}
	}

	res.Table = table.WithRows(rows)
	return res
}
