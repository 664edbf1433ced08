package filter

import "genbea/internal/dataset"

// ResolveSelection returns the effective set for a user selection: the
// selection itself, or every observed value when nothing is selected.
func ResolveSelection[T comparable](selected, observed []T) []T {
	if len(selected) == 0 {
		return append([]T(nil), observed...)
	}
	return append([]T(nil), selected...)
}

// Contains reports whether v is part of set.
func Contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// ObservedValues returns the distinct non-missing values of column in
// first-seen order.
func ObservedValues(table *dataset.Table, column string) []string {
	if table == nil || !table.HasColumn(column) {
		return nil
	}
	seen := make(map[string]bool)
	var values []string
	for _, row := range table.Rows {
		v, ok := row.Value(column)
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}
