package filter

import (
	"sort"

	"genbea/internal/dataset"
)

// PrefixLength is the number of leading runes of an identifier that join a
// sample across sheets. Every join site uses Prefix.
const PrefixLength = 8

// Prefix returns the join key of an identifier. Identifiers shorter than
// PrefixLength are their own key.
func Prefix(id string) string {
	n := 0
	for i := range id {
		if n == PrefixLength {
			return id[:i]
		}
		n++
	}
	return id
}

// PrefixSet is a set of join keys that remembers insertion order.
type PrefixSet struct {
	order []string
	set   map[string]struct{}
}

// NewPrefixSet builds a set from identifiers.
func NewPrefixSet(ids ...string) *PrefixSet {
	s := &PrefixSet{set: make(map[string]struct{})}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts the prefix of id.
func (s *PrefixSet) Add(id string) {
	p := Prefix(id)
	if _, ok := s.set[p]; ok {
		return
	}
	s.set[p] = struct{}{}
	s.order = append(s.order, p)
}

// Matches reports whether the prefix of id is in the set.
func (s *PrefixSet) Matches(id string) bool {
	_, ok := s.set[Prefix(id)]
	return ok
}

// Len returns the number of distinct prefixes.
func (s *PrefixSet) Len() int {
	return len(s.order)
}

// Values returns the prefixes in insertion order.
func (s *PrefixSet) Values() []string {
	return append([]string(nil), s.order...)
}

// Sorted returns the prefixes in lexical order.
func (s *PrefixSet) Sorted() []string {
	out := s.Values()
	sort.Strings(out)
	return out
}

// Prefixes collects the distinct prefixes of the identifier column of table.
// Rows with a missing identifier contribute nothing.
func Prefixes(table *dataset.Table, idColumn string) *PrefixSet {
	s := NewPrefixSet()
	if table == nil {
		return s
	}
	for _, row := range table.Rows {
		if id, ok := row.Value(idColumn); ok {
			s.Add(id)
		}
	}
	return s
}

// ByPrefix keeps the rows of table whose identifier prefix is in prefixes.
// A table without the identifier column is returned unchanged; rows with a
// missing identifier are dropped.
func ByPrefix(table *dataset.Table, idColumn string, prefixes *PrefixSet) *dataset.Table {
	if !table.HasColumn(idColumn) {
		return table
	}
	rows := make([]dataset.Row, 0, len(table.Rows))
	for _, row := range table.Rows {
		if id, ok := row.Value(idColumn); ok && prefixes.Matches(id) {
			rows = append(rows, row)
		}
	}
	return table.WithRows(rows)
}

// Propagate returns the filtered primary table followed by every other sheet
// of wb in workbook order, each restricted to the prefixes of primary.
func Propagate(wb *dataset.Workbook, primary *dataset.Table, idColumn string) []*dataset.Table {
	prefixes := Prefixes(primary, idColumn)
	out := []*dataset.Table{primary}
	for _, sheet := range wb.Sheets() {
		if sheet.Name == primary.Name {
			continue
		}
		out = append(out, ByPrefix(sheet, idColumn, prefixes))
	}
	return out
}
