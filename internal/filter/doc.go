// Package filter narrows the primary sheet by per-column allow-lists and an
// identifier search, then carries the surviving identifiers to every other
// sheet through an identifier prefix join.
//
// An empty selection for a column never filters anything out: it stands for
// every observed value. ResolveSelection makes that rule explicit and is
// shared with the quality tier selection.
//
// All operations return new tables; inputs are never modified.
package filter
