// Package dataset loads xlsx workbooks into ordered, immutable tables.
//
// Every cell is kept as text. The primary sheet's tracked columns are
// normalized so that missing values carry the configured sentinel, which is
// what marks a sample as incomplete. Workbooks from several period files of
// one year can be merged sheet by sheet.
//
// Loads go through a Cache keyed by path, modification time and size.
// Cached workbooks are shared between requests and must be treated as
// read-only.
package dataset
