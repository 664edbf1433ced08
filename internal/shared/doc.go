// Package shared holds helpers used across the GENBEA packages that do not
// belong to a single domain.
//
// The testutil subpackage provides a capturing slog handler and builders
// for xlsx workbooks used as test fixtures.
package shared
