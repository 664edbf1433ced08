// Package files provides file system operations for the GENBEA dashboard.
//
// Discovery enumerates the data directory for workbook files named
// <prefix><year>[-<period>].xlsx and groups them into a Catalog by year.
// Catalog.Files resolves a year/period selection, or a whole year in annual
// mode, to the files the dataset loader should read.
//
// Manager writes generated reports and chart images below an output
// directory.
//
// Example usage:
//
//	discovery := files.NewDiscovery("datos", "genbea")
//	catalog, err := discovery.Catalog()
//
//	selected, err := catalog.Files("2024", "T1", false)
//	paths := files.Paths(selected)
package files
