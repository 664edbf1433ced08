// Package services implements the dashboard use cases between the HTTP
// handlers and the dataset, filter, chart and report packages.
//
// # Request cycle
//
// Every dashboard call resolves a Request to the workbook files of the
// selected year and period, loads them through the workbook cache, merges
// them in annual mode and then:
//
//	1. filters the primary sheet by the column selections and identifier search
//	2. restricts every other sheet to the identifier prefixes that survived
//	3. computes the sample counts and, in annual mode, the per-period summary
//	4. builds the chart descriptions for the view
//
// View returns the result as data, Chart renders one chart to PNG and Report
// produces the PDF document and XLSX workbook of the same view. Nothing is
// kept between calls except the workbook cache owned by the loader.
//
// # Errors
//
// Services return the sentinel errors of this package, wrapped with context.
// Load failures surface as *dataset.LoadError. Handlers map both to problem
// responses.
//
// # Testing
//
// Collaborators are consumed through small interfaces so tests can use
// testify mocks or real fixtures written to a temporary directory:
//
//	catalog := new(MockCatalogSource)
//	catalog.On("Catalog").Return(nil, files.ErrDataDirMissing)
//	svc := NewDashboardService(catalog, loader, cfg, logger)
package services
