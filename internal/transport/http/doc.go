// Package http implements the HTTP handlers of the GENBEA dashboard.
// Handlers are a thin layer over the dashboard service: they decode the
// selection from query parameters, call the service and format the result.
//
// # Routes
//
//	GET  /api/health[/ready|/live|/detailed]   health checks
//	GET  /api/version                          build information
//	GET  /api/dashboard/catalog                years and periods on disk
//	GET  /api/dashboard/options                filter values for a selection
//	GET  /api/dashboard/view                   filtered sheets, stats, charts
//	GET  /api/dashboard/charts/{kind}          chart PNG
//	GET  /api/dashboard/report/pdf             PDF report
//	GET  /api/dashboard/report/xlsx            filtered data workbook
//	GET  /                                     server-rendered dashboard
//	GET|POST /login, POST /logout              session handling
//
// Everything under /api/dashboard and the dashboard page sits behind the
// access gate.
//
// # Selection parameters
//
//	year=2024                 required by the API; the page defaults to the latest
//	period=T1 | annual=true   one period file, or every file of the year merged
//	q=ABC                     identifier substring, case-insensitive
//	f.<column>=<value>        repeatable, one per accepted value of a tracked column
//	purity=optimal,poor       purity tiers shown in the absorbance chart
//	concentration=low         concentration tiers shown in the DNA chart
//	purity_bands=true         draw quality bands behind the chart
//
// # Error Handling
//
// Service errors are mapped to RFC 7807 problems: unknown years and periods
// and unavailable charts are 404, unreadable workbooks 422, malformed
// selections 400. The dashboard page renders the same messages inline.
package http
