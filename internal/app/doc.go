// Package app assembles the GENBEA dashboard server and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, YAML file, GENBEA_* environment)
//	2. Initialize logging, tracing and the Prometheus meter
//	3. Build the workbook pipeline: discovery, cache and loader
//	4. Create the dashboard and health services
//	5. Mount the middleware chain, the JSON API and the HTML pages
//	6. Configure the HTTP server
//
// # Routes
//
//	GET  /api/health[/ready|/live|/detailed]  public
//	GET  /api/version                         public
//	GET  /metrics                             public, Prometheus text format
//	GET  /login, POST /login, POST /logout    access gate
//	GET  /api/dashboard/...                   gated JSON API, charts and reports
//	GET  /                                    gated dashboard page
//
// # Graceful Shutdown
//
// Run returns after SIGINT, SIGTERM or cancellation of its context. In-flight
// requests get Server.ShutdownTimeout to finish, then the workbook cache is
// purged and telemetry is flushed.
//
// All initialization errors are returned to the caller; the package never
// calls os.Exit.
package app
