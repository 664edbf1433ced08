package config

import "time"

// Application constants
const (
	AppName    = "GENBEA"
	AppVersion = "1.0.0"

	// File Paths (relative to the working directory)
	DefaultDataDir = "datos"
	DefaultLogsDir = "logs"

	// Workbook conventions
	DefaultFilePrefix          = "genbea"
	DefaultPrimarySheet        = "Estado_cepas"
	DefaultIdentifierColumn    = "Codigo"
	DefaultMissingSentinel     = "No definido"
	DefaultExtractionSheet     = "Extraídas"
	DefaultConcentrationColumn = "DNA_(ng/uL)"

	// Cache Settings
	DefaultCacheTTL     = time.Hour
	DefaultCacheEntries = 64

	// Access gate
	DefaultSessionTTL  = 12 * time.Hour
	AccessSecretHeader = "X-Access-Secret"
	SessionCookieName  = "genbea_session"

	// Report
	DefaultReportTitle = "Informe GENBEA – Resultados filtrados"
)

// DefaultTrackedColumns are the status columns of the primary sheet that are
// normalized, counted for completeness and offered as filters.
var DefaultTrackedColumns = []string{
	"Extracción ADN",
	"PCRs",
	"Secuenciación",
	"Proyecto",
	"Organismo",
}

// DefaultPurityColumns are the absorbance ratio columns of the extraction sheet.
var DefaultPurityColumns = []string{
	"DNA 260/230",
	"DNA 260/280",
}
