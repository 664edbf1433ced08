package http

import (
	"context"

	"genbea/internal/charts"
	"genbea/internal/files"
	"genbea/internal/report"
	"genbea/internal/services"
)

// DashboardServiceInterface defines the interface for dashboard operations
type DashboardServiceInterface interface {
	Catalog(ctx context.Context) (*files.Catalog, error)
	Options(ctx context.Context, req services.Request) (*services.Options, error)
	View(ctx context.Context, req services.Request) (*services.View, error)
	Chart(ctx context.Context, req services.Request, kind charts.Kind) (*services.ChartImage, error)
	Report(ctx context.Context, req services.Request) (*report.Artifacts, error)
}

// RequestValidator checks a decoded request.
type RequestValidator interface {
	ValidateStruct(v interface{}) error
}
