package http

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"genbea/internal/charts"
	apierrors "genbea/internal/errors"
	"genbea/internal/files"
	customMiddleware "genbea/internal/middleware"
	"genbea/internal/report"
	"genbea/internal/services"
	"genbea/internal/shared/testutil"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Catalog(ctx context.Context) (*files.Catalog, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*files.Catalog), args.Error(1)
}

func (m *MockDashboardService) Options(ctx context.Context, req services.Request) (*services.Options, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Options), args.Error(1)
}

func (m *MockDashboardService) View(ctx context.Context, req services.Request) (*services.View, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.View), args.Error(1)
}

func (m *MockDashboardService) Chart(ctx context.Context, req services.Request, kind charts.Kind) (*services.ChartImage, error) {
	args := m.Called(req, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ChartImage), args.Error(1)
}

func (m *MockDashboardService) Report(ctx context.Context, req services.Request) (*report.Artifacts, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Artifacts), args.Error(1)
}

func testCatalog() *files.Catalog {
	return &files.Catalog{Years: []files.YearGroup{
		{Year: "2023", Files: []files.WorkbookFile{{Year: "2023"}}},
		{Year: "2024", Files: []files.WorkbookFile{
			{Year: "2024", Period: "T1"},
			{Year: "2024", Period: "T2"},
		}},
	}}
}

func newTestDashboardHandler(t *testing.T, svc DashboardServiceInterface) *DashboardHandler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewDashboardHandler(svc, customMiddleware.NewValidator(logger), logger, apierrors.NewErrorHandler(logger, false))
}
