package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"genbea/internal/charts"
	"genbea/internal/dataset"
	apierrors "genbea/internal/errors"
	"genbea/internal/filter"
	"genbea/internal/report"
	"genbea/internal/services"
)

func serve(t *testing.T, h *DashboardHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDashboardHandler_GetCatalog(t *testing.T) {
	tests := []struct {
		name       string
		setupMock  func(*MockDashboardService)
		wantStatus int
		wantCode   string
	}{
		{
			name: "catalog listed",
			setupMock: func(m *MockDashboardService) {
				m.On("Catalog").Return(testCatalog(), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "no workbook files",
			setupMock: func(m *MockDashboardService) {
				m.On("Catalog").Return(nil, services.ErrNoData)
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "NO_DATA",
		},
		{
			name: "unexpected failure",
			setupMock: func(m *MockDashboardService) {
				m.On("Catalog").Return(nil, errors.New("disk on fire"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setupMock(svc)

			rec := serve(t, newTestDashboardHandler(t, svc), "/catalog")

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "success", body["status"])
				assert.EqualValues(t, 2, body["count"])
			}
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_GetView(t *testing.T) {
	loadErr := &dataset.LoadError{Path: "datos/genbea2024-T1.xlsx", Op: "open", Err: dataset.ErrInvalidFormat}
	view := &services.View{
		Title: "GENBEA 2024",
		Year:  "2024",
		Files: []string{"genbea2024-T1"},
		Stats: filter.Stats{Total: 3, Filtered: 2, Delta: -1, Incomplete: 1},
		Sheets: []services.SheetView{{
			Name:    "Estado_cepas",
			Columns: []string{"Codigo"},
			Rows:    [][]string{{"AAAAAAAA01"}, {"BBBBBBBB01"}},
		}},
	}

	tests := []struct {
		name       string
		query      string
		setupMock  func(*MockDashboardService)
		wantStatus int
		wantType   string
	}{
		{
			name:  "view built",
			query: "year=2024&period=T1&f.Proyecto=GX",
			setupMock: func(m *MockDashboardService) {
				m.On("View", services.Request{
					Year:       "2024",
					Period:     "T1",
					Selections: map[string][]string{"Proyecto": {"GX"}},
				}).Return(view, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "year missing",
			query:      "period=T1",
			setupMock:  func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			wantType:   "/errors/validation",
		},
		{
			name:       "period escapes data dir",
			query:      "year=2024&period=..%2F..%2Fetc",
			setupMock:  func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			wantType:   "/errors/validation",
		},
		{
			name:       "unknown tier",
			query:      "year=2024&purity=great",
			setupMock:  func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			wantType:   "/errors/validation",
		},
		{
			name:  "unknown year",
			query: "year=1999",
			setupMock: func(m *MockDashboardService) {
				m.On("View", mock.Anything).Return(nil, fmt.Errorf("%w: 1999", services.ErrUnknownYear))
			},
			wantStatus: http.StatusNotFound,
			wantType:   "/errors/workbook/not-found",
		},
		{
			name:  "unknown period",
			query: "year=2024&period=T9",
			setupMock: func(m *MockDashboardService) {
				m.On("View", mock.Anything).Return(nil, fmt.Errorf("%w: T9", services.ErrUnknownPeriod))
			},
			wantStatus: http.StatusNotFound,
			wantType:   "/errors/workbook/not-found",
		},
		{
			name:  "unreadable workbook",
			query: "year=2024",
			setupMock: func(m *MockDashboardService) {
				m.On("View", mock.Anything).Return(nil, fmt.Errorf("view: %w", loadErr))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   "/errors/workbook/unreadable",
		},
		{
			name:  "primary sheet missing",
			query: "year=2023",
			setupMock: func(m *MockDashboardService) {
				m.On("View", mock.Anything).Return(nil, services.ErrMissingPrimarySheet)
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   "/errors/workbook/unreadable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setupMock(svc)

			rec := serve(t, newTestDashboardHandler(t, svc), "/view?"+tt.query)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, body["type"])
				assert.NotContains(t, rec.Body.String(), "datos/genbea2024", "paths stay out of problems")
			} else {
				data := body["data"].(map[string]interface{})
				assert.Equal(t, "GENBEA 2024", data["title"])
				assert.NotContains(t, data, "Specs")
			}
			svc.AssertExpectations(t)
			if tt.wantStatus == http.StatusBadRequest {
				svc.AssertNotCalled(t, "View", mock.Anything)
			}
		})
	}
}

func TestDashboardHandler_GetOptions(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Options", services.Request{Year: "2024", Annual: true}).Return(&services.Options{
		Year:    "2024",
		Annual:  true,
		Periods: []string{"T1", "T2"},
		Columns: []services.ColumnOptions{{Column: "Proyecto", Values: []string{"GX", "PX"}}},
	}, nil)

	rec := serve(t, newTestDashboardHandler(t, svc), "/options?year=2024&annual=true")

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{"T1", "T2"}, data["periods"])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_GetChart(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")

	tests := []struct {
		name            string
		target          string
		setupMock       func(*MockDashboardService)
		wantStatus      int
		wantDisposition string
	}{
		{
			name:   "inline image",
			target: "/charts/purity?year=2024",
			setupMock: func(m *MockDashboardService) {
				m.On("Chart", services.Request{Year: "2024"}, charts.Purity).
					Return(&services.ChartImage{Kind: charts.Purity, FileName: "absorbancias.png", PNG: png}, nil)
			},
			wantStatus:      http.StatusOK,
			wantDisposition: `inline; filename="absorbancias.png"`,
		},
		{
			name:   "download",
			target: "/charts/period-summary?year=2024&annual=true&download=1",
			setupMock: func(m *MockDashboardService) {
				m.On("Chart", services.Request{Year: "2024", Annual: true}, charts.PeriodSummary).
					Return(&services.ChartImage{Kind: charts.PeriodSummary, FileName: "resumen_trimestres.png", PNG: png}, nil)
			},
			wantStatus:      http.StatusOK,
			wantDisposition: `attachment; filename="resumen_trimestres.png"`,
		},
		{
			name:       "unknown kind",
			target:     "/charts/pie?year=2024",
			setupMock:  func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "chart not available",
			target: "/charts/period-summary?year=2024&period=T1",
			setupMock: func(m *MockDashboardService) {
				m.On("Chart", mock.Anything, charts.PeriodSummary).
					Return(nil, fmt.Errorf("%w: period-summary", services.ErrChartUnavailable))
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setupMock(svc)

			rec := serve(t, newTestDashboardHandler(t, svc), tt.target)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, contentTypePNG, rec.Header().Get("Content-Type"))
				assert.Equal(t, tt.wantDisposition, rec.Header().Get("Content-Disposition"))
				assert.Equal(t, png, rec.Body.Bytes())
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_Reports(t *testing.T) {
	artifacts := &report.Artifacts{Document: []byte("%PDF-1.3"), Spreadsheet: []byte("PK\x03\x04")}

	tests := []struct {
		name     string
		path     string
		wantType string
		wantName string
		wantBody []byte
	}{
		{name: "pdf", path: "/report/pdf", wantType: contentTypePDF, wantName: report.DocumentFileName, wantBody: artifacts.Document},
		{name: "xlsx", path: "/report/xlsx", wantType: contentTypeXLSX, wantName: report.SpreadsheetFileName, wantBody: artifacts.Spreadsheet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			svc.On("Report", services.Request{Year: "2024", Search: "AAA"}).Return(artifacts, nil)

			rec := serve(t, newTestDashboardHandler(t, svc), tt.path+"?year=2024&q=AAA")

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			assert.Equal(t, fmt.Sprintf("attachment; filename=%q", tt.wantName), rec.Header().Get("Content-Disposition"))
			assert.Equal(t, fmt.Sprint(len(tt.wantBody)), rec.Header().Get("Content-Length"))
			assert.Equal(t, tt.wantBody, rec.Body.Bytes())
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_ReportError(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Report", mock.Anything).Return(nil, services.ErrNoData)

	rec := serve(t, newTestDashboardHandler(t, svc), "/report/pdf?year=2024")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/errors/data/empty", decodeBody(t, rec)["type"])
}

func TestMapServiceError_PassesThroughUnknown(t *testing.T) {
	err := errors.New("boom")
	assert.Same(t, err, mapServiceError(err))

	renderErr := apierrors.NewRenderError("purity chart could not be rendered", err)
	assert.Same(t, error(renderErr), mapServiceError(renderErr))
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{name: "no data", err: services.ErrNoData, wantStatus: http.StatusNotFound, wantCode: "NO_DATA", wantMessage: "No workbook files are available"},
		{name: "unknown year", err: fmt.Errorf("%w: 1999", services.ErrUnknownYear), wantStatus: http.StatusNotFound, wantCode: "WORKBOOK_NOT_FOUND", wantMessage: "1999"},
		{name: "chart unavailable", err: fmt.Errorf("%w: purity", services.ErrChartUnavailable), wantStatus: http.StatusNotFound, wantCode: "NO_CHART_DATA", wantMessage: "purity"},
		{name: "unknown kind", err: charts.ErrUnknownKind, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
		{name: "file removed", err: &dataset.LoadError{Path: "x.xlsx", Op: "stat", Err: dataset.ErrFileNotFound}, wantStatus: http.StatusNotFound, wantCode: "WORKBOOK_NOT_FOUND", wantMessage: "no longer exists"},
		{name: "unreadable", err: &dataset.LoadError{Path: "x.xlsx", Op: "open", Err: dataset.ErrInvalidFormat}, wantStatus: http.StatusUnprocessableEntity, wantCode: "WORKBOOK_UNREADABLE", wantMessage: "could not be read"},
		{name: "missing primary sheet", err: services.ErrMissingPrimarySheet, wantStatus: http.StatusUnprocessableEntity, wantCode: "WORKBOOK_UNREADABLE", wantMessage: "primary sheet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr *apierrors.APIError
			require.ErrorAs(t, mapServiceError(tt.err), &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
			assert.Contains(t, apiErr.Message, tt.wantMessage)
		})
	}

	// copies leave the shared values untouched
	assert.Equal(t, "No workbook matches the requested period", apierrors.ErrWorkbookNotFound.Message)
	assert.Nil(t, apierrors.ErrUnreadableWorkbook.Details)
}
