package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genbea/internal/config"
	customMiddleware "genbea/internal/middleware"
	"genbea/internal/shared/testutil"
)

const testSecret = "clave-de-prueba"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogsDir = t.TempDir()
	cfg.Security.AccessSecret = testSecret
	cfg.Security.RateLimit.Enabled = false
	require.NoError(t, cfg.Validate())
	// Bind an ephemeral port when Run is exercised.
	cfg.Server.Port = 0
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	a, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.OTelProviders.Shutdown(context.Background())
	})
	return a
}

func do(t *testing.T, a *Application, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func authed(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(config.AccessSecretHeader, testSecret)
	return req
}

func seedWorkbooks(t *testing.T, dir string) {
	t.Helper()
	testutil.WriteWorkbook(t, dir, "genbea2024-T1.xlsx", testutil.PrimarySheet(
		[]interface{}{"AAAAAAAA01", "Sí", "Sí", "Sí", "GX", "Bacteria"},
		[]interface{}{"BBBBBBBB01", "Sí", "No", nil, "PX", "Hongo"},
	))
	testutil.WriteWorkbook(t, dir, "genbea2024-T2.xlsx", testutil.PrimarySheet(
		[]interface{}{"CCCCCCCC01", "Sí", "Sí", "Sí", "GX", "Bacteria"},
	))
}

func TestApplication_Routing(t *testing.T) {
	cfg := testConfig(t)
	seedWorkbooks(t, cfg.Paths.DataDir)
	a := newTestApp(t, cfg)

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
		wantHeader map[string]string
	}{
		{
			name:       "health is public",
			req:        httptest.NewRequest(http.MethodGet, "/api/health", nil),
			wantStatus: http.StatusOK,
		},
		{
			name:       "readiness sees workbooks",
			req:        httptest.NewRequest(http.MethodGet, "/api/health/ready", nil),
			wantStatus: http.StatusOK,
		},
		{
			name:       "version is public",
			req:        httptest.NewRequest(http.MethodGet, "/api/version", nil),
			wantStatus: http.StatusOK,
		},
		{
			name:       "dashboard api requires the secret",
			req:        httptest.NewRequest(http.MethodGet, "/api/dashboard/catalog", nil),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "dashboard api with header secret",
			req:        authed(http.MethodGet, "/api/dashboard/catalog"),
			wantStatus: http.StatusOK,
			wantHeader: map[string]string{"Content-Type": "application/json"},
		},
		{
			name: "page redirects browsers to login",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/", nil)
				r.Header.Set("Accept", "text/html")
				return r
			}(),
			wantStatus: http.StatusSeeOther,
			wantHeader: map[string]string{"Location": customMiddleware.LoginPath},
		},
		{
			name:       "login page is public",
			req:        httptest.NewRequest(http.MethodGet, "/login", nil),
			wantStatus: http.StatusOK,
			wantHeader: map[string]string{"X-Frame-Options": "DENY"},
		},
		{
			name:       "unknown route",
			req:        httptest.NewRequest(http.MethodGet, "/nope", nil),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "wrong method",
			req:        httptest.NewRequest(http.MethodDelete, "/api/health", nil),
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, a, tt.req)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			for k, v := range tt.wantHeader {
				assert.Contains(t, rec.Header().Get(k), v, k)
			}
		})
	}
}

func TestApplication_RequestIDEchoed(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(customMiddleware.RequestIDHeader, "req-123")
	rec := do(t, a, req)

	assert.Equal(t, "req-123", rec.Header().Get(customMiddleware.RequestIDHeader))
}

func TestApplication_ViewEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	seedWorkbooks(t, cfg.Paths.DataDir)
	a := newTestApp(t, cfg)

	tests := []struct {
		name         string
		query        string
		wantTotal    float64
		wantFiltered float64
	}{
		{name: "one period", query: "year=2024&period=T1", wantTotal: 2, wantFiltered: 2},
		{name: "column filter", query: "year=2024&period=T1&f.Proyecto=GX", wantTotal: 2, wantFiltered: 1},
		{name: "annual", query: "year=2024&annual=true", wantTotal: 3, wantFiltered: 3},
		{name: "search", query: "year=2024&annual=true&q=cccc", wantTotal: 3, wantFiltered: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, a, authed(http.MethodGet, "/api/dashboard/view?"+tt.query))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var body struct {
				Data struct {
					Stats struct {
						Total    float64 `json:"total"`
						Filtered float64 `json:"filtered"`
					} `json:"stats"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantTotal, body.Data.Stats.Total)
			assert.Equal(t, tt.wantFiltered, body.Data.Stats.Filtered)
		})
	}
}

func TestApplication_UnknownYearIsProblem(t *testing.T) {
	cfg := testConfig(t)
	seedWorkbooks(t, cfg.Paths.DataDir)
	a := newTestApp(t, cfg)

	rec := do(t, a, authed(http.MethodGet, "/api/dashboard/view?year=1999"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "/errors/workbook/not-found", problem["type"])
	assert.NotEmpty(t, problem["trace_id"])
}

func TestApplication_LoginSessionServesPage(t *testing.T) {
	cfg := testConfig(t)
	seedWorkbooks(t, cfg.Paths.DataDir)
	a := newTestApp(t, cfg)

	form := url.Values{"secret": {testSecret}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(t, a, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, config.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	page := httptest.NewRequest(http.MethodGet, "/", nil)
	page.AddCookie(cookies[0])
	rec = do(t, a, page)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "AAAAAAAA01")
}

func TestApplication_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	a := newTestApp(t, cfg)

	first := do(t, a, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	second := do(t, a, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestApplication_Metrics(t *testing.T) {
	cfg := testConfig(t)
	seedWorkbooks(t, cfg.Paths.DataDir)
	a := newTestApp(t, cfg)
	require.NotNil(t, a.OTelProviders.PrometheusHTTP)

	do(t, a, authed(http.MethodGet, "/api/dashboard/view?year=2024&period=T1"))
	do(t, a, authed(http.MethodGet, "/api/dashboard/view?year=2024&period=T1"))

	rec := do(t, a, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "http_requests")
	assert.Contains(t, body, `http_route="/api/dashboard/view"`)
	assert.Contains(t, body, "workbook_cache_hits")
	// two identical single-period views: one read, one hit
	assert.Regexp(t, `workbook_cache_misses_total(\{[^}]*\})? 1\n`, body)
	assert.Regexp(t, `workbook_cache_hits_total(\{[^}]*\})? 1\n`, body)
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
