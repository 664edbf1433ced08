package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRuntimeMetrics(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	reg, err := RegisterRuntimeMetrics(providers.Meter, time.Now().Add(-time.Minute), RuntimeGauges{
		CacheEntries: func() int64 { return 3 },
	})
	require.NoError(t, err)
	defer reg.Unregister()

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "system_goroutines")
	assert.Contains(t, body, "system_process_uptime_seconds")
	assert.Regexp(t, `workbook_cache_entries(\{[^}]*\})? 3\n`, body)
	assert.NotContains(t, body, "access_sessions_active", "nil sources are not observed")
}
