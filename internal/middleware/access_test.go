package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"genbea/internal/config"
	"genbea/internal/shared/testutil"
)

const testSecret = "muestras-2024"

func newGate(t *testing.T, cfg config.SecurityConfig) (*AccessGate, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	return NewAccessGate(cfg, newErrorHandler(t), logger), handler
}

func TestAccessGate_Verify(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(testSecret), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name   string
		cfg    config.SecurityConfig
		secret string
		want   bool
	}{
		{name: "plaintext match", cfg: config.SecurityConfig{AccessSecret: testSecret}, secret: testSecret, want: true},
		{name: "plaintext mismatch", cfg: config.SecurityConfig{AccessSecret: testSecret}, secret: "otra", want: false},
		{name: "plaintext prefix", cfg: config.SecurityConfig{AccessSecret: testSecret}, secret: "muestras", want: false},
		{name: "bcrypt match", cfg: config.SecurityConfig{AccessSecretHash: string(hash)}, secret: testSecret, want: true},
		{name: "bcrypt mismatch", cfg: config.SecurityConfig{AccessSecretHash: string(hash)}, secret: "otra", want: false},
		{name: "hash wins over plaintext", cfg: config.SecurityConfig{AccessSecret: "otra", AccessSecretHash: string(hash)}, secret: "otra", want: false},
		{name: "empty secret", cfg: config.SecurityConfig{AccessSecret: testSecret}, secret: "", want: false},
		{name: "nothing configured", cfg: config.SecurityConfig{}, secret: "x", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate, _ := newGate(t, tt.cfg)
			assert.Equal(t, tt.want, gate.Verify(tt.secret))
		})
	}
}

func TestAccessGate_Handler(t *testing.T) {
	gate, logs := newGate(t, config.SecurityConfig{AccessSecret: testSecret, SessionTTL: time.Hour})
	session, _ := gate.Sessions().Create()

	tests := []struct {
		name         string
		method       string
		header       string
		cookie       string
		accept       string
		wantStatus   int
		wantLocation string
	}{
		{name: "header secret", method: http.MethodGet, header: testSecret, wantStatus: http.StatusOK},
		{name: "session cookie", method: http.MethodGet, cookie: session, wantStatus: http.StatusOK},
		{name: "wrong header beats valid cookie", method: http.MethodGet, header: "otra", cookie: session, wantStatus: http.StatusUnauthorized},
		{name: "unknown cookie", method: http.MethodGet, cookie: "nope", wantStatus: http.StatusUnauthorized},
		{name: "api request without secret", method: http.MethodGet, accept: "application/json", wantStatus: http.StatusUnauthorized},
		{name: "browser without session", method: http.MethodGet, accept: "text/html", wantStatus: http.StatusSeeOther, wantLocation: LoginPath},
		{name: "browser post without session", method: http.MethodPost, accept: "text/html", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := gate.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(tt.method, "/api/dashboard/view", nil)
			if tt.header != "" {
				req.Header.Set(config.AccessSecretHeader, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: config.SessionCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			}
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "UNAUTHORIZED", decodeProblem(t, rec)["error_code"])
			}
		})
	}

	testutil.AssertLogContains(t, logs, slog.LevelWarn, "access denied")
}

func TestAccessGate_LoginLogout(t *testing.T) {
	gate, logs := newGate(t, config.SecurityConfig{AccessSecret: testSecret, SessionTTL: time.Hour})
	gate.SecureCookies(true)

	rec := httptest.NewRecorder()
	assert.False(t, gate.Login(rec, httptest.NewRequest(http.MethodPost, LoginPath, nil), "otra"))
	assert.Empty(t, rec.Result().Cookies())
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "login failed")

	rec = httptest.NewRecorder()
	require.True(t, gate.Login(rec, httptest.NewRequest(http.MethodPost, LoginPath, nil), testSecret))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, config.SessionCookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.True(t, gate.Sessions().Valid(c.Value))

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/view", nil)
	req.AddCookie(c)
	method, ok := gate.Authorized(req)
	assert.True(t, ok)
	assert.Equal(t, "session", method)

	rec = httptest.NewRecorder()
	gate.Logout(rec, req)
	assert.False(t, gate.Sessions().Valid(c.Value))
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore(time.Minute)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	first, expires := store.Create()
	assert.Equal(t, now.Add(time.Minute), expires)
	assert.True(t, store.Valid(first))
	assert.False(t, store.Valid(""))

	now = now.Add(time.Minute)
	assert.False(t, store.Valid(first))
	assert.Equal(t, 0, store.Len())

	second, _ := store.Create()
	now = now.Add(2 * time.Minute)
	third, _ := store.Create()
	assert.Equal(t, 1, store.Len(), "creating a session prunes expired ones")
	assert.False(t, store.Valid(second))
	assert.True(t, store.Valid(third))
}

func TestSessionStore_DefaultTTL(t *testing.T) {
	store := NewSessionStore(0)
	assert.Equal(t, config.DefaultSessionTTL, store.ttl)
}
