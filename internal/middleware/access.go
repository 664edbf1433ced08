package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"genbea/internal/config"
	apierrors "genbea/internal/errors"
)

// LoginPath is where browsers without a session are sent.
const LoginPath = "/login"

// AccessGate admits requests that carry the shared access secret, either in
// the X-Access-Secret header or through a session cookie issued by Login.
// API clients that fail get a 401 problem; browsers are redirected to the
// login page.
type AccessGate struct {
	secret   []byte
	hash     []byte
	sessions *SessionStore
	secure   bool

	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewAccessGate creates the gate from the security configuration. A bcrypt
// hash takes precedence over a plaintext secret.
func NewAccessGate(cfg config.SecurityConfig, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *AccessGate {
	g := &AccessGate{
		sessions:     NewSessionStore(cfg.SessionTTL),
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "access_gate")),
	}
	if cfg.AccessSecretHash != "" {
		g.hash = []byte(cfg.AccessSecretHash)
	} else {
		g.secret = []byte(cfg.AccessSecret)
	}
	return g
}

// SecureCookies marks session cookies Secure, for deployments behind TLS.
func (g *AccessGate) SecureCookies(secure bool) *AccessGate {
	g.secure = secure
	return g
}

// Verify reports whether secret matches the configured access secret.
// An empty secret never matches.
func (g *AccessGate) Verify(secret string) bool {
	if secret == "" {
		return false
	}
	if g.hash != nil {
		return bcrypt.CompareHashAndPassword(g.hash, []byte(secret)) == nil
	}
	if len(g.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(g.secret, []byte(secret)) == 1
}

// Authorized reports whether the request carries the secret or a live
// session, and how.
func (g *AccessGate) Authorized(r *http.Request) (string, bool) {
	if secret := r.Header.Get(config.AccessSecretHeader); secret != "" {
		return "header", g.Verify(secret)
	}
	if c, err := r.Cookie(config.SessionCookieName); err == nil && g.sessions.Valid(c.Value) {
		return "session", true
	}
	return "none", false
}

// Handler returns the middleware handler function
func (g *AccessGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		method, ok := g.Authorized(r)
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("genbea.access.method", method),
			attribute.Bool("genbea.access.granted", ok),
		)
		if ok {
			next.ServeHTTP(w, r)
			return
		}

		g.logger.WarnContext(ctx, "access denied",
			slog.String("method", method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("request_id", GetRequestID(ctx)),
		)
		if r.Method == http.MethodGet && WantsHTML(r) {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		g.errorHandler.HandleError(w, r, apierrors.ErrUnauthorized)
	})
}

// Login checks secret and, when it matches, starts a session and sets its
// cookie on w.
func (g *AccessGate) Login(w http.ResponseWriter, r *http.Request, secret string) bool {
	if !g.Verify(secret) {
		g.logger.WarnContext(r.Context(), "login failed", slog.String("remote_addr", r.RemoteAddr))
		return false
	}
	token, expires := g.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteStrictMode,
	})
	g.logger.InfoContext(r.Context(), "session started", slog.Time("expires", expires))
	return true
}

// Logout ends the request's session, if any, and clears the cookie.
func (g *AccessGate) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(config.SessionCookieName); err == nil {
		g.sessions.Delete(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Sessions exposes the session store.
func (g *AccessGate) Sessions() *SessionStore {
	return g.sessions
}

// SessionStore keeps session tokens in memory until they expire.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]time.Time
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions live for ttl.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = config.DefaultSessionTTL
	}
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Create starts a session and returns its token and expiry.
func (s *SessionStore) Create() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for token, exp := range s.sessions {
		if !now.Before(exp) {
			delete(s.sessions, token)
		}
	}
	token := uuid.NewString()
	expires := now.Add(s.ttl)
	s.sessions[token] = expires
	return token, expires
}

// Valid reports whether token names a live session. Expired sessions are
// dropped on sight.
func (s *SessionStore) Valid(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.sessions[token]
	if !ok {
		return false
	}
	if !s.now().Before(exp) {
		delete(s.sessions, token)
		return false
	}
	return true
}

// Delete ends a session.
func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Len returns the number of sessions held, including expired ones not yet
// pruned.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
