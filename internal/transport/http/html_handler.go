package http

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"genbea/internal/config"
	apierrors "genbea/internal/errors"
	"genbea/internal/files"
	customMiddleware "genbea/internal/middleware"
	"genbea/internal/quality"
	"genbea/internal/services"
)

//go:embed templates/*.html
var templateFiles embed.FS

// SessionGate starts and ends browser sessions.
type SessionGate interface {
	Authorized(r *http.Request) (string, bool)
	Login(w http.ResponseWriter, r *http.Request, secret string) bool
	Logout(w http.ResponseWriter, r *http.Request)
}

// HTMLHandler serves the login page and the server-rendered dashboard.
type HTMLHandler struct {
	service   DashboardServiceInterface
	validator RequestValidator
	gate      SessionGate
	pages     map[string]*template.Template
	logger    *slog.Logger
}

type pageData struct {
	Title              string
	Error              string
	Catalog            *files.Catalog
	Request            services.Request
	Options            *services.Options
	View               *services.View
	Query              template.URL
	PurityTiers        []services.TierOption
	ConcentrationTiers []services.TierOption
}

var templateFuncs = template.FuncMap{
	"has": func(list []string, v string) bool {
		for _, s := range list {
			if s == v {
				return true
			}
		}
		return false
	},
	"hasTier": func(list []quality.Tier, t quality.Tier) bool {
		for _, s := range list {
			if s == t {
				return true
			}
		}
		return false
	},
}

// NewHTMLHandler parses the embedded page templates.
func NewHTMLHandler(service DashboardServiceInterface, validator RequestValidator, gate SessionGate, logger *slog.Logger) (*HTMLHandler, error) {
	pages := make(map[string]*template.Template, 2)
	for _, name := range []string{"login.html", "dashboard.html"} {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFiles, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, err
		}
		pages[name] = t
	}
	return &HTMLHandler{
		service:   service,
		validator: validator,
		gate:      gate,
		pages:     pages,
		logger:    logger.With(slog.String("component", "html_handler")),
	}, nil
}

// LoginRoutes mounts GET and POST /login and POST /logout. They sit
// outside the access gate.
func (h *HTMLHandler) LoginRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	r.Get("/login", h.LoginPage)
	r.With(customMiddleware.ContentTypeValidator(errorHandler, "application/x-www-form-urlencoded")).Post("/login", h.Login)
	r.Post("/logout", h.Logout)
}

// LoginPage handles GET /login
func (h *HTMLHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gate.Authorized(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, "login.html", http.StatusOK, pageData{Title: config.AppName})
}

// Login handles POST /login
func (h *HTMLHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "login.html", http.StatusBadRequest, pageData{Title: config.AppName, Error: "Formulario no válido"})
		return
	}
	if !h.gate.Login(w, r, r.PostForm.Get("secret")) {
		h.render(w, r, "login.html", http.StatusUnauthorized, pageData{Title: config.AppName, Error: "Clave de acceso incorrecta"})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout
func (h *HTMLHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.gate.Logout(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Dashboard handles GET /. Without a year the latest one is shown.
func (h *HTMLHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := pageData{Title: config.AppName}

	cat, err := h.service.Catalog(ctx)
	if err != nil {
		h.renderError(w, r, data, err)
		return
	}
	data.Catalog = cat

	q := r.URL.Query()
	if q.Get(paramYear) == "" && len(cat.Years) > 0 {
		q = cloneValues(q)
		q.Set(paramYear, cat.Years[len(cat.Years)-1].Year)
	}
	req, err := ParseRequest(q)
	if err == nil {
		err = h.validator.ValidateStruct(req)
	}
	data.Request = req
	if err != nil {
		h.renderError(w, r, data, err)
		return
	}

	if data.Options, err = h.service.Options(ctx, req); err != nil {
		h.renderError(w, r, data, err)
		return
	}
	data.PurityTiers = data.Options.Tiers[quality.Purity]
	data.ConcentrationTiers = data.Options.Tiers[quality.Concentration]

	if data.View, err = h.service.View(ctx, req); err != nil {
		h.renderError(w, r, data, err)
		return
	}
	data.Title = data.View.Title
	data.Query = template.URL(EncodeRequest(req).Encode())

	h.render(w, r, "dashboard.html", http.StatusOK, data)
}

func (h *HTMLHandler) renderError(w http.ResponseWriter, r *http.Request, data pageData, err error) {
	status := http.StatusInternalServerError
	data.Error = "Error inesperado al preparar el panel"

	var apiErr *apierrors.APIError
	if errors.As(mapServiceError(err), &apiErr) {
		status = apiErr.StatusCode
		data.Error = apiErr.Message
	}
	h.logger.WarnContext(r.Context(), "dashboard page failed",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)
	h.render(w, r, "dashboard.html", status, data)
}

func (h *HTMLHandler) render(w http.ResponseWriter, r *http.Request, page string, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := h.pages[page].ExecuteTemplate(w, "layout", data); err != nil {
		h.logger.ErrorContext(r.Context(), "template execution failed",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
	}
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q)+1)
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}
