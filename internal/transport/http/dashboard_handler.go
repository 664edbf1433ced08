package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"genbea/internal/charts"
	apierrors "genbea/internal/errors"
	"genbea/internal/report"
)

// Content types of the downloads
const (
	contentTypePNG  = "image/png"
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DashboardHandler serves the dashboard API: the file catalog, filter
// options, the filtered view, chart images and report downloads.
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    RequestValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, validator RequestValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/catalog", h.GetCatalog)

	r.Group(func(r chi.Router) {
		r.Use(RequestCtx(h.validator, h.errorHandler))
		r.Get("/options", h.GetOptions)
		r.Get("/view", h.GetView)
		r.Get("/charts/{kind}", h.GetChart)
		r.Get("/report/pdf", h.GetReportPDF)
		r.Get("/report/xlsx", h.GetReportXLSX)
	})

	return r
}

// GetCatalog handles GET /api/dashboard/catalog
func (h *DashboardHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := h.service.Catalog(r.Context())
	if err != nil {
		h.fail(w, r, "catalog", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   cat,
		"count":  len(cat.Years),
	})
}

// GetOptions handles GET /api/dashboard/options
func (h *DashboardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	req, ok := RequestFromContext(r.Context())
	if !ok {
		h.fail(w, r, "options", errNoRequest)
		return
	}
	opts, err := h.service.Options(r.Context(), req)
	if err != nil {
		h.fail(w, r, "options", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   opts,
	})
}

// GetView handles GET /api/dashboard/view
func (h *DashboardHandler) GetView(w http.ResponseWriter, r *http.Request) {
	req, ok := RequestFromContext(r.Context())
	if !ok {
		h.fail(w, r, "view", errNoRequest)
		return
	}

	h.logger.InfoContext(r.Context(), "building view",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("selection", req.String()),
	)

	view, err := h.service.View(r.Context(), req)
	if err != nil {
		h.fail(w, r, "view", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// GetChart handles GET /api/dashboard/charts/{kind}
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	req, ok := RequestFromContext(r.Context())
	if !ok {
		h.fail(w, r, "chart", errNoRequest)
		return
	}
	kind, err := charts.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.fail(w, r, "chart", err)
		return
	}

	img, err := h.service.Chart(r.Context(), req, kind)
	if err != nil {
		h.fail(w, r, "chart", err)
		return
	}
	disposition := "inline"
	if r.URL.Query().Get("download") != "" {
		disposition = "attachment"
	}
	h.writeFile(w, r, contentTypePNG, disposition, img.FileName, img.PNG)
}

// GetReportPDF handles GET /api/dashboard/report/pdf
func (h *DashboardHandler) GetReportPDF(w http.ResponseWriter, r *http.Request) {
	artifacts, ok := h.report(w, r)
	if !ok {
		return
	}
	h.writeFile(w, r, contentTypePDF, "attachment", report.DocumentFileName, artifacts.Document)
}

// GetReportXLSX handles GET /api/dashboard/report/xlsx
func (h *DashboardHandler) GetReportXLSX(w http.ResponseWriter, r *http.Request) {
	artifacts, ok := h.report(w, r)
	if !ok {
		return
	}
	h.writeFile(w, r, contentTypeXLSX, "attachment", report.SpreadsheetFileName, artifacts.Spreadsheet)
}

func (h *DashboardHandler) report(w http.ResponseWriter, r *http.Request) (*report.Artifacts, bool) {
	req, ok := RequestFromContext(r.Context())
	if !ok {
		h.fail(w, r, "report", errNoRequest)
		return nil, false
	}
	artifacts, err := h.service.Report(r.Context(), req)
	if err != nil {
		h.fail(w, r, "report", err)
		return nil, false
	}
	return artifacts, true
}

func (h *DashboardHandler) writeFile(w http.ResponseWriter, r *http.Request, contentType, disposition, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.WarnContext(r.Context(), "download interrupted",
			slog.String("file", name),
			slog.String("error", err.Error()),
		)
	}
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.DebugContext(r.Context(), "dashboard request failed",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("error", err.Error()),
	)
	h.errorHandler.HandleError(w, r, mapServiceError(err))
}
