package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"genbea/internal/charts"
	"genbea/internal/config"
	"genbea/internal/dataset"
	apierrors "genbea/internal/errors"
	"genbea/internal/files"
	"genbea/internal/filter"
	"genbea/internal/infrastructure"
	"genbea/internal/quality"
	"genbea/internal/report"
)

// CatalogSource lists the workbook files available for selection.
type CatalogSource interface {
	Catalog() (*files.Catalog, error)
}

// WorkbookLoader loads and merges workbooks.
type WorkbookLoader interface {
	Load(ctx context.Context, path string) (*dataset.Workbook, error)
	LoadAll(ctx context.Context, paths []string) ([]*dataset.Workbook, error)
	Merge(workbooks ...*dataset.Workbook) *dataset.Workbook
	Schema() dataset.Schema
}

// DashboardService runs the dashboard request cycle.
type DashboardService struct {
	catalog CatalogSource
	loader  WorkbookLoader
	dataset config.DatasetConfig
	title   string
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.DashboardMetrics
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(catalog CatalogSource, loader WorkbookLoader, cfg *config.Config, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &DashboardService{
		catalog: catalog,
		loader:  loader,
		dataset: cfg.Dataset,
		title:   cfg.Report.Title,
		logger:  logger.With(slog.String("component", "dashboard_service")),
		tracer:  otel.Tracer("genbea/services"),
	}
}

// WithMetrics records chart, filter and report metrics on m.
func (s *DashboardService) WithMetrics(m *infrastructure.DashboardMetrics) *DashboardService {
	s.metrics = m
	return s
}

// ColumnOptions are the values offered for one tracked column.
type ColumnOptions struct {
	Column string   `json:"column"`
	Values []string `json:"values"`
}

// TierOption is one selectable quality tier.
type TierOption struct {
	Tier  quality.Tier `json:"tier"`
	Label string       `json:"label"`
}

// Options are the choices available for a selection.
type Options struct {
	Year     string                          `json:"year"`
	Period   string                          `json:"period,omitempty"`
	Annual   bool                            `json:"annual"`
	Periods  []string                        `json:"periods"`
	Files    []string                        `json:"files"`
	Columns  []ColumnOptions                 `json:"columns"`
	Tiers    map[quality.Metric][]TierOption `json:"tiers"`
	Warnings []filter.Warning                `json:"warnings,omitempty"`
}

// SheetView is one filtered sheet as positional records.
type SheetView struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ChartInfo describes a chart available for the view.
type ChartInfo struct {
	Kind     charts.Kind `json:"kind"`
	Title    string      `json:"title"`
	FileName string      `json:"file_name"`
	Samples  int         `json:"samples"`
}

// View is the filtered state of the dashboard.
type View struct {
	Title     string                       `json:"title"`
	Year      string                       `json:"year"`
	Period    string                       `json:"period,omitempty"`
	Annual    bool                         `json:"annual"`
	Files     []string                     `json:"files"`
	Stats     filter.Stats                 `json:"stats"`
	Effective map[string][]string          `json:"effective"`
	Warnings  []filter.Warning             `json:"warnings,omitempty"`
	Sheets    []SheetView                  `json:"sheets"`
	Summaries []filter.PeriodSummary       `json:"summaries,omitempty"`
	Charts    []ChartInfo                  `json:"charts"`
	Specs     map[charts.Kind]*charts.Spec `json:"-"`
}

// ChartImage is a rendered chart ready for download.
type ChartImage struct {
	Kind     charts.Kind
	FileName string
	PNG      []byte
}

// selection is a loaded and filtered request.
type selection struct {
	files     []files.WorkbookFile
	workbook  *dataset.Workbook
	primary   *dataset.Table
	result    filter.Result
	sheets    []*dataset.Table
	stats     filter.Stats
	summaries []filter.PeriodSummary
	specs     map[charts.Kind]*charts.Spec
}

// Catalog returns the available years and periods.
func (s *DashboardService) Catalog(ctx context.Context) (*files.Catalog, error) {
	cat, err := s.catalog.Catalog()
	if err != nil {
		if errors.Is(err, files.ErrDataDirMissing) {
			return nil, fmt.Errorf("%w: %v", ErrNoData, err)
		}
		return nil, fmt.Errorf("list workbook files: %w", err)
	}
	if len(cat.Years) == 0 {
		return nil, ErrNoData
	}
	return cat, nil
}

// Options loads the selected files and lists the distinct values of every
// tracked column, before any filtering.
func (s *DashboardService) Options(ctx context.Context, req Request) (*Options, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.Options", trace.WithAttributes(requestAttributes(req)...))
	defer span.End()

	cat, selected, err := s.resolve(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, span, "options", err)
	}
	_, primary, err := s.load(ctx, selected, req.Annual)
	if err != nil {
		return nil, s.fail(ctx, span, "options", err)
	}

	group, _ := cat.Year(req.Year)
	opts := &Options{
		Year:    req.Year,
		Period:  req.Period,
		Annual:  req.Annual,
		Periods: group.Periods(),
		Files:   labels(group.Files),
		Tiers:   make(map[quality.Metric][]TierOption),
	}
	for _, col := range s.dataset.TrackedColumns {
		if !primary.HasColumn(col) {
			opts.Warnings = append(opts.Warnings, filter.Warning{
				Column:  col,
				Message: fmt.Sprintf("Columna no encontrada: %s", col),
			})
			continue
		}
		opts.Columns = append(opts.Columns, ColumnOptions{Column: col, Values: filter.ObservedValues(primary, col)})
	}
	for _, m := range []quality.Metric{quality.Purity, quality.Concentration} {
		for _, t := range m.Tiers() {
			opts.Tiers[m] = append(opts.Tiers[m], TierOption{Tier: t, Label: t.Label()})
		}
	}
	return opts, nil
}

// View filters the selection and describes the result.
func (s *DashboardService) View(ctx context.Context, req Request) (*View, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.View", trace.WithAttributes(requestAttributes(req)...))
	defer span.End()

	sel, err := s.prepare(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, span, "view", err)
	}

	view := &View{
		Title:     fmt.Sprintf("%s %s", config.AppName, req.Year),
		Year:      req.Year,
		Period:    req.Period,
		Annual:    req.Annual,
		Files:     labels(sel.files),
		Stats:     sel.stats,
		Effective: sel.result.Effective,
		Warnings:  sel.result.Warnings,
		Summaries: sel.summaries,
		Specs:     sel.specs,
	}
	for _, t := range sel.sheets {
		view.Sheets = append(view.Sheets, SheetView{Name: t.Name, Columns: t.Columns, Rows: t.Records()})
	}
	for _, kind := range charts.Kinds {
		spec, ok := sel.specs[kind]
		if !ok || spec.Empty() {
			continue
		}
		view.Charts = append(view.Charts, ChartInfo{
			Kind:     kind,
			Title:    spec.Title,
			FileName: kind.FileName(),
			Samples:  spec.Samples,
		})
	}

	span.SetAttributes(
		attribute.Int("rows.total", sel.stats.Total),
		attribute.Int("rows.filtered", sel.stats.Filtered),
	)
	s.logger.InfoContext(ctx, "view built",
		slog.String("selection", req.String()),
		slog.Int("total", sel.stats.Total),
		slog.Int("filtered", sel.stats.Filtered),
		slog.Int("sheets", len(view.Sheets)),
		slog.Int("charts", len(view.Charts)))
	return view, nil
}

// Chart renders one chart of the view to PNG.
func (s *DashboardService) Chart(ctx context.Context, req Request, kind charts.Kind) (*ChartImage, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.Chart", trace.WithAttributes(
		append(requestAttributes(req), attribute.String("chart.kind", string(kind)))...))
	defer span.End()

	if _, err := charts.ParseKind(string(kind)); err != nil {
		return nil, s.fail(ctx, span, "chart", err)
	}
	sel, err := s.prepare(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, span, "chart", err)
	}

	raw, err := s.render(ctx, sel, kind)
	if err != nil {
		return nil, s.fail(ctx, span, "chart", err)
	}
	return &ChartImage{Kind: kind, FileName: kind.FileName(), PNG: raw}, nil
}

// Report renders the PDF document and XLSX workbook of the view. Charts that
// cannot be drawn are left out of the document.
func (s *DashboardService) Report(ctx context.Context, req Request) (*report.Artifacts, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.Report", trace.WithAttributes(requestAttributes(req)...))
	defer span.End()

	start := time.Now()
	sel, err := s.prepare(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, span, "report", err)
	}

	images := make(map[charts.Kind][]byte, len(sel.specs))
	for _, kind := range charts.Kinds {
		raw, err := s.render(ctx, sel, kind)
		if errors.Is(err, ErrChartUnavailable) {
			continue
		}
		if err != nil {
			return nil, s.fail(ctx, span, "report", err)
		}
		images[kind] = raw
	}

	artifacts, err := report.Build(s.title, sel.sheets, images)
	if err != nil {
		return nil, s.fail(ctx, span, "report", renderFailure("report could not be assembled", err))
	}

	s.metrics.RecordReport(ctx, "pdf+xlsx", time.Since(start))
	s.logger.InfoContext(ctx, "report generated",
		slog.String("selection", req.String()),
		slog.Int("charts", len(images)),
		slog.Int("pdf_bytes", len(artifacts.Document)),
		slog.Int("xlsx_bytes", len(artifacts.Spreadsheet)),
		slog.Duration("duration", time.Since(start)))
	return artifacts, nil
}

func (s *DashboardService) render(ctx context.Context, sel *selection, kind charts.Kind) ([]byte, error) {
	spec, ok := sel.specs[kind]
	if !ok || spec.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrChartUnavailable, kind)
	}
	raw, err := charts.Render(spec)
	if err != nil {
		if errors.Is(err, charts.ErrEmptyChart) {
			return nil, fmt.Errorf("%w: %s", ErrChartUnavailable, kind)
		}
		return nil, renderFailure(fmt.Sprintf("%s chart could not be rendered", kind), err).
			WithContext("chart", string(kind))
	}
	s.metrics.RecordChart(ctx, string(kind))
	return raw, nil
}

// renderFailure marks an error raised while drawing a chart or assembling a
// report, after the data itself was loaded and filtered.
func renderFailure(message string, err error) *apierrors.AppError {
	return apierrors.NewRenderError(message, err)
}

// resolve maps the request to catalog files.
func (s *DashboardService) resolve(ctx context.Context, req Request) (*files.Catalog, []files.WorkbookFile, error) {
	cat, err := s.Catalog(ctx)
	if err != nil {
		return nil, nil, err
	}
	selected, err := cat.Files(req.Year, req.Period, req.Annual)
	if err != nil {
		return nil, nil, err
	}
	return cat, selected, nil
}

// load reads the selected files, merging them in annual mode, and returns
// the workbook with its primary sheet.
func (s *DashboardService) load(ctx context.Context, selected []files.WorkbookFile, annual bool) (*dataset.Workbook, *dataset.Table, error) {
	workbooks, err := s.loader.LoadAll(ctx, files.Paths(selected))
	if err != nil {
		return nil, nil, err
	}
	wb := workbooks[0]
	if annual {
		wb = s.loader.Merge(workbooks...)
	}
	primary, ok := wb.Sheet(s.dataset.PrimarySheet)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q in %s", ErrMissingPrimarySheet, s.dataset.PrimarySheet, selected[0].Name)
	}
	return wb, primary, nil
}

// prepare runs the filter pipeline for a request.
func (s *DashboardService) prepare(ctx context.Context, req Request) (*selection, error) {
	_, selected, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	wb, primary, err := s.load(ctx, selected, req.Annual)
	if err != nil {
		return nil, err
	}

	idColumn := s.dataset.IdentifierColumn
	result := filter.Apply(primary, filter.Criteria{
		Columns:          s.dataset.TrackedColumns,
		Selections:       req.Selections,
		IdentifierColumn: idColumn,
		Search:           req.Search,
	})
	s.metrics.RecordFilter(ctx, result.Table.Len())

	sel := &selection{
		files:    selected,
		workbook: wb,
		primary:  primary,
		result:   result,
		sheets:   filter.Propagate(wb, result.Table, idColumn),
		stats:    filter.ComputeStats(primary, result.Table, s.loader.Schema()),
		specs:    make(map[charts.Kind]*charts.Spec),
	}

	if req.Annual {
		sel.summaries, err = s.summarize(ctx, selected)
		if err != nil {
			return nil, err
		}
		sel.specs[charts.PeriodSummary] = charts.PeriodSummarySpec(req.Year, sel.summaries)
	}

	var extraction *dataset.Table
	for _, t := range sel.sheets {
		if t.Name == s.dataset.ExtractionSheet {
			extraction = t
			break
		}
	}
	if !extraction.Empty() {
		if hasColumns(extraction, s.dataset.PurityColumns...) {
			sel.specs[charts.Purity] = charts.PuritySpec(extraction, idColumn, s.dataset.PurityColumns,
				charts.Options{Tiers: req.PurityTiers, ShowBands: req.PurityBands})
		}
		if hasColumns(extraction, s.dataset.ConcentrationColumn) {
			sel.specs[charts.Concentration] = charts.ConcentrationSpec(extraction, idColumn, s.dataset.ConcentrationColumn,
				charts.Options{Tiers: req.ConcentrationTiers, ShowBands: req.ConcentrationBands})
		}
	}
	return sel, nil
}

// summarize counts complete and incomplete samples per period file, each
// file read on its own.
func (s *DashboardService) summarize(ctx context.Context, selected []files.WorkbookFile) ([]filter.PeriodSummary, error) {
	schema := s.loader.Schema()
	out := make([]filter.PeriodSummary, 0, len(selected))
	for _, f := range selected {
		wb, err := s.loader.Load(ctx, f.Path)
		if err != nil {
			return nil, err
		}
		primary, _ := wb.Sheet(s.dataset.PrimarySheet)
		out = append(out, filter.SummarizePeriod(f.Label(), primary, schema))
	}
	return out, nil
}

func (s *DashboardService) fail(ctx context.Context, span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.WarnContext(ctx, "dashboard request failed",
		slog.String("operation", op),
		slog.String("error", err.Error()))
	return err
}

func requestAttributes(req Request) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("selection.year", req.Year),
		attribute.String("selection.period", req.Period),
		attribute.Bool("selection.annual", req.Annual),
		attribute.Bool("selection.search", req.Search != ""),
	}
}

func hasColumns(t *dataset.Table, columns ...string) bool {
	if len(columns) == 0 {
		return false
	}
	for _, c := range columns {
		if c == "" || !t.HasColumn(c) {
			return false
		}
	}
	return true
}

func labels(fs []files.WorkbookFile) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Label()
	}
	return out
}
