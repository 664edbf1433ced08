package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"genbea/internal/infrastructure"
)

// workbookExtensions are the file extensions excelize can open
var workbookExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// Loader reads workbooks from disk through a cache and applies the schema
// normalization to every result.
type Loader struct {
	schema  Schema
	cache   *Cache
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.DashboardMetrics
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithLogger sets the loader logger
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger.With(slog.String("component", "dataset_loader"))
	}
}

// WithTracer sets the tracer used for load spans
func WithTracer(tracer trace.Tracer) LoaderOption {
	return func(l *Loader) {
		l.tracer = tracer
	}
}

// WithMetrics records load and cache metrics
func WithMetrics(metrics *infrastructure.DashboardMetrics) LoaderOption {
	return func(l *Loader) {
		l.metrics = metrics
	}
}

// NewLoader creates a loader. A nil cache reads every file on each call.
func NewLoader(schema Schema, cache *Cache, opts ...LoaderOption) *Loader {
	l := &Loader{
		schema: schema,
		cache:  cache,
		logger: infrastructure.GetLogger().With(slog.String("component", "dataset_loader")),
		tracer: otel.Tracer("genbea/dataset"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Schema returns the conventions the loader normalizes against.
func (l *Loader) Schema() Schema {
	return l.schema
}

// Load reads one workbook, from cache when the file is unchanged.
func (l *Loader) Load(ctx context.Context, path string) (*Workbook, error) {
	ctx, span := l.tracer.Start(ctx, "dataset.Load", trace.WithAttributes(attribute.String("workbook.path", path)))
	defer span.End()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if l.cache != nil {
				l.cache.Invalidate(path)
			}
			return nil, l.fail(ctx, span, newLoadError(path, "stat", ErrFileNotFound, nil))
		}
		return nil, l.fail(ctx, span, newLoadError(path, "stat", ErrUnreadable, err))
	}
	if info.IsDir() {
		return nil, l.fail(ctx, span, newLoadError(path, "stat", ErrUnreadable, fmt.Errorf("is a directory")))
	}

	read := func() (*Workbook, error) {
		start := time.Now()
		wb, err := ReadFile(path)
		l.metrics.RecordWorkbookLoad(ctx, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		l.logger.InfoContext(ctx, "workbook loaded",
			slog.String("path", path),
			slog.Int("sheets", len(wb.sheets)),
			slog.Duration("duration", time.Since(start)))
		return l.schema.Normalize(wb), nil
	}

	if l.cache == nil {
		wb, err := read()
		if err != nil {
			return nil, l.fail(ctx, span, err)
		}
		return wb, nil
	}

	key := fmt.Sprintf("%s|%d|%d", path, info.ModTime().UnixNano(), info.Size())
	wb, hit, err := l.cache.GetOrLoad(key, path, read)
	if err != nil {
		return nil, l.fail(ctx, span, err)
	}
	l.metrics.RecordCacheLookup(ctx, hit)
	span.SetAttributes(attribute.Bool("cache.hit", hit))
	return wb, nil
}

// LoadAll loads every path in order. The first failure aborts the load and
// no partial result is returned.
func (l *Loader) LoadAll(ctx context.Context, paths []string) ([]*Workbook, error) {
	out := make([]*Workbook, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wb, err := l.Load(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, wb)
	}
	return out, nil
}

// Merge combines workbooks in order and re-applies the schema so rows from
// inputs lacking a tracked column receive the sentinel.
func (l *Loader) Merge(workbooks ...*Workbook) *Workbook {
	return l.schema.Normalize(Merge(workbooks...))
}

func (l *Loader) fail(ctx context.Context, span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	l.logger.WarnContext(ctx, "workbook load failed", slog.String("error", err.Error()))
	return err
}

// ReadFile reads an xlsx workbook without normalization.
func ReadFile(path string) (*Workbook, error) {
	if !workbookExtensions[strings.ToLower(filepath.Ext(path))] {
		return nil, newLoadError(path, "open", ErrInvalidFormat, fmt.Errorf("unsupported extension %q", filepath.Ext(path)))
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newLoadError(path, "open", ErrFileNotFound, nil)
		}
		return nil, newLoadError(path, "open", ErrInvalidFormat, err)
	}
	defer f.Close()

	return readSheets(f, path)
}

// ReadFrom reads an xlsx workbook from r, labelled with source.
func ReadFrom(r io.Reader, source string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, newLoadError(source, "open", ErrInvalidFormat, err)
	}
	defer f.Close()

	return readSheets(f, source)
}

func readSheets(f *excelize.File, source string) (*Workbook, error) {
	names := f.GetSheetList()
	tables := make([]*Table, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, newLoadError(source, "read sheet "+name, ErrUnreadable, err)
		}
		tables = append(tables, buildTable(name, rows))
	}
	return NewWorkbook([]string{source}, tables...), nil
}

// buildTable turns raw sheet rows into a Table. The first row is the header;
// fully blank data rows are dropped.
func buildTable(name string, rows [][]string) *Table {
	if len(rows) == 0 {
		return NewTable(name, nil)
	}

	width := 0
	for _, r := range rows[1:] {
		if len(r) > width {
			width = len(r)
		}
	}

	header := normalizeHeader(rows[0], width)
	data := make([][]string, 0, len(rows)-1)
	for _, r := range rows[1:] {
		if isBlank(r) {
			continue
		}
		data = append(data, r)
	}
	return FromRecords(name, header, data)
}
