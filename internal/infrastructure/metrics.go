package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DashboardMetrics holds the instruments recorded by the dashboard.
type DashboardMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	WorkbookLoads        metric.Int64Counter
	WorkbookLoadDuration metric.Float64Histogram
	CacheHits            metric.Int64Counter
	CacheMisses          metric.Int64Counter

	FilteredRows     metric.Int64Histogram
	ChartsRendered   metric.Int64Counter
	ReportsGenerated metric.Int64Counter
	ReportDuration   metric.Float64Histogram
}

// CreateDashboardMetrics registers every dashboard instrument on meter.
func CreateDashboardMetrics(meter metric.Meter) (*DashboardMetrics, error) {
	m := &DashboardMetrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total: %w", err)
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds: %w", err)
	}

	if m.WorkbookLoads, err = meter.Int64Counter(
		"workbook_loads_total",
		metric.WithDescription("Workbooks read from disk"),
	); err != nil {
		return nil, fmt.Errorf("failed to create workbook_loads_total: %w", err)
	}

	if m.WorkbookLoadDuration, err = meter.Float64Histogram(
		"workbook_load_duration_seconds",
		metric.WithDescription("Time spent reading and normalizing a workbook"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create workbook_load_duration_seconds: %w", err)
	}

	if m.CacheHits, err = meter.Int64Counter(
		"workbook_cache_hits_total",
		metric.WithDescription("Workbook cache hits"),
	); err != nil {
		return nil, fmt.Errorf("failed to create workbook_cache_hits_total: %w", err)
	}

	if m.CacheMisses, err = meter.Int64Counter(
		"workbook_cache_misses_total",
		metric.WithDescription("Workbook cache misses"),
	); err != nil {
		return nil, fmt.Errorf("failed to create workbook_cache_misses_total: %w", err)
	}

	if m.FilteredRows, err = meter.Int64Histogram(
		"filtered_rows",
		metric.WithDescription("Rows of the primary sheet left after filtering"),
	); err != nil {
		return nil, fmt.Errorf("failed to create filtered_rows: %w", err)
	}

	if m.ChartsRendered, err = meter.Int64Counter(
		"charts_rendered_total",
		metric.WithDescription("Charts rendered to PNG"),
	); err != nil {
		return nil, fmt.Errorf("failed to create charts_rendered_total: %w", err)
	}

	if m.ReportsGenerated, err = meter.Int64Counter(
		"reports_generated_total",
		metric.WithDescription("Report documents generated"),
	); err != nil {
		return nil, fmt.Errorf("failed to create reports_generated_total: %w", err)
	}

	if m.ReportDuration, err = meter.Float64Histogram(
		"report_generation_duration_seconds",
		metric.WithDescription("Time spent generating a report document"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create report_generation_duration_seconds: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records one served request.
func (m *DashboardMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordWorkbookLoad records a read of a workbook file.
func (m *DashboardMetrics) RecordWorkbookLoad(ctx context.Context, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.WorkbookLoads.Add(ctx, 1, attrs)
	m.WorkbookLoadDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCacheLookup records a workbook cache lookup.
func (m *DashboardMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Add(ctx, 1)
		return
	}
	m.CacheMisses.Add(ctx, 1)
}

// RecordFilter records the size of a filtered view.
func (m *DashboardMetrics) RecordFilter(ctx context.Context, rows int) {
	if m == nil {
		return
	}
	m.FilteredRows.Record(ctx, int64(rows))
}

// RecordChart records a rendered chart of the given kind.
func (m *DashboardMetrics) RecordChart(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.ChartsRendered.Add(ctx, 1, metric.WithAttributes(attribute.String("chart.kind", kind)))
}

// RecordReport records a generated document of the given format.
func (m *DashboardMetrics) RecordReport(ctx context.Context, format string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("report.format", format))
	m.ReportsGenerated.Add(ctx, 1, attrs)
	m.ReportDuration.Record(ctx, duration.Seconds(), attrs)
}
