package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeGauges supplies application counts sampled at collection time.
// Nil functions are skipped.
type RuntimeGauges struct {
	CacheEntries   func() int64
	ActiveSessions func() int64
}

// RegisterRuntimeMetrics registers observable gauges for the Go runtime, the
// process uptime and the counts in gauges. Values are read only when the
// meter is collected, so no background goroutine is started.
func RegisterRuntimeMetrics(meter metric.Meter, start time.Time, gauges RuntimeGauges) (metric.Registration, error) {
	goroutines, err := meter.Int64ObservableGauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create system_goroutines: %w", err)
	}

	heapAlloc, err := meter.Int64ObservableGauge(
		"system_memory_allocated_bytes",
		metric.WithDescription("Heap memory allocated by the Go runtime"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create system_memory_allocated_bytes: %w", err)
	}

	sysMemory, err := meter.Int64ObservableGauge(
		"system_memory_system_bytes",
		metric.WithDescription("Memory obtained from the OS"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create system_memory_system_bytes: %w", err)
	}

	gcCount, err := meter.Int64ObservableCounter(
		"system_gc_count",
		metric.WithDescription("Completed garbage collection cycles"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create system_gc_count: %w", err)
	}

	uptime, err := meter.Float64ObservableGauge(
		"system_process_uptime_seconds",
		metric.WithDescription("Process uptime"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create system_process_uptime_seconds: %w", err)
	}

	cacheEntries, err := meter.Int64ObservableGauge(
		"workbook_cache_entries",
		metric.WithDescription("Workbooks currently held in the cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create workbook_cache_entries: %w", err)
	}

	sessions, err := meter.Int64ObservableGauge(
		"access_sessions_active",
		metric.WithDescription("Live dashboard sessions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create access_sessions_active: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		o.ObserveInt64(goroutines, int64(runtime.NumGoroutine()))
		o.ObserveInt64(heapAlloc, int64(mem.HeapAlloc))
		o.ObserveInt64(sysMemory, int64(mem.Sys))
		o.ObserveInt64(gcCount, int64(mem.NumGC))
		o.ObserveFloat64(uptime, time.Since(start).Seconds())

		if gauges.CacheEntries != nil {
			o.ObserveInt64(cacheEntries, gauges.CacheEntries())
		}
		if gauges.ActiveSessions != nil {
			o.ObserveInt64(sessions, gauges.ActiveSessions())
		}
		return nil
	}, goroutines, heapAlloc, sysMemory, gcCount, uptime, cacheEntries, sessions)
}
