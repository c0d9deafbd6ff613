package slabkit

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting pool metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    allocs    *prometheus.CounterVec
//	    allocTime prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordAlloc(class int, d time.Duration, err error) {
//	    p.allocs.WithLabelValues(strconv.Itoa(class)).Inc()
//	    p.allocTime.Observe(d.Seconds())
//	}
type MetricsCollector interface {
	// RecordAlloc is called after each allocation. class is 0 when no class fits.
	RecordAlloc(class int, duration time.Duration, err error)

	// RecordFree is called after each free.
	RecordFree(class int, err error)

	// RecordExhausted is called when the serving class has no free slot.
	RecordExhausted(class int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAlloc(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordFree(int, error)                 {}
func (NoopMetricsCollector) RecordExhausted(int)                   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AllocCount      atomic.Int64
	AllocErrors     atomic.Int64
	AllocTotalNanos atomic.Int64
	FreeCount       atomic.Int64
	FreeErrors      atomic.Int64
	ExhaustedCount  atomic.Int64
}

// RecordAlloc implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAlloc(_ int, duration time.Duration, err error) {
	b.AllocCount.Add(1)
	b.AllocTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AllocErrors.Add(1)
	}
}

// RecordFree implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFree(_ int, err error) {
	b.FreeCount.Add(1)
	if err != nil {
		b.FreeErrors.Add(1)
	}
}

// RecordExhausted implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExhausted(int) {
	b.ExhaustedCount.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AllocCount:     b.AllocCount.Load(),
		AllocErrors:    b.AllocErrors.Load(),
		AllocAvgNanos:  b.getAvgAllocNanos(),
		FreeCount:      b.FreeCount.Load(),
		FreeErrors:     b.FreeErrors.Load(),
		ExhaustedCount: b.ExhaustedCount.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgAllocNanos() int64 {
	count := b.AllocCount.Load()
	if count == 0 {
		return 0
	}
	return b.AllocTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AllocCount     int64
	AllocErrors    int64
	AllocAvgNanos  int64
	FreeCount      int64
	FreeErrors     int64
	ExhaustedCount int64
}
