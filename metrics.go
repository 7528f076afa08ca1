package subsurf

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordObject is called after each container object is decoded.
	RecordObject(duration time.Duration, err error)

	// RecordSkip is called for each object dropped by the topology filter.
	RecordSkip()

	// RecordExport is called after each artifact write. size is the encoded
	// artifact size in bytes.
	RecordExport(size int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordObject(time.Duration, error)      {}
func (NoopMetricsCollector) RecordSkip()                            {}
func (NoopMetricsCollector) RecordExport(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	ObjectCount      atomic.Int64
	ObjectErrors     atomic.Int64
	ObjectTotalNanos atomic.Int64
	SkipCount        atomic.Int64
	ExportCount      atomic.Int64
	ExportErrors     atomic.Int64
	ExportBytes      atomic.Int64
	ExportTotalNanos atomic.Int64
}

// RecordObject implements MetricsCollector.
func (b *BasicMetricsCollector) RecordObject(duration time.Duration, err error) {
	b.ObjectCount.Add(1)
	b.ObjectTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ObjectErrors.Add(1)
	}
}

// RecordSkip implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSkip() {
	b.SkipCount.Add(1)
}

// RecordExport implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExport(size int, duration time.Duration, err error) {
	b.ExportCount.Add(1)
	b.ExportTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ExportErrors.Add(1)
		return
	}
	b.ExportBytes.Add(int64(size))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ObjectCount:    b.ObjectCount.Load(),
		ObjectErrors:   b.ObjectErrors.Load(),
		ObjectAvgNanos: avg(b.ObjectTotalNanos.Load(), b.ObjectCount.Load()),
		SkipCount:      b.SkipCount.Load(),
		ExportCount:    b.ExportCount.Load(),
		ExportErrors:   b.ExportErrors.Load(),
		ExportBytes:    b.ExportBytes.Load(),
		ExportAvgNanos: avg(b.ExportTotalNanos.Load(), b.ExportCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ObjectCount    int64
	ObjectErrors   int64
	ObjectAvgNanos int64
	SkipCount      int64
	ExportCount    int64
	ExportErrors   int64
	ExportBytes    int64
	ExportAvgNanos int64
}
