package subsurf

import (
	"context"
	"log/slog"

	"github.com/hupe1980/subsurf/container"
	"github.com/hupe1980/subsurf/resource"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	topologies       []container.Topology
	maxFrameSize     int64
	rc               *resource.Controller
	prefix           string
	sidecar          bool
	concurrency      int
}

// Option configures ReadContainer and ExportContainer.
type Option func(*options)

// WithTopologies selects the object topologies to read. The default is
// triangles only.
func WithTopologies(ts ...container.Topology) Option {
	return func(o *options) {
		o.topologies = ts
	}
}

// WithMaxFrameSize bounds the size of a single container frame.
func WithMaxFrameSize(n int64) Option {
	return func(o *options) {
		o.maxFrameSize = n
	}
}

// WithController bounds export workers, in-flight mesh memory and read
// throughput.
//
// Example:
//
//	rc := resource.NewController(resource.Config{
//	    MaxWorkers:         4,
//	    MemoryLimitBytes:   512 << 20,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//	res, err := subsurf.ExportContainer(ctx, f, store, subsurf.WithController(rc))
func WithController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithPrefix places exported artifacts under prefix (e.g. "project-a/").
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithSidecar also writes a JSON header next to every exported artifact.
func WithSidecar() Option {
	return func(o *options) {
		o.sidecar = true
	}
}

// WithConcurrency caps the number of artifact writes in flight. Values <= 0
// leave the cap to the controller.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &subsurf.BasicMetricsCollector{}
//	_, _ = subsurf.ExportContainer(ctx, r, store, subsurf.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
//	fmt.Printf("Exported: %d, Skipped: %d\n", stats.ExportCount, stats.SkipCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// readerOptions translates o for container.NewReader. Skips are reported
// to the logger and the metrics collector.
func (o *options) readerOptions(ctx context.Context) []container.Option {
	opts := []container.Option{
		container.WithSkipHandler(func(ev container.SkipEvent) {
			o.logger.LogSkip(ctx, ev)
			o.metricsCollector.RecordSkip()
		}),
	}
	if len(o.topologies) > 0 {
		opts = append(opts, container.WithTopologies(o.topologies...))
	}
	if o.maxFrameSize > 0 {
		opts = append(opts, container.WithMaxFrameSize(o.maxFrameSize))
	}
	return opts
}
