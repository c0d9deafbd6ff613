package slabkit

import (
	"log/slog"

	"github.com/hupe1980/slabkit/internal/mmap"
	"github.com/hupe1980/slabkit/resource"
	"github.com/hupe1980/slabkit/slab"
)

// AccessPattern is a kernel hint for the mapped region.
type AccessPattern = mmap.AccessPattern

// Access patterns accepted by WithAdvice.
const (
	AccessDefault    = mmap.AccessDefault
	AccessSequential = mmap.AccessSequential
	AccessRandom     = mmap.AccessRandom
	AccessWillNeed   = mmap.AccessWillNeed
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	resources        *resource.Controller
	advice           AccessPattern
	name             string
	slabOpts         []slab.Option
}

// Option configures Open.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for pool operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &slabkit.BasicMetricsCollector{}
//	pool, _ := slabkit.Open(ctx, cfg, slabkit.WithMetricsCollector(metrics))
//	// ... use pool ...
//	stats := metrics.GetStats()
//	fmt.Printf("Allocs: %d, Avg latency: %dns\n", stats.AllocCount, stats.AllocAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for pool operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := slabkit.NewJSONLogger(slog.LevelInfo)
//	pool, _ := slabkit.Open(ctx, cfg, slabkit.WithLogger(logger))
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

// WithResourceController charges the mapped region against rc's memory budget
// and paces snapshot output by its IO limit.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithAdvice passes an access pattern hint for the mapped region to the kernel.
func WithAdvice(pattern AccessPattern) Option {
	return func(o *options) {
		o.advice = pattern
	}
}

// WithName sets the pool name used in log records.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithSlabOptions passes options to every size-class bucket.
func WithSlabOptions(opts ...slab.Option) Option {
	return func(o *options) {
		o.slabOpts = append(o.slabOpts, opts...)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		advice:           AccessDefault,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
