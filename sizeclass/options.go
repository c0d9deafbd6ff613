package sizeclass

import (
	"log/slog"

	"github.com/hupe1980/slabkit/slab"
)

type options struct {
	logger   *slog.Logger
	stats    bool
	slabOpts []slab.Option
}

// Option configures an Allocator.
type Option func(*options)

// WithLogger sets the logger. Construction is logged at debug level and
// failed requests at debug level with their size and class.
//
// If nil is passed, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithStats enables or disables the dispatcher counters reported by Stats:
// the byte counters and the Allocs, Frees and Failures counts. Per-class
// bucket counters are always kept. They are enabled by default.
func WithStats(enabled bool) Option {
	return func(o *options) {
		o.stats = enabled
	}
}

// WithSlabOptions passes options to every bucket New creates. They are applied
// after the Config's DoubleFreeCheck setting.
func WithSlabOptions(opts ...slab.Option) Option {
	return func(o *options) {
		o.slabOpts = append(o.slabOpts, opts...)
	}
}

func applyOptions(opts []Option) options {
	o := options{stats: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}
