package slab

type options struct {
	doubleFreeCheck bool
	zeroOnFree      bool
}

func defaultOptions() options {
	return options{
		doubleFreeCheck: true,
	}
}

// Option configures LockFree and Dynamic allocators.
type Option func(*options)

// WithDoubleFreeCheck enables or disables the per-slot double-free detector.
//
// The detector is on by default. It costs one atomic word per slot and one
// compare-and-swap per free. With it disabled, a double free corrupts the free
// chain without being reported.
func WithDoubleFreeCheck(enabled bool) Option {
	return func(o *options) {
		o.doubleFreeCheck = enabled
	}
}

// WithZeroOnFree scrubs slot memory when it is freed.
func WithZeroOnFree(enabled bool) Option {
	return func(o *options) {
		o.zeroOnFree = enabled
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
