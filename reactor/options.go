// File: reactor/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import "runtime"

// Option customizes reactor construction.
type Option func(*options)

type options struct {
	workers      int
	sqDepth      uint32
	pollBatch    int
	disableUring bool
}

func defaultOptions() options {
	return options{
		workers:   runtime.NumCPU(),
		sqDepth:   512,
		pollBatch: 128,
	}
}

// WithWorkers sets the worker-pool size. Defaults to hardware concurrency.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithSQDepth sets the completion-port submission queue depth.
func WithSQDepth(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.sqDepth = n
		}
	}
}

// WithPollBatch sets the maximum readiness events handled per poll cycle.
func WithPollBatch(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pollBatch = n
		}
	}
}

// WithoutURing forces the thread-pool file backend even when the kernel
// completion port is usable. Mostly for tests and diagnostics.
func WithoutURing() Option {
	return func(o *options) { o.disableUring = true }
}
