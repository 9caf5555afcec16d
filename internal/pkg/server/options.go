package server

import "time"

// Option configures the dashboard [Server].
type Option func(*options)

type options struct {
	Addr  string
	Grace time.Duration
}

// WithAddr overrides the configured listening address, e.g. ":8050".
func WithAddr(addr string) Option {
	return func(o *options) {
		if addr == "" {
			return
		}

		o.Addr = addr
	}
}

// WithShutdownGrace overrides the configured time left to in-flight requests on shutdown.
func WithShutdownGrace(grace time.Duration) Option {
	return func(o *options) {
		if grace <= 0 {
			return
		}

		o.Grace = grace
	}
}

func optionsWithDefaults(defaults options, opts []Option) options {
	o := defaults
	for _, apply := range opts {
		apply(&o)
	}

	return o
}
