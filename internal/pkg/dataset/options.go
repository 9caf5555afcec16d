package dataset

import (
	"io"
	"net/http"
)

// Option configures a [Loader].
type Option func(*options)

type options struct {
	client *http.Client
	stdin  io.Reader
}

// WithHTTPClient sets the HTTP client used to fetch remote datasets.
//
// Defaults to a client with the timeout configured in dataset.timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client == nil {
			return
		}

		o.client = client
	}
}

// WithStdin overrides the reader used when the source is "-".
//
// Defaults to [os.Stdin].
func WithStdin(r io.Reader) Option {
	return func(o *options) {
		o.stdin = r
	}
}

func optionsWithDefaults(opts []Option) options {
	var o options
	for _, apply := range opts {
		apply(&o)
	}

	return o
}
