package provider

import (
	"errors"
	"net/http"
	"time"

	"github.com/roleguard/roleguard/core"
)

const (
	// DefaultTimeout bounds the whole discovery sequence.
	DefaultTimeout = 10 * time.Second

	// MaxTimeout is the largest accepted discovery timeout.
	MaxTimeout = 5 * time.Minute
)

// Option configures Resolve.
type Option func(*resolver) error

// WithHTTPClient sets the HTTP client used for the discovery and JWKS fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(r *resolver) error {
		if client == nil {
			return errors.New("http client cannot be nil")
		}
		r.client = client
		return nil
	}
}

// WithTimeout bounds the discovery sequence. On timeout Resolve falls back
// to the static configuration like any other discovery failure.
func WithTimeout(timeout time.Duration) Option {
	return func(r *resolver) error {
		if timeout <= 0 {
			return errors.New("timeout must be positive")
		}
		if timeout > MaxTimeout {
			return errors.New("timeout cannot exceed 5 minutes")
		}
		r.timeout = timeout
		return nil
	}
}

// WithLogger sets the logger used to report discovery progress and failures.
func WithLogger(logger core.Logger) Option {
	return func(r *resolver) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		r.logger = logger
		return nil
	}
}
