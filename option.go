package roleguard

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/roleguard/roleguard/provider"
)

// Option configures the Engine.
// Returns error for validation failures.
type Option func(*Engine) error

// WithLogger sets an optional logger for the engine.
// The logger is used by discovery, token validation and policy evaluation.
//
// The logger interface is compatible with log/slog.Logger and with the
// adapters returned by NewLogrusLogger, NewZapLogger and NewZerologLogger.
func WithLogger(logger Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			return ErrLoggerNil
		}
		e.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
//
// Default: NoopMetrics
func WithMetrics(metrics Metrics) Option {
	return func(e *Engine) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		e.metrics = metrics
		return nil
	}
}

// WithTracer sets the tracer used to wrap every authorization in a span.
//
// Default: NoopTracer
func WithTracer(tracer Tracer) Option {
	return func(e *Engine) error {
		if tracer == nil {
			return ErrTracerNil
		}
		e.tracer = tracer
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for the discovery and JWKS fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) error {
		if client == nil {
			return ErrHTTPClientNil
		}
		e.httpClient = client
		return nil
	}
}

// WithDiscoveryTimeout bounds the startup discovery sequence.
//
// Default: provider.DefaultTimeout, at most provider.MaxTimeout
func WithDiscoveryTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout <= 0 {
			return errors.New("discovery timeout must be positive")
		}
		if timeout > provider.MaxTimeout {
			return fmt.Errorf("discovery timeout cannot exceed %s", provider.MaxTimeout)
		}
		e.discoveryTimeout = timeout
		return nil
	}
}

// WithAllowedClockSkew sets the tolerance applied to exp and nbf.
//
// Default: 0
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(e *Engine) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		e.clockSkew = skew
		return nil
	}
}

// MiddlewareOption configures the HTTP Middleware.
type MiddlewareOption func(*Middleware) error

// WithValidateOnOptions sets whether OPTIONS requests should be authorized.
//
// Default: true (OPTIONS requests are authorized)
func WithValidateOnOptions(value bool) MiddlewareOption {
	return func(m *Middleware) error {
		m.validateOnOptions = value
		return nil
	}
}

// WithErrorHandler sets the handler called when a request is denied.
// See the ErrorHandler type for more information.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return func(m *Middleware) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.errorHandler = h
		return nil
	}
}

// WithTokenExtractor sets the function to extract the token from the request.
//
// Default: AuthHeaderTokenExtractor
func WithTokenExtractor(e TokenExtractor) MiddlewareOption {
	return func(m *Middleware) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		m.tokenExtractor = e
		return nil
	}
}

// WithExclusionUrls configures URL patterns to exclude from authorization.
// URLs can be full URLs or just paths.
func WithExclusionUrls(exclusions []string) MiddlewareOption {
	return func(m *Middleware) error {
		if len(exclusions) == 0 {
			return ErrExclusionUrlsEmpty
		}
		m.exclusionURLHandler = func(r *http.Request) bool {
			requestFullURL := r.URL.String()
			requestPath := r.URL.Path

			for _, exclusion := range exclusions {
				if requestFullURL == exclusion || requestPath == exclusion {
					return true
				}
			}
			return false
		}
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrEngineNil          = errors.New("engine cannot be nil")
	ErrErrorHandlerNil    = errors.New("errorHandler cannot be nil")
	ErrTokenExtractorNil  = errors.New("tokenExtractor cannot be nil")
	ErrExclusionUrlsEmpty = errors.New("exclusion URLs list cannot be empty")
	ErrLoggerNil          = errors.New("logger cannot be nil")
	ErrMetricsNil         = errors.New("metrics cannot be nil")
	ErrTracerNil          = errors.New("tracer cannot be nil")
	ErrHTTPClientNil      = errors.New("http client cannot be nil")
)
