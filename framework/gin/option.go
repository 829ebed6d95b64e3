package roleguardgin

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/roleguard/roleguard"
)

// Option defines a functional option for configuring the middleware
type Option func(*Middleware) error

// WithErrorHandler sets a custom error handler for the middleware. The
// handler must write a response; the chain is aborted afterwards.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(m *Middleware) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		m.errorHandler = handler
		return nil
	}
}

// WithContextKey stores the claims under key instead of DefaultClaimsKey.
func WithContextKey(key string) Option {
	return func(m *Middleware) error {
		if key == "" {
			return errors.New("context key cannot be empty")
		}
		m.contextKey = key
		return nil
	}
}

// WithTokenExtractor replaces AuthHeaderTokenExtractor.
func WithTokenExtractor(extractor func(*gin.Context) (string, error)) Option {
	return func(m *Middleware) error {
		if extractor == nil {
			return errors.New("token extractor cannot be nil")
		}
		m.tokenExtractor = extractor
		return nil
	}
}

// WithLogger sets the logger used to report that security is disabled.
// Default: the engine's logger.
func WithLogger(logger roleguard.Logger) Option {
	return func(m *Middleware) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		m.logger = logger
		return nil
	}
}
