package roleguardecho

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/roleguard/roleguard"
)

// Option is a function that configures the middleware
type Option func(*Middleware) error

// WithErrorHandler sets a custom error handler. Its return value is returned
// from the middleware, so echo's HTTPErrorHandler sees it.
func WithErrorHandler(handler func(echo.Context, error) error) Option {
	return func(m *Middleware) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		m.errorHandler = handler
		return nil
	}
}

// WithContextKey sets a custom context key to store claims
func WithContextKey(key string) Option {
	return func(m *Middleware) error {
		if key == "" {
			return errors.New("context key cannot be empty")
		}
		m.contextKey = key
		return nil
	}
}

// WithTokenExtractor sets a custom token extractor
func WithTokenExtractor(extractor roleguard.TokenExtractor) Option {
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
