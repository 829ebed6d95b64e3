package core

import (
	"errors"
)

// Option is a function that configures the Core.
// Options return errors to enable validation during construction.
type Option func(*Core) error

// New creates a new Core instance with the provided options.
//
// The Core must be configured with a TokenValidator using WithValidator.
//
// Example:
//
//	c, err := core.New(
//	    core.WithValidator(v),
//	    core.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) (*Core, error) {
	c := &Core{}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// validate ensures all required fields are set.
func (c *Core) validate() error {
	if c.validator == nil {
		return NewError(
			KindConfiguration,
			ErrorCodeConfigInvalid,
			"validator is required but not set (use WithValidator option)",
			nil,
		)
	}
	return nil
}

// WithValidator sets the token validator for the Core. This is a required option.
func WithValidator(validator TokenValidator) Option {
	return func(c *Core) error {
		if validator == nil {
			return errors.New("validator cannot be nil")
		}
		c.validator = validator
		return nil
	}
}

// WithLogger sets an optional logger for the Core.
//
// When configured, the Core logs validation failures, denials and timing
// information. Raw tokens are never logged.
func WithLogger(logger Logger) Option {
	return func(c *Core) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}
