package validator

import (
	"errors"
	"time"

	"github.com/roleguard/roleguard/keystore"
)

// Option is how options for the Validator are set up.
// Options return errors to enable validation during construction.
type Option func(*Validator) error

// WithKeyStore sets the store used to resolve the token's kid.
// This is a required option.
func WithKeyStore(keys *keystore.KeyStore) Option {
	return func(v *Validator) error {
		if keys == nil {
			return errors.New("key store cannot be nil")
		}
		v.keys = keys
		return nil
	}
}

// WithIssuer sets the expected issuer claim (iss) for token validation.
// This is a required option.
//
// The comparison is exact string equality; no trailing slash or case
// normalization is applied.
func WithIssuer(issuer string) Option {
	return func(v *Validator) error {
		if issuer == "" {
			return errors.New("issuer cannot be empty")
		}
		v.issuer = issuer
		return nil
	}
}

// WithAllowedClockSkew sets the allowed clock skew for time-based claims.
//
// This allows for some tolerance when validating exp and nbf claims
// to account for clock differences between systems. If not set, the default
// is 0 (no clock skew allowed).
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(v *Validator) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.allowedClockSkew = skew
		return nil
	}
}

// WithClock overrides the time source used for exp and nbf checks.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		v.now = now
		return nil
	}
}
