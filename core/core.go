// Package core provides the framework-agnostic authorization engine and the
// types shared by every other package: the error taxonomy, verified Claims,
// the normalized RoleSet and the Decision returned to callers.
//
// The Core type combines a token validator with a parsed policy. It can be
// wrapped by transport-specific adapters (HTTP, gRPC, etc.).
package core

import (
	"context"
	"time"
)

// TokenValidator verifies a raw bearer token and returns its claims.
// Implementations must be safe for concurrent use.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

// Authorizer decides whether a role set satisfies a policy.
// *policy.Policy implements it.
type Authorizer interface {
	Evaluate(roles RoleSet) Decision
	String() string
}

// Logger defines an optional logging interface for the core engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Core is the framework-agnostic authorization engine. It holds no mutable
// state and may be shared by any number of goroutines.
type Core struct {
	validator TokenValidator
	logger    Logger
}

// CheckToken validates a raw token string and returns the verified claims.
// An empty token is rejected with an InvalidJwt error.
func (c *Core) CheckToken(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		if c.logger != nil {
			c.logger.Warn("No token provided and credentials are required")
		}
		return nil, NewError(KindInvalidJWT, ErrorCodeTokenMissing, "invalid JWT header in request", nil)
	}

	start := time.Now()
	claims, err := c.validator.ValidateToken(ctx, token)
	duration := time.Since(start)

	if err != nil {
		if c.logger != nil {
			c.logger.Warn("Token validation failed", "error", err, "code", CodeOf(err), "duration", duration)
		}
		return nil, err
	}

	if c.logger != nil {
		c.logger.Debug("Token validated successfully", "subject", claims.Subject, "duration", duration)
	}

	return claims, nil
}

// Authorize validates the token and evaluates the policy against the caller's
// roles. The claims are returned whenever the token itself was valid, even if
// the policy denied access.
func (c *Core) Authorize(ctx context.Context, token string, policy Authorizer) (Decision, *Claims) {
	if policy == nil {
		return Deny(NewError(KindConfiguration, ErrorCodeConfigInvalid, "no policy attached to operation", nil)), nil
	}

	claims, err := c.CheckToken(ctx, token)
	if err != nil {
		return Deny(err), nil
	}

	decision := policy.Evaluate(claims.Roles)
	if c.logger != nil {
		if decision.Allowed {
			c.logger.Debug("Authorization granted", "policy", policy.String(), "subject", claims.Subject)
		} else {
			c.logger.Warn("Authorization denied",
				"policy", policy.String(),
				"subject", claims.Subject,
				"reason", decision.Reason())
		}
	}

	return decision, claims
}
