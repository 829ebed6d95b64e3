// Package roleguardecho guards echo routes with role policies.
//
//	guard, _ := roleguardecho.New(engine)
//	e.GET("/admin", adminHandler, guard.MustRequirePolicy("ROLE_ADMIN"))
package roleguardecho

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/roleguard/roleguard"
	"github.com/roleguard/roleguard/core"
)

// DefaultClaimsKey is the echo context key holding the verified claims.
var DefaultClaimsKey = "roleguard.claims"

// ErrEngineNil is returned by New without an engine.
var ErrEngineNil = errors.New("engine cannot be nil")

// Middleware builds echo middleware enforcing policies with one Engine.
type Middleware struct {
	engine         *roleguard.Engine
	errorHandler   func(echo.Context, error) error
	contextKey     string
	tokenExtractor roleguard.TokenExtractor
	logger         roleguard.Logger
}

// New returns a Middleware for engine.
func New(engine *roleguard.Engine, opts ...Option) (*Middleware, error) {
	if engine == nil {
		return nil, ErrEngineNil
	}

	m := &Middleware{
		engine:         engine,
		errorHandler:   DefaultErrorHandler,
		contextKey:     DefaultClaimsKey,
		logger:         engine.Logger(),
		tokenExtractor: roleguard.AuthHeaderTokenExtractor,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	if !engine.Enabled() && m.logger != nil {
		m.logger.Warn("Security is disabled, requests will not be authorized")
	}
	return m, nil
}

// RequirePolicy compiles expr and returns middleware that only calls the
// next handler when the caller satisfies it.
func (m *Middleware) RequirePolicy(expr string) (echo.MiddlewareFunc, error) {
	pol, err := m.engine.Register(expr)
	if err != nil {
		return nil, err
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !m.engine.Enabled() {
				return next(c)
			}

			token, err := m.tokenExtractor(c.Request())
			if err != nil {
				return m.errorHandler(c, core.NewError(core.KindInvalidJWT, core.ErrorCodeTokenMalformed,
					"invalid JWT header in request", err))
			}

			decision, claims := m.engine.AuthorizePolicy(c.Request().Context(), token, pol)
			if !decision.Allowed {
				return m.errorHandler(c, decision.Err)
			}

			c.Set(m.contextKey, claims)
			c.SetRequest(c.Request().WithContext(core.SetClaims(c.Request().Context(), claims)))
			return next(c)
		}
	}, nil
}

// MustRequirePolicy is like RequirePolicy but panics on a malformed expression.
func (m *Middleware) MustRequirePolicy(expr string) echo.MiddlewareFunc {
	mw, err := m.RequirePolicy(expr)
	if err != nil {
		panic(err)
	}
	return mw
}

// DefaultErrorHandler writes the same responses as roleguard.DefaultErrorHandler.
func DefaultErrorHandler(c echo.Context, err error) error {
	status, resp, challenge := roleguard.ResolveErrorResponse(err)
	if challenge != "" {
		c.Response().Header().Set("WWW-Authenticate", challenge)
	}
	return c.JSON(status, resp)
}

// GetClaims extracts the claims from the echo context. An empty contextKey
// means DefaultClaimsKey.
func GetClaims(c echo.Context, contextKey string) (*core.Claims, bool) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	claims := c.Get(contextKey)
	if claims == nil {
		return nil, false
	}

	validatedClaims, ok := claims.(*core.Claims)
	return validatedClaims, ok
}
