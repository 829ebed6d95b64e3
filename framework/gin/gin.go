// Package roleguardgin guards gin routes with role policies.
//
//	engine, _ := roleguard.New(ctx, cfg)
//	guard, _ := roleguardgin.New(engine)
//
//	router := gin.New()
//	router.GET("/admin", guard.MustRequirePolicy("ROLE_ADMIN"), adminHandler)
package roleguardgin

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/roleguard/roleguard"
	"github.com/roleguard/roleguard/core"
)

// DefaultClaimsKey is the gin context key holding the verified claims.
const DefaultClaimsKey = "roleguard.claims"

var (
	ErrEngineNil     = errors.New("engine cannot be nil")
	ErrMissingClaims = errors.New("no claims found in context")
	ErrInvalidClaims = errors.New("invalid claims type")
)

// Middleware builds gin handlers enforcing policies with one Engine.
type Middleware struct {
	engine         *roleguard.Engine
	errorHandler   func(*gin.Context, error)
	contextKey     string
	tokenExtractor func(*gin.Context) (string, error)
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
		tokenExtractor: AuthHeaderTokenExtractor,
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

// RequirePolicy compiles expr and returns a handler that aborts the chain
// unless the caller satisfies it. Allowed requests carry the claims both in
// the gin context and in the request context.
func (m *Middleware) RequirePolicy(expr string) (gin.HandlerFunc, error) {
	pol, err := m.engine.Register(expr)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		if !m.engine.Enabled() {
			c.Next()
			return
		}

		token, err := m.tokenExtractor(c)
		if err != nil {
			m.errorHandler(c, core.NewError(core.KindInvalidJWT, core.ErrorCodeTokenMalformed,
				"invalid JWT header in request", err))
			c.Abort()
			return
		}

		decision, claims := m.engine.AuthorizePolicy(c.Request.Context(), token, pol)
		if !decision.Allowed {
			m.errorHandler(c, decision.Err)
			c.Abort()
			return
		}

		c.Set(m.contextKey, claims)
		c.Request = c.Request.WithContext(core.SetClaims(c.Request.Context(), claims))
		c.Next()
	}, nil
}

// MustRequirePolicy is like RequirePolicy but panics on a malformed expression.
func (m *Middleware) MustRequirePolicy(expr string) gin.HandlerFunc {
	handler, err := m.RequirePolicy(expr)
	if err != nil {
		panic(err)
	}
	return handler
}

// AuthHeaderTokenExtractor reads a bearer token from the Authorization header.
func AuthHeaderTokenExtractor(c *gin.Context) (string, error) {
	return roleguard.BearerToken(c.GetHeader("Authorization"))
}

// DefaultErrorHandler writes the same responses as roleguard.DefaultErrorHandler.
func DefaultErrorHandler(c *gin.Context, err error) {
	status, resp, challenge := roleguard.ResolveErrorResponse(err)
	if challenge != "" {
		c.Header("WWW-Authenticate", challenge)
	}
	c.AbortWithStatusJSON(status, resp)
}

// GetClaims returns the claims stored under contextKey, or DefaultClaimsKey
// when contextKey is empty.
func GetClaims(c *gin.Context, contextKey string) (*core.Claims, error) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	claims, exists := c.Get(contextKey)
	if !exists {
		return nil, ErrMissingClaims
	}

	validatedClaims, ok := claims.(*core.Claims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	return validatedClaims, nil
}
