package roleguard

import (
	"fmt"
	"net/http"

	"github.com/roleguard/roleguard/core"
	"github.com/roleguard/roleguard/policy"
)

// Middleware enforces role policies on net/http handlers.
type Middleware struct {
	engine              *Engine
	errorHandler        ErrorHandler
	tokenExtractor      TokenExtractor
	validateOnOptions   bool
	exclusionURLHandler ExclusionURLHandler
	logger              Logger
}

// ExclusionURLHandler is a function that takes in a http.Request and returns
// true if the request should be excluded from authorization.
type ExclusionURLHandler func(r *http.Request) bool

// NewMiddleware constructs the HTTP adapter for engine.
//
// Example:
//
//	mw, err := roleguard.NewMiddleware(engine)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
//	mux.Handle("/admin", mw.MustRequirePolicy("hasAnyRole(ROLE_ADMIN)")(adminHandler))
func NewMiddleware(engine *Engine, opts ...MiddlewareOption) (*Middleware, error) {
	if engine == nil {
		return nil, ErrEngineNil
	}

	m := &Middleware{
		engine:            engine,
		validateOnOptions: true, // Validate OPTIONS by default
		logger:            engine.logger,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if m.errorHandler == nil {
		m.errorHandler = DefaultErrorHandler
	}
	if m.tokenExtractor == nil {
		m.tokenExtractor = AuthHeaderTokenExtractor
	}

	if !engine.Enabled() && m.logger != nil {
		m.logger.Warn("Security is disabled, requests will not be authorized")
	}

	return m, nil
}

// RequirePolicy returns a middleware that only lets requests through when
// the bearer token satisfies expr. The expression is compiled immediately.
func (m *Middleware) RequirePolicy(expr string) (func(http.Handler) http.Handler, error) {
	pol, err := m.engine.Register(expr)
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return m.handler(pol, next)
	}, nil
}

// MustRequirePolicy is like RequirePolicy but panics on a malformed expression.
func (m *Middleware) MustRequirePolicy(expr string) func(http.Handler) http.Handler {
	mw, err := m.RequirePolicy(expr)
	if err != nil {
		panic(err)
	}
	return mw
}

func (m *Middleware) handler(pol *policy.Policy, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.engine.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		// If there's an exclusion handler and the URL matches, skip authorization
		if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
			if m.logger != nil {
				m.logger.Debug("skipping authorization for excluded URL",
					"method", r.Method,
					"path", r.URL.Path)
			}
			next.ServeHTTP(w, r)
			return
		}
		// If we don't validate on OPTIONS and this is OPTIONS
		// then continue onto next without validating.
		if !m.validateOnOptions && r.Method == http.MethodOptions {
			if m.logger != nil {
				m.logger.Debug("skipping authorization for OPTIONS request")
			}
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.tokenExtractor(r)
		if err != nil {
			if m.logger != nil {
				m.logger.Warn("failed to extract token from request",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path)
			}
			m.errorHandler(w, r, core.NewError(core.KindInvalidJWT, core.ErrorCodeTokenMalformed,
				"invalid JWT header in request", err))
			return
		}

		decision, claims := m.engine.AuthorizePolicy(r.Context(), token, pol)
		if !decision.Allowed {
			m.errorHandler(w, r, decision.Err)
			return
		}

		r = r.Clone(core.SetClaims(r.Context(), claims))
		next.ServeHTTP(w, r)
	})
}
