package roleguard

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/roleguard/roleguard/core"
	"github.com/roleguard/roleguard/keystore"
	"github.com/roleguard/roleguard/policy"
	"github.com/roleguard/roleguard/provider"
	"github.com/roleguard/roleguard/validator"
)

// Metric names recorded by the Engine.
const (
	MetricDecisions        = "roleguard_decisions_total"
	MetricAuthorizeSeconds = "roleguard_authorize_duration_seconds"
	MetricKeys             = "roleguard_keys"
)

// Engine is the entry point of the authorization engine: it owns the
// resolved provider configuration, the key store and the compiled policies,
// and answers authorize(token, policy) calls.
//
// An Engine is built once at startup and is safe for concurrent use.
type Engine struct {
	core     *core.Core
	config   *provider.Config
	keys     *keystore.KeyStore
	policies sync.Map // expression -> *policy.Policy
	logger   Logger
	metrics  Metrics
	tracer   Tracer

	// Temporary fields used during construction
	httpClient       *http.Client
	discoveryTimeout time.Duration
	clockSkew        time.Duration
}

// New resolves the provider configuration, builds the key store and returns
// a ready Engine. Discovery, when enabled, happens here and nowhere else.
//
// Example:
//
//	engine, err := roleguard.New(ctx, provider.Config{
//	    Issuer:           "https://issuer.example",
//	    DiscoveryEnabled: true,
//	    DiscoveryURL:     "https://issuer.example/.well-known/openid-configuration",
//	}, roleguard.WithLogger(roleguard.NewDefaultLogger()))
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(ctx context.Context, static provider.Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		metrics:          &NoopMetrics{},
		tracer:           &NoopTracer{},
		discoveryTimeout: provider.DefaultTimeout,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	resolveOpts := []provider.Option{provider.WithTimeout(e.discoveryTimeout)}
	if e.httpClient != nil {
		resolveOpts = append(resolveOpts, provider.WithHTTPClient(e.httpClient))
	}
	if e.logger != nil {
		resolveOpts = append(resolveOpts, provider.WithLogger(e.logger))
	}

	cfg, err := provider.Resolve(ctx, static, resolveOpts...)
	if err != nil {
		return nil, err
	}
	e.config = cfg

	if err := e.buildCore(); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Engine) buildCore() error {
	keys, err := keystore.New(e.config.JWKS)
	if err != nil {
		return core.NewError(core.KindInvalidPublicKey, core.ErrorCodeKeyInvalid, "could not build key store", err)
	}
	e.keys = keys

	if keys.Len() == 0 && e.logger != nil {
		e.logger.Warn("Key store is empty, every token will be rejected", "issuer", e.config.Issuer)
	}
	e.metrics.SetGauge(MetricKeys, float64(keys.Len()), map[string]string{"issuer": e.config.Issuer})

	v, err := validator.New(
		validator.WithKeyStore(keys),
		validator.WithIssuer(e.config.Issuer),
		validator.WithAllowedClockSkew(e.clockSkew),
	)
	if err != nil {
		return err
	}

	coreOpts := []core.Option{core.WithValidator(v)}
	if e.logger != nil {
		coreOpts = append(coreOpts, core.WithLogger(e.logger))
	}

	c, err := core.New(coreOpts...)
	if err != nil {
		return err
	}
	e.core = c
	return nil
}

// Config returns the resolved provider configuration.
func (e *Engine) Config() *provider.Config {
	return e.config
}

// KeyStore returns the verification keys the engine trusts.
func (e *Engine) KeyStore() *keystore.KeyStore {
	return e.keys
}

// Logger returns the logger given with WithLogger, or nil.
func (e *Engine) Logger() Logger {
	return e.logger
}

// Enabled reports whether transport adapters should enforce policies.
func (e *Engine) Enabled() bool {
	return !e.config.Disabled
}

// Register compiles a policy expression and caches it. Call it while
// registering routes so malformed expressions fail before traffic arrives.
func (e *Engine) Register(expr string) (*policy.Policy, error) {
	if cached, ok := e.policies.Load(expr); ok {
		return cached.(*policy.Policy), nil
	}

	pol, err := policy.Parse(expr)
	if err != nil {
		return nil, err
	}

	actual, _ := e.policies.LoadOrStore(expr, pol)
	return actual.(*policy.Policy), nil
}

func (e *Engine) lookup(expr string) (*policy.Policy, error) {
	if cached, ok := e.policies.Load(expr); ok {
		return cached.(*policy.Policy), nil
	}
	return policy.Parse(expr)
}

// MustRegister is like Register but panics on a malformed expression.
func (e *Engine) MustRegister(expr string) *policy.Policy {
	pol, err := e.Register(expr)
	if err != nil {
		panic(err)
	}
	return pol
}

// Authorize validates token and evaluates the policy expression against the
// caller's roles. token is the raw token without the "Bearer " prefix.
func (e *Engine) Authorize(ctx context.Context, token, expr string) core.Decision {
	decision, _ := e.AuthorizeWithClaims(ctx, token, expr)
	return decision
}

// AuthorizeWithClaims is like Authorize but also returns the verified claims
// whenever the token itself was valid.
//
// Expressions registered beforehand are reused. Any other expression is
// parsed on every call and never cached, so request-derived expressions
// cannot grow the registry.
func (e *Engine) AuthorizeWithClaims(ctx context.Context, token, expr string) (core.Decision, *core.Claims) {
	pol, err := e.lookup(expr)
	if err != nil {
		decision := core.Deny(err)
		e.record(nil, "", decision, 0)
		return decision, nil
	}
	return e.AuthorizePolicy(ctx, token, pol)
}

// AuthorizePolicy evaluates an already compiled policy.
func (e *Engine) AuthorizePolicy(ctx context.Context, token string, pol *policy.Policy) (core.Decision, *core.Claims) {
	ctx, span := e.tracer.StartSpan(ctx, "roleguard.Authorize")
	defer span.Finish()

	var authz core.Authorizer
	expr := ""
	if pol != nil {
		authz = pol
		expr = pol.String()
	}

	start := time.Now()
	decision, claims := e.core.Authorize(ctx, token, authz)
	e.record(span, expr, decision, time.Since(start))

	return decision, claims
}

func (e *Engine) record(span Span, expr string, decision core.Decision, duration time.Duration) {
	outcome, code := "allow", "none"
	if !decision.Allowed {
		outcome = "deny"
		if c := core.CodeOf(decision.Err); c != "" {
			code = c
		} else {
			code = "unknown"
		}
	}

	e.metrics.IncCounter(MetricDecisions, map[string]string{"outcome": outcome, "code": code})
	e.metrics.ObserveHistogram(MetricAuthorizeSeconds, duration.Seconds(), map[string]string{"outcome": outcome})

	if span == nil {
		return
	}
	span.SetTag("roleguard.policy", expr)
	span.SetTag("roleguard.decision", outcome)
	if !decision.Allowed {
		span.SetTag("roleguard.error_code", code)
		span.LogFields("reason", decision.Reason(), "kind", decision.Kind().String())
	}
}

// GetClaims retrieves the claims stored by the HTTP middleware or one of the
// framework adapters.
//
// Example:
//
//	claims, err := roleguard.GetClaims(r.Context())
//	if err != nil {
//	    http.Error(w, "failed to get claims", http.StatusInternalServerError)
//	    return
//	}
//	fmt.Println(claims.Subject, claims.Roles)
func GetClaims(ctx context.Context) (*core.Claims, error) {
	return core.GetClaims(ctx)
}

// MustGetClaims retrieves claims from the context or panics.
// Use only when you are certain claims exist (e.g., after middleware has run).
func MustGetClaims(ctx context.Context) *core.Claims {
	claims, err := core.GetClaims(ctx)
	if err != nil {
		panic(err)
	}
	return claims
}

// HasClaims checks if claims exist in the context.
func HasClaims(ctx context.Context) bool {
	return core.HasClaims(ctx)
}
