/*
Package roleguard verifies bearer tokens issued by an OpenID Connect provider
and decides whether the caller may invoke an operation guarded by a role
policy.

The engine is built once at startup. It resolves the provider configuration
(optionally through OIDC discovery), loads the provider's keys into an
immutable key store and then answers authorize(token, policy) calls from any
number of goroutines without further I/O.

# Quick Start

	func main() {
	    engine, err := roleguard.New(context.Background(), provider.Config{
	        Issuer:           "https://issuer.example",
	        DiscoveryEnabled: true,
	        DiscoveryURL:     "https://issuer.example/.well-known/openid-configuration",
	    }, roleguard.WithLogger(roleguard.NewDefaultLogger()))
	    if err != nil {
	        log.Fatal(err)
	    }

	    mw, err := roleguard.NewMiddleware(engine)
	    if err != nil {
	        log.Fatal(err)
	    }

	    http.Handle("/admin", mw.MustRequirePolicy("hasAnyRole(ROLE_ADMIN)")(adminHandler))
	    http.ListenAndServe(":8080", nil)
	}

# Policies

	ROLE_ADMIN                              the caller holds ROLE_ADMIN
	hasAnyRole(ROLE_ADMIN, ROLE_USER)       the caller holds at least one
	hasAllRoles(ROLE_ADMIN, ROLE_AUDITOR)   the caller holds every role

Roles come from the token's resource_access claim. Every role listed under
any resource is uppercased, "-" and " " become "_" and the "ROLE_" prefix is
added, so {"api": {"roles": ["some-role"]}} grants ROLE_SOME_ROLE.

Register policies while wiring routes; Register and MustRegister parse them
once and surface malformed expressions before traffic arrives. Authorize
reuses registered policies and parses any other expression per call without
caching it, so expressions should be fixed strings.

# Direct Use

Transports other than the bundled adapters call the engine directly:

	decision := engine.Authorize(ctx, rawToken, "hasAllRoles(ROLE_ADMIN, ROLE_AUDITOR)")
	if !decision.Allowed {
	    switch core.KindOf(decision.Err) {
	    case core.KindInvalidRoles:
	        // authenticated, but missing roles
	    default:
	        // authentication failed
	    }
	}

# Accessing Claims

After the middleware has allowed a request, handlers read the verified
claims from the request context:

	func adminHandler(w http.ResponseWriter, r *http.Request) {
	    claims, err := roleguard.GetClaims(r.Context())
	    if err != nil {
	        http.Error(w, "Unauthorized", http.StatusUnauthorized)
	        return
	    }
	    fmt.Fprintf(w, "hello %s, roles: %s", claims.Subject, claims.Roles)
	}

# Error Handling

Every denial carries a *core.Error. DefaultErrorHandler maps authentication
failures to 401, malformed tokens to 400, missing roles to 403 and
configuration problems to 500. Use WithErrorHandler to change the mapping.

# Observability

WithLogger accepts any slog-shaped logger; NewLogrusLogger, NewZapLogger and
NewZerologLogger adapt the common logging libraries. WithMetrics with
NewPrometheusMetrics records decisions and latency, and WithTracer with
NewOpenTelemetryTracer wraps each authorization in a span. Raw tokens are
never logged.

# Framework Adapters

  - framework/gin: gin.HandlerFunc per policy
  - framework/echo: echo.MiddlewareFunc per policy
  - integrations/grpc: unary and stream interceptors with a per-method policy map
*/
package roleguard
