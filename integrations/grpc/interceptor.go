package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"

	"github.com/roleguard/roleguard"
	"github.com/roleguard/roleguard/core"
	"github.com/roleguard/roleguard/policy"
)

// Interceptor authorizes gRPC calls with a roleguard.Engine.
type Interceptor struct {
	engine          *roleguard.Engine
	tokenExtractor  TokenExtractor
	errorHandler    ErrorHandler
	excludedMethods map[string]bool
	logger          roleguard.Logger

	defaultPolicy *policy.Policy
	policies      map[string]*policy.Policy

	// expressions collected by options, compiled in New
	defaultExpr string
	methodExprs map[string]string
}

// New creates an interceptor for engine. Policy expressions given through
// options are compiled here, so a malformed one fails New.
func New(engine *roleguard.Engine, opts ...Option) (*Interceptor, error) {
	if engine == nil {
		return nil, errors.New("engine cannot be nil")
	}

	i := &Interceptor{
		engine:          engine,
		tokenExtractor:  MetadataTokenExtractor,
		errorHandler:    DefaultErrorHandler,
		excludedMethods: make(map[string]bool),
		logger:          engine.Logger(),
		policies:        make(map[string]*policy.Policy),
		methodExprs:     make(map[string]string),
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}

	if i.defaultExpr != "" {
		pol, err := engine.Register(i.defaultExpr)
		if err != nil {
			return nil, err
		}
		i.defaultPolicy = pol
	}
	for method, expr := range i.methodExprs {
		pol, err := engine.Register(expr)
		if err != nil {
			return nil, err
		}
		i.policies[method] = pol
	}

	if !engine.Enabled() && i.logger != nil {
		i.logger.Warn("Security is disabled, gRPC calls will not be authorized")
	}

	return i, nil
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that authorizes
// each call and makes the claims available in the handler's context.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if i.skip(info.FullMethod) {
			return handler(ctx, req)
		}

		authorizedCtx, err := i.authorize(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}

		return handler(authorizedCtx, req)
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor that
// authorizes each stream and makes the claims available in the stream
// context.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if i.skip(info.FullMethod) {
			return handler(srv, ss)
		}

		authorizedCtx, err := i.authorize(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}

		return handler(srv, &wrappedServerStream{
			ServerStream: ss,
			ctx:          authorizedCtx,
		})
	}
}

func (i *Interceptor) skip(method string) bool {
	if !i.engine.Enabled() {
		return true
	}
	if i.excludedMethods[method] {
		if i.logger != nil {
			i.logger.Debug("skipping authorization for excluded method",
				"method", method)
		}
		return true
	}
	return false
}

// policyFor returns the policy guarding method, or nil when there is none.
func (i *Interceptor) policyFor(method string) *policy.Policy {
	if pol, ok := i.policies[method]; ok {
		return pol
	}
	return i.defaultPolicy
}

func (i *Interceptor) authorize(ctx context.Context, method string) (context.Context, error) {
	pol := i.policyFor(method)
	if pol == nil {
		if i.logger != nil {
			i.logger.Error("no policy registered for method", "method", method)
		}
		return ctx, i.errorHandler(core.Errorf(core.KindConfiguration, core.ErrorCodeConfigInvalid,
			"no policy registered for method %s", method))
	}

	token, err := i.tokenExtractor(ctx)
	if err != nil {
		if i.logger != nil {
			i.logger.Warn("failed to extract token from gRPC metadata",
				"error", err,
				"method", method)
		}
		return ctx, i.errorHandler(core.NewError(core.KindInvalidJWT, core.ErrorCodeTokenMalformed,
			"invalid authorization metadata", err))
	}

	decision, claims := i.engine.AuthorizePolicy(ctx, token, pol)
	if !decision.Allowed {
		if i.logger != nil {
			i.logger.Debug("call denied",
				"method", method,
				"policy", pol.String(),
				"kind", decision.Kind().String())
		}
		return ctx, i.errorHandler(decision.Err)
	}

	return core.SetClaims(ctx, claims), nil
}

// wrappedServerStream wraps grpc.ServerStream with a custom context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context holding the claims.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
