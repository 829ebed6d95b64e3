package grpc

import (
	"errors"

	"github.com/roleguard/roleguard"
)

// Option configures the interceptor.
type Option func(*Interceptor) error

// WithDefaultPolicy guards every method that has no policy of its own.
func WithDefaultPolicy(expr string) Option {
	return func(i *Interceptor) error {
		if expr == "" {
			return errors.New("default policy cannot be empty")
		}
		i.defaultExpr = expr
		return nil
	}
}

// WithMethodPolicy guards one method. method is the full method name:
// "/package.Service/Method".
//
// Example:
//
//	interceptor, _ := rgrpc.New(engine,
//	    rgrpc.WithMethodPolicy("/billing.Billing/Refund", "hasAllRoles(ROLE_BILLING, ROLE_ADMIN)"),
//	)
func WithMethodPolicy(method, expr string) Option {
	return func(i *Interceptor) error {
		if method == "" || expr == "" {
			return errors.New("method and policy cannot be empty")
		}
		i.methodExprs[method] = expr
		return nil
	}
}

// WithLogger sets an optional logger for the interceptor.
func WithLogger(logger roleguard.Logger) Option {
	return func(i *Interceptor) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		i.logger = logger
		return nil
	}
}

// WithTokenExtractor sets a custom token extractor function.
// Default is MetadataTokenExtractor which extracts from "authorization" metadata.
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(i *Interceptor) error {
		if extractor == nil {
			return errors.New("token extractor cannot be nil")
		}
		i.tokenExtractor = extractor
		return nil
	}
}

// WithErrorHandler sets a custom error handler function.
// Default is DefaultErrorHandler which maps errors to gRPC status codes.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(i *Interceptor) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		i.errorHandler = handler
		return nil
	}
}

// WithExcludedMethods excludes specific gRPC methods from authorization.
// Methods should be provided in the format: "/package.Service/Method"
// Example: "/myapp.MyService/PublicMethod", "/grpc.health.v1.Health/Check"
func WithExcludedMethods(methods ...string) Option {
	return func(i *Interceptor) error {
		for _, method := range methods {
			i.excludedMethods[method] = true
		}
		return nil
	}
}
