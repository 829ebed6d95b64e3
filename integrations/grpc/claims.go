package grpc

import (
	"context"

	"github.com/roleguard/roleguard/core"
)

// GetClaims retrieves the claims stored by the interceptor.
//
// Example:
//
//	claims, err := rgrpc.GetClaims(ctx)
//	if err != nil {
//	    return nil, status.Error(codes.Internal, "failed to get claims")
//	}
//	fmt.Println(claims.Subject)
func GetClaims(ctx context.Context) (*core.Claims, error) {
	return core.GetClaims(ctx)
}

// MustGetClaims retrieves claims from the context or panics.
// Use only when you are certain claims exist (e.g., after interceptor has run).
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
