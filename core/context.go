package core

import (
	"context"
	"errors"
)

// ErrClaimsNotFound is returned when claims cannot be retrieved from context.
var ErrClaimsNotFound = errors.New("claims not found in context")

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	claimsKey contextKey = iota
)

// GetClaims retrieves the verified claims stored by an adapter after a
// successful authorization.
//
// Example usage:
//
//	claims, err := core.GetClaims(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(claims.Subject, claims.Roles)
func GetClaims(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	if !ok || claims == nil {
		return nil, ErrClaimsNotFound
	}
	return claims, nil
}

// SetClaims stores claims in the context.
// This is a helper function for adapters to set claims after authorization.
func SetClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// HasClaims checks if claims exist in the context without retrieving them.
func HasClaims(ctx context.Context) bool {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return ok && claims != nil
}
