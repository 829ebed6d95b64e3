package grpc

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/metadata"

	"github.com/roleguard/roleguard"
)

// TokenExtractor extracts tokens from gRPC metadata.
type TokenExtractor func(ctx context.Context) (string, error)

// Extractor errors
var (
	// ErrMultipleAuthHeaders indicates multiple authorization metadata entries were provided.
	ErrMultipleAuthHeaders = errors.New("multiple authorization metadata entries are not allowed")

	// ErrInvalidAuthFormat indicates the authorization metadata format is invalid.
	ErrInvalidAuthFormat = errors.New("invalid authorization metadata format, expected: Bearer <token>")
)

// MetadataTokenExtractor extracts the token from the "authorization"
// metadata key using the "Bearer <token>" format.
//
// gRPC normalizes incoming metadata keys to lowercase, so this extractor only
// checks the lowercase "authorization" key.
func MetadataTokenExtractor(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil // No metadata, no token (not an error)
	}

	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		return "", nil // No auth header (not an error)
	}

	if len(authHeaders) > 1 {
		return "", ErrMultipleAuthHeaders
	}

	token, err := roleguard.BearerToken(authHeaders[0])
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAuthFormat, err)
	}
	return token, nil
}
