package grpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"

	"github.com/roleguard/roleguard"
)

func TestMetadataTokenExtractor(t *testing.T) {
	testCases := []struct {
		name      string
		md        metadata.MD
		wantToken string
		wantError error
	}{
		{name: "no metadata"},
		{name: "no authorization entry", md: metadata.Pairs("x-request-id", "1")},
		{name: "bearer token", md: metadata.Pairs("authorization", "Bearer abc"), wantToken: "abc"},
		{name: "case insensitive scheme", md: metadata.Pairs("authorization", "bEaReR abc"), wantToken: "abc"},
		{name: "extra whitespace", md: metadata.Pairs("authorization", "  Bearer   abc  "), wantToken: "abc"},
		{
			name:      "multiple entries",
			md:        metadata.Pairs("authorization", "Bearer a", "authorization", "Bearer b"),
			wantError: ErrMultipleAuthHeaders,
		},
		{name: "basic scheme", md: metadata.Pairs("authorization", "Basic abc"), wantError: ErrInvalidAuthFormat},
		{name: "scheme only", md: metadata.Pairs("authorization", "Bearer"), wantError: ErrInvalidAuthFormat},
		{name: "too many parts", md: metadata.Pairs("authorization", "Bearer a b"), wantError: ErrInvalidAuthFormat},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			ctx := context.Background()
			if testCase.md != nil {
				ctx = metadata.NewIncomingContext(ctx, testCase.md)
			}

			token, err := MetadataTokenExtractor(ctx)
			assert.ErrorIs(t, err, testCase.wantError)
			assert.Equal(t, testCase.wantToken, token)
		})
	}
}

func TestMetadataTokenExtractor_WrapsBearerError(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Token abc"))

	_, err := MetadataTokenExtractor(ctx)
	assert.ErrorIs(t, err, roleguard.ErrInvalidAuthHeader)
}
