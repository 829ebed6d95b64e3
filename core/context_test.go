package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSetAndGetClaims tests the claims storage and retrieval from context
func TestSetAndGetClaims(t *testing.T) {
	t.Run("set and get claims successfully", func(t *testing.T) {
		expectedClaims := &Claims{Subject: "user123", Roles: NewRoleSet("admin")}

		ctx := SetClaims(context.Background(), expectedClaims)
		claims, err := GetClaims(ctx)

		assert.NoError(t, err)
		assert.Same(t, expectedClaims, claims)
	})

	t.Run("get claims from empty context returns error", func(t *testing.T) {
		_, err := GetClaims(context.Background())

		assert.ErrorIs(t, err, ErrClaimsNotFound)
	})

	t.Run("nil claims are treated as absent", func(t *testing.T) {
		ctx := SetClaims(context.Background(), nil)

		assert.False(t, HasClaims(ctx))
		_, err := GetClaims(ctx)
		assert.ErrorIs(t, err, ErrClaimsNotFound)
	})

	t.Run("has claims returns true when claims exist", func(t *testing.T) {
		ctx := SetClaims(context.Background(), &Claims{})

		assert.True(t, HasClaims(ctx))
	})

	t.Run("has claims returns false when no claims", func(t *testing.T) {
		assert.False(t, HasClaims(context.Background()))
	})
}
