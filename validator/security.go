package validator

import (
	"errors"
	"strings"
)

var (
	// ErrExcessiveTokenDots is returned when a token contains more segment
	// separators than any JOSE compact serialization uses.
	ErrExcessiveTokenDots = errors.New("token contains excessive dots")

	// ErrTokenTooLarge is returned for tokens over maxTokenSize.
	ErrTokenTooLarge = errors.New("token exceeds maximum size (1MB)")

	// ErrEmptyToken is returned for an empty token string.
	ErrEmptyToken = errors.New("token is empty")
)

const (
	// maxTokenDots is the maximum number of dots allowed in a token.
	// JWS compact has 2, JWE compact has 4.
	maxTokenDots = 5

	// maxTokenSize caps the raw token length. Real tokens are a few KB.
	maxTokenSize = 1024 * 1024
)

// validateTokenFormat rejects obviously malicious inputs before any
// splitting or decoding happens.
func validateTokenFormat(tokenString string) error {
	if len(tokenString) == 0 {
		return ErrEmptyToken
	}

	if len(tokenString) > maxTokenSize {
		return ErrTokenTooLarge
	}

	if strings.Count(tokenString, ".") > maxTokenDots {
		return ErrExcessiveTokenDots
	}

	return nil
}
