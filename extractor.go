package roleguard

import (
	"errors"
	"net/http"
	"strings"
)

// TokenExtractor is a function that takes a request as input and returns
// either a token or an error. An error should only be returned if an attempt
// to specify a token was found, but the information was somehow incorrectly
// formed. In the case where a token is simply not present, this should not
// be treated as an error. An empty string should be returned in that case.
type TokenExtractor func(r *http.Request) (string, error)

// ErrInvalidAuthHeader is returned for an Authorization header that is not
// of the form "Bearer <token>".
var ErrInvalidAuthHeader = errors.New("authorization header format must be Bearer {token}")

// AuthHeaderTokenExtractor is a TokenExtractor that takes a request
// and extracts the token from the Authorization header.
func AuthHeaderTokenExtractor(r *http.Request) (string, error) {
	return BearerToken(r.Header.Get("Authorization"))
}

// BearerToken strips the case-insensitive "Bearer" scheme from an
// Authorization header value. An empty value yields an empty token and no
// error; any other scheme is an error.
func BearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", nil // No error, just no token.
	}

	authHeaderParts := strings.Fields(authHeader)
	if len(authHeaderParts) != 2 || !strings.EqualFold(authHeaderParts[0], "bearer") {
		return "", ErrInvalidAuthHeader
	}

	return authHeaderParts[1], nil
}

// CookieTokenExtractor builds a TokenExtractor that takes a request and
// extracts the token from the cookie using the passed in cookieName.
func CookieTokenExtractor(cookieName string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(cookieName)
		if errors.Is(err, http.ErrNoCookie) {
			return "", nil // No cookie, then no token, so no error.
		}
		if err != nil {
			return "", err
		}

		return cookie.Value, nil
	}
}

// MultiTokenExtractor returns a TokenExtractor that runs multiple TokenExtractors
// and takes the one that does not return an empty token. If a TokenExtractor
// returns an error that error is immediately returned.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) (string, error) {
		for _, ex := range extractors {
			token, err := ex(r)
			if err != nil {
				return "", err
			}

			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}
