// Package tokentest issues signed tokens and matching provider configuration
// for tests.
package tokentest

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/require"

	"github.com/roleguard/roleguard/provider"
)

// DefaultIssuer is the issuer used by NewIssuer.
const DefaultIssuer = "https://issuer.example"

// Issuer signs tokens with an RSA key published under KeyID.
type Issuer struct {
	URL     string
	KeyID   string
	private jwk.Key
	public  jwk.Set
}

// NewIssuer generates a fresh RS256 key registered as "k1".
func NewIssuer(t testing.TB) *Issuer {
	t.Helper()
	return NewIssuerWithKeyID(t, "k1")
}

// NewIssuerWithKeyID is like NewIssuer but publishes the key under kid.
func NewIssuerWithKeyID(t testing.TB, kid string) *Issuer {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	key, err := jwk.Import(privateKey)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, kid))

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(key))

	return &Issuer{
		URL:     DefaultIssuer,
		KeyID:   kid,
		private: key,
		public:  set,
	}
}

// JWKS returns the key set holding the signing key.
func (i *Issuer) JWKS() jwk.Set {
	return i.public
}

// Config returns a static provider configuration trusting the issuer.
func (i *Issuer) Config() provider.Config {
	return provider.Config{
		Issuer: i.URL,
		JWKS:   i.public,
	}
}

// Token returns a token valid for an hour whose resource_access grants the
// given raw roles on the "api" resource. Without roles the claim is omitted.
func (i *Issuer) Token(t testing.TB, roles ...string) string {
	t.Helper()

	token := jwt.New()
	require.NoError(t, token.Set(jwt.IssuerKey, i.URL))
	require.NoError(t, token.Set(jwt.SubjectKey, "user-1"))
	require.NoError(t, token.Set(jwt.IssuedAtKey, time.Now()))
	require.NoError(t, token.Set(jwt.ExpirationKey, time.Now().Add(time.Hour)))
	if len(roles) > 0 {
		require.NoError(t, token.Set("resource_access", map[string]any{
			"api": map[string]any{"roles": roles},
		}))
	}

	return i.sign(t, token)
}

// ExpiredToken returns a token that expired a minute ago.
func (i *Issuer) ExpiredToken(t testing.TB, roles ...string) string {
	t.Helper()

	token := jwt.New()
	require.NoError(t, token.Set(jwt.IssuerKey, i.URL))
	require.NoError(t, token.Set(jwt.ExpirationKey, time.Now().Add(-time.Minute)))
	require.NoError(t, token.Set("resource_access", map[string]any{
		"api": map[string]any{"roles": roles},
	}))

	return i.sign(t, token)
}

func (i *Issuer) sign(t testing.TB, token jwt.Token) string {
	t.Helper()

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256(), i.private))
	require.NoError(t, err)
	return string(signed)
}
