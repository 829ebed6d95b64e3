package provider

import (
	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/roleguard/roleguard/core"
)

// Config describes an identity provider. A resolved Config is never mutated;
// it is safe to share between goroutines.
type Config struct {
	// Disabled turns off policy enforcement in the transport adapters. The
	// zero value enforces. It is carried through discovery unchanged.
	Disabled bool

	// Issuer is the expected "iss" claim. Required once resolved.
	Issuer string

	TokenEndpoint         string
	AuthorizationEndpoint string
	IntrospectionEndpoint string
	UserInfoEndpoint      string
	EndSessionEndpoint    string

	// JWKSURI is where the key set is published. Only fetched during discovery.
	JWKSURI string

	// JWKS is the inline key set used to build the key store.
	JWKS jwk.Set

	// DiscoveryEnabled turns on the OIDC discovery fetch in Resolve.
	DiscoveryEnabled bool

	// DiscoveryURL is the location of the discovery document, typically
	// "<issuer>/.well-known/openid-configuration".
	DiscoveryURL string
}

// Validate reports a Configuration error when the issuer is missing.
func (c *Config) Validate() error {
	if c == nil || c.Issuer == "" {
		return core.NewError(
			core.KindConfiguration,
			core.ErrorCodeConfigInvalid,
			"issuer is required for token validation",
			nil,
		)
	}
	return nil
}

// KeyCount returns the number of keys in the inline key set.
func (c *Config) KeyCount() int {
	if c == nil || c.JWKS == nil {
		return 0
	}
	return c.JWKS.Len()
}
