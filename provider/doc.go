/*
Package provider resolves the identity provider configuration the engine
runs with.

Static settings are the source of truth of last resort. When discovery is
enabled, Resolve fetches the OIDC discovery document and the key set it
points at, once, before any request is served:

	cfg, err := provider.Resolve(ctx, provider.Config{
	    Issuer:           "https://issuer.example",
	    DiscoveryEnabled: true,
	    DiscoveryURL:     "https://issuer.example/.well-known/openid-configuration",
	}, provider.WithTimeout(5*time.Second))

A failed discovery never aborts startup; it is logged and the static
configuration is returned. Resolve only fails when the configuration it
would return has no issuer.
*/
package provider
