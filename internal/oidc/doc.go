/*
Package oidc provides OIDC (OpenID Connect) discovery functionality.

This internal package fetches and decodes the provider metadata document
published by an identity provider, usually at:

	https://issuer.example.com/.well-known/openid-configuration

The document contains metadata about the provider, including:
  - issuer: The issuer identifier
  - jwks_uri: URL to fetch JSON Web Keys
  - token_endpoint: OAuth 2.0 token endpoint
  - And more...

# Usage

	client := &http.Client{Timeout: 10 * time.Second}

	metadata, err := oidc.GetProviderMetadata(ctx, client, discoveryURL, "")
	if err != nil {
	    // Handle error
	}

	jwksURI := metadata.JWKSURI

# Error Handling

GetProviderMetadata returns an error for network failures, non-200
responses, malformed JSON, a document without an issuer, and an issuer that
does not match the expected one. It never retries; the caller decides what a
failure means (the provider package falls back to static configuration).
*/
package oidc
