package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxDocumentSize bounds the discovery document read from the network.
const maxDocumentSize = 1 << 20

// ProviderMetadata holds the OIDC provider metadata published in the
// discovery document.
type ProviderMetadata struct {
	Issuer                string `json:"issuer"`
	JWKSURI               string `json:"jwks_uri,omitempty"`
	TokenEndpoint         string `json:"token_endpoint,omitempty"`
	AuthorizationEndpoint string `json:"authorization_endpoint,omitempty"`
	IntrospectionEndpoint string `json:"introspection_endpoint,omitempty"`
	UserinfoEndpoint      string `json:"userinfo_endpoint,omitempty"`
	EndSessionEndpoint    string `json:"end_session_endpoint,omitempty"`
}

// GetProviderMetadata fetches and decodes the discovery document published
// at discoveryURL.
//
// When expectedIssuer is not empty the issuer advertised by the document must
// match it exactly; this prevents a misconfigured or hostile discovery
// endpoint from swapping the trusted issuer.
func GetProviderMetadata(
	ctx context.Context,
	client *http.Client,
	discoveryURL string,
	expectedIssuer string,
) (*ProviderMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build request to get discovery document: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch discovery document from %s: %w", discoveryURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d while fetching discovery document", resp.StatusCode)
	}

	var metadata ProviderMetadata
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentSize)).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode JSON discovery document: %w", err)
	}

	if metadata.Issuer == "" {
		return nil, fmt.Errorf("discovery document is missing required 'issuer' field")
	}

	if expectedIssuer != "" && metadata.Issuer != expectedIssuer {
		return nil, fmt.Errorf(
			"issuer mismatch: discovery document advertises %q but %q is configured",
			metadata.Issuer,
			expectedIssuer,
		)
	}

	return &metadata, nil
}
