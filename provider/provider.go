package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/roleguard/roleguard/core"
	"github.com/roleguard/roleguard/internal/oidc"
	"github.com/roleguard/roleguard/keystore"
)

type resolver struct {
	client  *http.Client
	timeout time.Duration
	logger  core.Logger
}

// Resolve turns the static configuration into the configuration the engine
// runs with.
//
// When discovery is enabled and a discovery URL is set, the discovery
// document is fetched and, if it advertises a jwks_uri, the key set behind
// it. On success the discovered values replace the static ones wholesale.
// Any failure along the way is logged and the static configuration is used
// unchanged; no partial merge happens.
//
// The result must carry an issuer, otherwise a Configuration error is
// returned. Resolve performs at most two network calls and never retries.
func Resolve(ctx context.Context, static Config, opts ...Option) (*Config, error) {
	r := &resolver{
		client:  &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, core.NewError(core.KindConfiguration, core.ErrorCodeConfigInvalid, "invalid resolver option", err)
		}
	}

	resolved := static
	switch {
	case !static.DiscoveryEnabled:
	case static.DiscoveryURL == "":
		r.warn("Discovery enabled but no discovery URL configured, using static configuration")
	default:
		discovered, err := r.discover(ctx, static)
		if err != nil {
			r.warn("OAuth2 discovery failed, falling back to static configuration",
				"discovery_url", static.DiscoveryURL,
				"error", err)
		} else {
			resolved = *discovered
			r.info("Resolved provider configuration from discovery",
				"issuer", resolved.Issuer,
				"jwks_uri", resolved.JWKSURI,
				"keys", resolved.KeyCount())
		}
	}

	if err := resolved.Validate(); err != nil {
		return nil, err
	}
	return &resolved, nil
}

func (r *resolver) discover(ctx context.Context, static Config) (*Config, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.info("Fetching OAuth2 discovery document", "discovery_url", static.DiscoveryURL)

	metadata, err := oidc.GetProviderMetadata(ctx, r.client, static.DiscoveryURL, static.Issuer)
	if err != nil {
		return nil, err
	}

	discovered := &Config{
		Disabled:              static.Disabled,
		Issuer:                metadata.Issuer,
		TokenEndpoint:         metadata.TokenEndpoint,
		AuthorizationEndpoint: metadata.AuthorizationEndpoint,
		IntrospectionEndpoint: metadata.IntrospectionEndpoint,
		UserInfoEndpoint:      metadata.UserinfoEndpoint,
		EndSessionEndpoint:    metadata.EndSessionEndpoint,
		JWKSURI:               metadata.JWKSURI,
		DiscoveryEnabled:      true,
		DiscoveryURL:          static.DiscoveryURL,
	}

	if metadata.JWKSURI != "" {
		set, err := keystore.Fetch(ctx, r.client, metadata.JWKSURI)
		if err != nil {
			return nil, fmt.Errorf("jwks_uri %s: %w", metadata.JWKSURI, err)
		}
		discovered.JWKS = set
	}

	return discovered, nil
}

func (r *resolver) info(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *resolver) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
