// Package config loads the static provider settings from YAML.
//
//	security:
//	  oauth2:
//	    issuer_uri: https://issuer.example
//	    discovery_enabled: true
//	    discovery_url: https://issuer.example/.well-known/openid-configuration
//	    discovery_timeout: 5s
//
// discovery_timeout is capped at provider.MaxTimeout.
//
// Static settings are the fallback when discovery fails, so they should name
// at least the issuer.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"gopkg.in/yaml.v3"

	"github.com/roleguard/roleguard/core"
	"github.com/roleguard/roleguard/provider"
)

// Environment variables overriding the file.
const (
	EnvIssuerURI        = "ROLEGUARD_ISSUER_URI"
	EnvDiscoveryURL     = "ROLEGUARD_DISCOVERY_URL"
	EnvDiscoveryEnabled = "ROLEGUARD_DISCOVERY_ENABLED"
)

// Settings is the root of the configuration file.
type Settings struct {
	Security Security `yaml:"security"`
}

// Security groups the security settings.
type Security struct {
	OAuth2 OAuth2 `yaml:"oauth2"`
}

// OAuth2 holds the static provider settings.
type OAuth2 struct {
	Enabled               bool
	Issuer                string
	TokenEndpoint         string
	AuthorizationEndpoint string
	IntrospectionEndpoint string
	UserInfoEndpoint      string
	EndSessionEndpoint    string
	JWKSURI               string
	// JWKS is the inline key set as JSON.
	JWKS             string
	DiscoveryEnabled bool
	DiscoveryURL     string
	DiscoveryTimeout time.Duration
}

// rawOAuth2 mirrors the file layout, aliases included.
type rawOAuth2 struct {
	Enabled *bool `yaml:"enabled"`

	Issuer         string `yaml:"issuer"`
	IssuerURI      string `yaml:"issuer_uri"`
	IssuerEndpoint string `yaml:"issuer_endpoint"`

	TokenEndpoint string `yaml:"token_endpoint"`
	TokenURI      string `yaml:"token_uri"`

	AuthorizationEndpoint string `yaml:"authorization_endpoint"`
	IntrospectionEndpoint string `yaml:"introspection_endpoint"`
	UserInfoEndpoint      string `yaml:"userinfo_endpoint"`
	EndSessionEndpoint    string `yaml:"end_session_endpoint"`

	JWKSURI      string    `yaml:"jwks_uri"`
	JWKSEndpoint string    `yaml:"jwks_endpoint"`
	JWKS         yaml.Node `yaml:"jwks"`

	DiscoveryEnabled  bool          `yaml:"discovery_enabled"`
	DiscoveryURL      string        `yaml:"discovery_url"`
	DiscoveryEndpoint string        `yaml:"discovery_endpoint"`
	DiscoveryTimeout  time.Duration `yaml:"discovery_timeout"`
}

// UnmarshalYAML resolves the field aliases. Security is enabled unless the
// file says otherwise.
func (o *OAuth2) UnmarshalYAML(node *yaml.Node) error {
	var raw rawOAuth2
	if err := node.Decode(&raw); err != nil {
		return err
	}

	jwks, err := jwksJSON(&raw.JWKS)
	if err != nil {
		return err
	}

	if raw.DiscoveryTimeout < 0 || raw.DiscoveryTimeout > provider.MaxTimeout {
		return fmt.Errorf("discovery_timeout must be between 0 and %s", provider.MaxTimeout)
	}

	*o = OAuth2{
		Enabled:               raw.Enabled == nil || *raw.Enabled,
		Issuer:                firstOf(raw.Issuer, raw.IssuerURI, raw.IssuerEndpoint),
		TokenEndpoint:         firstOf(raw.TokenEndpoint, raw.TokenURI),
		AuthorizationEndpoint: raw.AuthorizationEndpoint,
		IntrospectionEndpoint: raw.IntrospectionEndpoint,
		UserInfoEndpoint:      raw.UserInfoEndpoint,
		EndSessionEndpoint:    raw.EndSessionEndpoint,
		JWKSURI:               firstOf(raw.JWKSURI, raw.JWKSEndpoint),
		JWKS:                  jwks,
		DiscoveryEnabled:      raw.DiscoveryEnabled,
		DiscoveryURL:          firstOf(raw.DiscoveryURL, raw.DiscoveryEndpoint),
		DiscoveryTimeout:      raw.DiscoveryTimeout,
	}
	return nil
}

// jwksJSON accepts the key set either as a JSON string or as a YAML mapping.
func jwksJSON(node *yaml.Node) (string, error) {
	switch node.Kind {
	case 0:
		return "", nil
	case yaml.ScalarNode:
		return node.Value, nil
	case yaml.MappingNode:
		var set map[string]any
		if err := node.Decode(&set); err != nil {
			return "", err
		}
		buf, err := json.Marshal(set)
		if err != nil {
			return "", fmt.Errorf("could not encode jwks: %w", err)
		}
		return string(buf), nil
	default:
		return "", fmt.Errorf("line %d: jwks must be a JSON string or a mapping", node.Line)
	}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Load reads a YAML file and applies the environment overrides.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewError(core.KindConfiguration, core.ErrorCodeConfigInvalid,
			fmt.Sprintf("could not read %s", path), err)
	}

	settings, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := settings.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return settings, nil
}

// Parse decodes YAML settings. An empty document yields enabled security
// with nothing else set.
func Parse(data []byte) (*Settings, error) {
	settings := &Settings{Security: Security{OAuth2: OAuth2{Enabled: true}}}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, core.NewError(core.KindConfiguration, core.ErrorCodeConfigInvalid,
			"could not parse settings", err)
	}
	return settings, nil
}

func (s *Settings) applyEnv(lookup func(string) (string, bool)) error {
	oauth := &s.Security.OAuth2
	if v, ok := lookup(EnvIssuerURI); ok && v != "" {
		oauth.Issuer = v
	}
	if v, ok := lookup(EnvDiscoveryURL); ok && v != "" {
		oauth.DiscoveryURL = v
	}
	if v, ok := lookup(EnvDiscoveryEnabled); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return core.NewError(core.KindConfiguration, core.ErrorCodeConfigInvalid,
				fmt.Sprintf("invalid %s", EnvDiscoveryEnabled), err)
		}
		oauth.DiscoveryEnabled = enabled
	}
	return nil
}

// ProviderConfig converts the settings into the static provider
// configuration handed to provider.Resolve.
func (s *Settings) ProviderConfig() (provider.Config, error) {
	oauth := s.Security.OAuth2
	cfg := provider.Config{
		Disabled:              !oauth.Enabled,
		Issuer:                oauth.Issuer,
		TokenEndpoint:         oauth.TokenEndpoint,
		AuthorizationEndpoint: oauth.AuthorizationEndpoint,
		IntrospectionEndpoint: oauth.IntrospectionEndpoint,
		UserInfoEndpoint:      oauth.UserInfoEndpoint,
		EndSessionEndpoint:    oauth.EndSessionEndpoint,
		JWKSURI:               oauth.JWKSURI,
		DiscoveryEnabled:      oauth.DiscoveryEnabled,
		DiscoveryURL:          oauth.DiscoveryURL,
	}

	if oauth.JWKS != "" {
		set, err := jwk.Parse([]byte(oauth.JWKS))
		if err != nil {
			return provider.Config{}, core.NewError(core.KindInvalidPublicKey, core.ErrorCodeKeyInvalid,
				"could not parse inline jwks", err)
		}
		cfg.JWKS = set
	}

	return cfg, nil
}
