package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roleguard/roleguard/core"
	"github.com/roleguard/roleguard/internal/tokentest"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
		want OAuth2
	}{
		{
			name: "empty document",
			yaml: "",
			want: OAuth2{Enabled: true},
		},
		{
			name: "canonical names",
			yaml: `
security:
  oauth2:
    issuer: https://issuer.example
    token_endpoint: https://issuer.example/token
    jwks_uri: https://issuer.example/certs
    discovery_enabled: true
    discovery_url: https://issuer.example/.well-known/openid-configuration
    discovery_timeout: 3s
`,
			want: OAuth2{
				Enabled:          true,
				Issuer:           "https://issuer.example",
				TokenEndpoint:    "https://issuer.example/token",
				JWKSURI:          "https://issuer.example/certs",
				DiscoveryEnabled: true,
				DiscoveryURL:     "https://issuer.example/.well-known/openid-configuration",
				DiscoveryTimeout: 3 * time.Second,
			},
		},
		{
			name: "aliases",
			yaml: `
security:
  oauth2:
    issuer_endpoint: https://issuer.example
    token_uri: https://issuer.example/token
    jwks_endpoint: https://issuer.example/certs
    discovery_endpoint: https://issuer.example/.well-known/openid-configuration
    authorization_endpoint: https://issuer.example/auth
    introspection_endpoint: https://issuer.example/introspect
    userinfo_endpoint: https://issuer.example/userinfo
    end_session_endpoint: https://issuer.example/logout
`,
			want: OAuth2{
				Enabled:               true,
				Issuer:                "https://issuer.example",
				TokenEndpoint:         "https://issuer.example/token",
				AuthorizationEndpoint: "https://issuer.example/auth",
				IntrospectionEndpoint: "https://issuer.example/introspect",
				UserInfoEndpoint:      "https://issuer.example/userinfo",
				EndSessionEndpoint:    "https://issuer.example/logout",
				JWKSURI:               "https://issuer.example/certs",
				DiscoveryURL:          "https://issuer.example/.well-known/openid-configuration",
			},
		},
		{
			name: "issuer_uri alias",
			yaml: `
security:
  oauth2:
    issuer_uri: https://issuer.example
`,
			want: OAuth2{Enabled: true, Issuer: "https://issuer.example"},
		},
		{
			name: "disabled",
			yaml: `
security:
  oauth2:
    enabled: false
    issuer: https://issuer.example
`,
			want: OAuth2{Issuer: "https://issuer.example"},
		},
		{
			name: "jwks as string",
			yaml: `
security:
  oauth2:
    issuer: https://issuer.example
    jwks: '{"keys":[]}'
`,
			want: OAuth2{Enabled: true, Issuer: "https://issuer.example", JWKS: `{"keys":[]}`},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			settings, err := Parse([]byte(testCase.yaml))
			require.NoError(t, err)

			if diff := cmp.Diff(testCase.want, settings.Security.OAuth2); diff != "" {
				t.Errorf("settings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"invalid yaml":     "security: [",
		"jwks as sequence": "security:\n  oauth2:\n    jwks: [1, 2]\n",
		"bad timeout":      "security:\n  oauth2:\n    discovery_timeout: soon\n",
		"timeout too long": "security:\n  oauth2:\n    discovery_timeout: 10m\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrConfiguration)
		})
	}
}

func TestInlineJWKSMapping(t *testing.T) {
	issuer := tokentest.NewIssuer(t)
	buf, err := json.Marshal(issuer.JWKS())
	require.NoError(t, err)

	// JSON is valid YAML, so the key set can be embedded as a flow mapping.
	doc := "security:\n  oauth2:\n    issuer: " + issuer.URL + "\n    jwks: " + string(buf) + "\n"

	settings, err := Parse([]byte(doc))
	require.NoError(t, err)

	cfg, err := settings.ProviderConfig()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.KeyCount())
	assert.Equal(t, issuer.URL, cfg.Issuer)
	assert.False(t, cfg.Disabled)

	key, ok := cfg.JWKS.Key(0)
	require.True(t, ok)
	kid, ok := key.KeyID()
	require.True(t, ok)
	assert.Equal(t, "k1", kid)
}

func TestProviderConfig_Disabled(t *testing.T) {
	settings, err := Parse([]byte("security:\n  oauth2:\n    enabled: false\n    issuer: https://issuer.example\n"))
	require.NoError(t, err)

	cfg, err := settings.ProviderConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Disabled)
}

func TestProviderConfig_InvalidJWKS(t *testing.T) {
	settings := &Settings{Security: Security{OAuth2: OAuth2{Issuer: "https://issuer.example", JWKS: "not json"}}}

	_, err := settings.ProviderConfig()
	assert.ErrorIs(t, err, core.ErrInvalidPublicKey)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvIssuerURI:        "https://env.example",
		EnvDiscoveryURL:     "https://env.example/.well-known/openid-configuration",
		EnvDiscoveryEnabled: "true",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	settings, err := Parse([]byte("security:\n  oauth2:\n    issuer: https://file.example\n"))
	require.NoError(t, err)
	require.NoError(t, settings.applyEnv(lookup))

	oauth := settings.Security.OAuth2
	assert.Equal(t, "https://env.example", oauth.Issuer)
	assert.Equal(t, "https://env.example/.well-known/openid-configuration", oauth.DiscoveryURL)
	assert.True(t, oauth.DiscoveryEnabled)

	env[EnvDiscoveryEnabled] = "maybe"
	assert.ErrorIs(t, settings.applyEnv(lookup), core.ErrConfiguration)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roleguard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("security:\n  oauth2:\n    issuer: https://file.example\n"), 0o600))

	t.Setenv(EnvIssuerURI, "")
	t.Setenv(EnvDiscoveryURL, "https://env.example/discovery")
	t.Setenv(EnvDiscoveryEnabled, "")

	settings, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example", settings.Security.OAuth2.Issuer)
	assert.Equal(t, "https://env.example/discovery", settings.Security.OAuth2.DiscoveryURL)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, core.ErrConfiguration)
}
