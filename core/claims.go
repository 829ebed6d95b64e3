package core

// ResourceAccess holds the roles granted on a single resource
// (the "resource_access.<name>" entry of the token).
type ResourceAccess struct {
	Roles []string `json:"roles"`
}

// Claims is the verified payload of an access token together with the
// derived role set. Time values are unix seconds; zero means absent.
type Claims struct {
	Issuer         string                    `json:"iss,omitempty"`
	Subject        string                    `json:"sub,omitempty"`
	Audience       []string                  `json:"aud,omitempty"`
	Expiry         int64                     `json:"exp,omitempty"`
	NotBefore      int64                     `json:"nbf,omitempty"`
	IssuedAt       int64                     `json:"iat,omitempty"`
	Scope          string                    `json:"scope,omitempty"`
	ResourceAccess map[string]ResourceAccess `json:"resource_access,omitempty"`

	// Roles is the normalized, flattened view of ResourceAccess.
	Roles RoleSet `json:"-"`
}
