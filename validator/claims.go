package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"

	"github.com/roleguard/roleguard/core"
)

// tokenClaims is the wire form of the payload. Time claims are decoded
// through numericDate so both integer and fractional seconds are accepted,
// and presence can be told apart from zero.
type tokenClaims struct {
	Issuer         string                         `json:"iss"`
	Subject        string                         `json:"sub"`
	Audience       audience                       `json:"aud"`
	Expiry         *numericDate                   `json:"exp"`
	NotBefore      *numericDate                   `json:"nbf"`
	IssuedAt       *numericDate                   `json:"iat"`
	Scope          string                         `json:"scope"`
	ResourceAccess map[string]core.ResourceAccess `json:"resource_access"`
}

// numericDate is a JSON number of seconds since the epoch.
type numericDate int64

func (n *numericDate) UnmarshalJSON(data []byte) error {
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return errors.New("expected a numeric date")
	}

	if i, err := num.Int64(); err == nil {
		*n = numericDate(i)
		return nil
	}

	f, err := num.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return errors.New("expected a numeric date")
	}
	*n = numericDate(math.Floor(f))
	return nil
}

func (n *numericDate) unix() int64 {
	if n == nil {
		return 0
	}
	return int64(*n)
}

// audience accepts both the single string and the array form of "aud".
type audience []string

func (a *audience) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = audience{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("expected a string or an array of strings")
	}
	*a = many
	return nil
}

// roles flattens every resource_access entry into one normalized set.
func (c *tokenClaims) roles() core.RoleSet {
	roles := core.NewRoleSet()
	for _, access := range c.ResourceAccess {
		for _, role := range access.Roles {
			roles[core.NormalizeRole(role)] = struct{}{}
		}
	}
	return roles
}

func (c *tokenClaims) toCore() *core.Claims {
	return &core.Claims{
		Issuer:         c.Issuer,
		Subject:        c.Subject,
		Audience:       c.Audience,
		Expiry:         c.Expiry.unix(),
		NotBefore:      c.NotBefore.unix(),
		IssuedAt:       c.IssuedAt.unix(),
		Scope:          c.Scope,
		ResourceAccess: c.ResourceAccess,
		Roles:          c.roles(),
	}
}
