package keystore

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

// KeyStore maps key identifiers to public verification keys. It is built
// once and never mutated, so it is safe for concurrent use without locking.
type KeyStore struct {
	keys map[string]jwk.Key
	ids  []string
}

// New builds a KeyStore from a JWK set.
//
// Keys without a "kid" are skipped since tokens can only select keys by id.
// When the same kid appears more than once the first key wins. Private keys
// are reduced to their public half; symmetric keys are kept as-is.
//
// A nil or empty set produces an empty store, against which every lookup
// fails.
func New(set jwk.Set) (*KeyStore, error) {
	ks := &KeyStore{keys: make(map[string]jwk.Key)}
	if set == nil {
		return ks, nil
	}

	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			continue
		}

		kid, ok := key.KeyID()
		if !ok || kid == "" {
			continue
		}
		if _, exists := ks.keys[kid]; exists {
			continue
		}

		pub, err := publicKeyOf(key)
		if err != nil {
			return nil, fmt.Errorf("could not derive public key for kid %q: %w", kid, err)
		}

		ks.keys[kid] = pub
		ks.ids = append(ks.ids, kid)
	}

	sort.Strings(ks.ids)
	return ks, nil
}

// Parse builds a KeyStore from a JWKS document.
func Parse(data []byte) (*KeyStore, error) {
	set, err := jwk.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("could not parse JWKS: %w", err)
	}
	return New(set)
}

// Fetch downloads the JWKS published at jwksURI.
func Fetch(ctx context.Context, client *http.Client, jwksURI string) (jwk.Set, error) {
	if client == nil {
		client = http.DefaultClient
	}

	set, err := jwk.Fetch(ctx, jwksURI, jwk.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("could not fetch JWKS: %w", err)
	}

	return set, nil
}

// Find returns the key registered under kid.
func (ks *KeyStore) Find(kid string) (jwk.Key, bool) {
	if ks == nil {
		return nil, false
	}
	key, ok := ks.keys[kid]
	return key, ok
}

// Len returns the number of keys in the store.
func (ks *KeyStore) Len() int {
	if ks == nil {
		return 0
	}
	return len(ks.keys)
}

// KeyIDs returns the sorted key identifiers held by the store.
func (ks *KeyStore) KeyIDs() []string {
	if ks == nil {
		return nil
	}
	out := make([]string, len(ks.ids))
	copy(out, ks.ids)
	return out
}

func publicKeyOf(key jwk.Key) (jwk.Key, error) {
	if _, ok := key.(jwk.SymmetricKey); ok {
		return key, nil
	}
	return jwk.PublicKeyOf(key)
}
