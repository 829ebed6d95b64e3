package validator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"

	"github.com/roleguard/roleguard/core"
	"github.com/roleguard/roleguard/keystore"
)

// SignatureAlgorithm is a JWS signature algorithm name as it appears in the
// token header.
type SignatureAlgorithm string

// Signature algorithms
const (
	EdDSA = SignatureAlgorithm("EdDSA")
	HS256 = SignatureAlgorithm("HS256") // HMAC using SHA-256
	HS384 = SignatureAlgorithm("HS384") // HMAC using SHA-384
	HS512 = SignatureAlgorithm("HS512") // HMAC using SHA-512
	RS256 = SignatureAlgorithm("RS256") // RSASSA-PKCS-v1.5 using SHA-256
	RS384 = SignatureAlgorithm("RS384") // RSASSA-PKCS-v1.5 using SHA-384
	RS512 = SignatureAlgorithm("RS512") // RSASSA-PKCS-v1.5 using SHA-512
	ES256 = SignatureAlgorithm("ES256") // ECDSA using P-256 and SHA-256
	ES384 = SignatureAlgorithm("ES384") // ECDSA using P-384 and SHA-384
	ES512 = SignatureAlgorithm("ES512") // ECDSA using P-521 and SHA-512
	PS256 = SignatureAlgorithm("PS256") // RSASSA-PSS using SHA256 and MGF1-SHA256
	PS384 = SignatureAlgorithm("PS384") // RSASSA-PSS using SHA384 and MGF1-SHA384
	PS512 = SignatureAlgorithm("PS512") // RSASSA-PSS using SHA512 and MGF1-SHA512
)

// algorithmSpec ties a header algorithm to its jwa value and to the key type
// it may be verified with.
type algorithmSpec struct {
	alg     jwa.SignatureAlgorithm
	keyType string
}

var allowedSigningAlgorithms = map[SignatureAlgorithm]algorithmSpec{
	EdDSA: {alg: jwa.EdDSA(), keyType: "OKP"},
	HS256: {alg: jwa.HS256(), keyType: "oct"},
	HS384: {alg: jwa.HS384(), keyType: "oct"},
	HS512: {alg: jwa.HS512(), keyType: "oct"},
	RS256: {alg: jwa.RS256(), keyType: "RSA"},
	RS384: {alg: jwa.RS384(), keyType: "RSA"},
	RS512: {alg: jwa.RS512(), keyType: "RSA"},
	ES256: {alg: jwa.ES256(), keyType: "EC"},
	ES384: {alg: jwa.ES384(), keyType: "EC"},
	ES512: {alg: jwa.ES512(), keyType: "EC"},
	PS256: {alg: jwa.PS256(), keyType: "RSA"},
	PS384: {alg: jwa.PS384(), keyType: "RSA"},
	PS512: {alg: jwa.PS512(), keyType: "RSA"},
}

// Validator verifies bearer tokens against a key store and an expected
// issuer. It holds no mutable state and is safe for concurrent use.
type Validator struct {
	keys             *keystore.KeyStore // Required.
	issuer           string             // Required.
	allowedClockSkew time.Duration      // Optional.
	now              func() time.Time   // Optional.
}

// header is the subset of the JOSE header the validator inspects before
// verification.
type header struct {
	Algorithm string `json:"alg"`
	KeyID     string `json:"kid"`
	Type      string `json:"typ,omitempty"`
}

// New sets up a new Validator with the provided options.
//
// Required options:
//   - WithKeyStore: the verification keys
//   - WithIssuer: the expected issuer
//
// Optional options:
//   - WithAllowedClockSkew: tolerance for exp and nbf
//   - WithClock: time source, mainly for tests
//
// Example:
//
//	v, err := validator.New(
//	    validator.WithKeyStore(ks),
//	    validator.WithIssuer("https://issuer.example"),
//	)
func New(opts ...Option) (*Validator, error) {
	v := &Validator{now: time.Now}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, core.NewError(core.KindConfiguration, core.ErrorCodeConfigInvalid, "invalid validator option", err)
		}
	}

	if v.keys == nil {
		return nil, core.NewError(core.KindConfiguration, core.ErrorCodeConfigInvalid,
			"key store is required but not set (use WithKeyStore option)", nil)
	}
	if v.issuer == "" {
		return nil, core.NewError(core.KindConfiguration, core.ErrorCodeConfigInvalid,
			"issuer is required but not set (use WithIssuer option)", nil)
	}

	return v, nil
}

// ValidateToken verifies the token and returns its claims together with the
// normalized role set. Each step short-circuits:
//
//  1. the header is decoded and must carry a kid (InvalidJwt)
//  2. the kid must resolve in the key store (InvalidPublicKey)
//  3. the header alg must suit the key and the signature must verify (JWTDecode)
//  4. exp is mandatory and must lie in the future, nbf must have passed and
//     iss must equal the configured issuer exactly (JWTDecode)
//
// A token without resource_access yields an empty role set.
func (v *Validator) ValidateToken(_ context.Context, tokenString string) (*core.Claims, error) {
	if err := validateTokenFormat(tokenString); err != nil {
		return nil, core.NewError(core.KindInvalidJWT, core.ErrorCodeTokenMalformed, "token format is invalid", err)
	}

	hdr, err := parseHeader(tokenString)
	if err != nil {
		return nil, err
	}

	key, ok := v.keys.Find(hdr.KeyID)
	if !ok {
		return nil, core.Errorf(core.KindInvalidPublicKey, core.ErrorCodeKeyNotFound, "no key found for kid %q", hdr.KeyID)
	}

	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, core.NewError(core.KindInvalidPublicKey, core.ErrorCodeKeyInvalid,
			fmt.Sprintf("key material for kid %q is unusable", hdr.KeyID), err)
	}

	spec, err := algorithmFor(hdr.Algorithm, key)
	if err != nil {
		return nil, err
	}

	payload, err := jws.Verify([]byte(tokenString), jws.WithKey(spec.alg, key))
	if err != nil {
		return nil, core.NewError(core.KindJWTDecode, core.ErrorCodeInvalidSignature, "could not verify token signature", err)
	}

	var claims tokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, core.NewError(core.KindJWTDecode, core.ErrorCodeInvalidClaims, "could not decode token claims", err)
	}

	if err := v.validateClaims(&claims); err != nil {
		return nil, err
	}

	return claims.toCore(), nil
}

func parseHeader(tokenString string) (*header, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, core.Errorf(core.KindInvalidJWT, core.ErrorCodeTokenMalformed,
			"token must have three segments, found %d", len(parts))
	}

	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[0], "="))
	if err != nil {
		return nil, core.NewError(core.KindInvalidJWT, core.ErrorCodeTokenMalformed, "could not decode token header", err)
	}

	var hdr header
	if err := json.Unmarshal(data, &hdr); err != nil {
		return nil, core.NewError(core.KindInvalidJWT, core.ErrorCodeTokenMalformed, "could not parse token header", err)
	}

	if hdr.KeyID == "" {
		return nil, core.NewError(core.KindInvalidJWT, core.ErrorCodeKeyIDMissing, "token header has no kid", nil)
	}

	return &hdr, nil
}

// algorithmFor rejects algorithms the key cannot serve: unknown or "none"
// algorithms, a key type from another family, or a key pinned to a
// different alg.
func algorithmFor(alg string, key jwk.Key) (algorithmSpec, error) {
	spec, ok := allowedSigningAlgorithms[SignatureAlgorithm(alg)]
	if !ok {
		return algorithmSpec{}, core.Errorf(core.KindJWTDecode, core.ErrorCodeInvalidAlgorithm,
			"unsupported signing algorithm %q", alg)
	}

	if kty := key.KeyType().String(); kty != spec.keyType {
		return algorithmSpec{}, core.Errorf(core.KindJWTDecode, core.ErrorCodeInvalidAlgorithm,
			"signing algorithm %q cannot be used with a %s key", alg, kty)
	}

	if keyAlg, ok := key.Algorithm(); ok && keyAlg.String() != "" && keyAlg.String() != alg {
		return algorithmSpec{}, core.Errorf(core.KindJWTDecode, core.ErrorCodeInvalidAlgorithm,
			"expected %q signing algorithm but token specified %q", keyAlg.String(), alg)
	}

	return spec, nil
}

func (v *Validator) validateClaims(claims *tokenClaims) error {
	now := v.now()

	if claims.Expiry == nil {
		return core.NewError(core.KindJWTDecode, core.ErrorCodeExpiryMissing, "token has no exp claim", nil)
	}

	// exp is exclusive: a token expiring at the current second is expired.
	if !now.Add(-v.allowedClockSkew).Before(time.Unix(claims.Expiry.unix(), 0)) {
		return core.NewError(core.KindJWTDecode, core.ErrorCodeTokenExpired, "token is expired", nil)
	}

	if claims.NotBefore != nil && now.Add(v.allowedClockSkew).Before(time.Unix(claims.NotBefore.unix(), 0)) {
		return core.NewError(core.KindJWTDecode, core.ErrorCodeTokenNotYetValid, "token is not valid yet", nil)
	}

	if claims.Issuer != v.issuer {
		return core.Errorf(core.KindJWTDecode, core.ErrorCodeInvalidIssuer,
			"expected issuer %q but token specified %q", v.issuer, claims.Issuer)
	}

	return nil
}
