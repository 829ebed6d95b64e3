/*
Package validator verifies bearer tokens using the lestrrat-go/jwx v3 library
and extracts the caller's normalized role set.

# Validation Steps

ValidateToken runs these steps in order and stops at the first failure:

 1. Reject empty, oversized or excessively dotted input (InvalidJwt).
 2. Decode the header without verifying it. A missing kid is rejected
    outright rather than trying every known key (InvalidJwt).
 3. Resolve the kid in the key store (InvalidPublicKey).
 4. Check that the header alg belongs to the key's family and, when the
    key pins an alg, that they are equal; "none" is never accepted
    (JWTDecode).
 5. Verify the signature (JWTDecode).
 6. Require exp in the future, nbf in the past when present, and iss equal
    to the configured issuer (JWTDecode).
 7. Flatten resource_access.<resource>.roles into a RoleSet.

Every failure is a *core.Error; use core.KindOf or errors.Is with the core
sentinels to classify it.

# Supported Algorithms

HMAC:
  - HS256, HS384, HS512 (oct keys)

RSA:
  - RS256, RS384, RS512 (RSASSA-PKCS1-v1_5)
  - PS256, PS384, PS512 (RSASSA-PSS)

ECDSA:
  - ES256, ES384, ES512

EdDSA:
  - EdDSA (Ed25519, OKP keys)

# Basic Usage

	ks, err := keystore.New(cfg.JWKS)
	if err != nil {
	    log.Fatal(err)
	}

	v, err := validator.New(
	    validator.WithKeyStore(ks),
	    validator.WithIssuer(cfg.Issuer),
	    validator.WithAllowedClockSkew(30*time.Second),
	)
	if err != nil {
	    log.Fatal(err)
	}

	claims, err := v.ValidateToken(ctx, rawToken)
	if err != nil {
	    // core.KindOf(err) tells InvalidJwt, InvalidPublicKey and JWTDecode apart
	}

	fmt.Println(claims.Roles.Sorted())

# Role Normalization

Each raw role is uppercased, "-" and " " become "_", and "ROLE_" is
prepended unless already present: "some-role" becomes "ROLE_SOME_ROLE".
*/
package validator
