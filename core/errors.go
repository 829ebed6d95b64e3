package core

import (
	"errors"
	"fmt"
)

// Kind classifies an authorization failure so the calling layer can choose its
// own status mapping.
type Kind int

const (
	// KindUnknown is reported for errors that did not originate in this module.
	KindUnknown Kind = iota
	// KindConfiguration means issuer or required provider metadata is missing.
	KindConfiguration
	// KindInvalidJWT means the token header is malformed or has no key identifier.
	KindInvalidJWT
	// KindInvalidPublicKey means the key id is unknown or its key material is unusable.
	KindInvalidPublicKey
	// KindJWTDecode means the signature, exp or iss check failed.
	KindJWTDecode
	// KindRoleAuthorizationParse means a policy expression is malformed.
	KindRoleAuthorizationParse
	// KindInvalidRoles means the caller is authenticated but lacks the required roles.
	KindInvalidRoles
	// KindUnauthorized means no usable credentials reached the engine.
	KindUnauthorized
)

// Sentinel errors, one per Kind. An *Error matches the sentinel of its kind
// with errors.Is.
var (
	ErrConfiguration          = errors.New("invalid oauth2 configuration")
	ErrInvalidJWT             = errors.New("invalid jwt token")
	ErrInvalidPublicKey       = errors.New("invalid server public key")
	ErrJWTDecode              = errors.New("jwt decode error")
	ErrRoleAuthorizationParse = errors.New("error parsing authorization")
	ErrInvalidRoles           = errors.New("invalid roles")
	ErrUnauthorized           = errors.New("unauthorized")
)

var sentinels = map[Kind]error{
	KindConfiguration:          ErrConfiguration,
	KindInvalidJWT:             ErrInvalidJWT,
	KindInvalidPublicKey:       ErrInvalidPublicKey,
	KindJWTDecode:              ErrJWTDecode,
	KindRoleAuthorizationParse: ErrRoleAuthorizationParse,
	KindInvalidRoles:           ErrInvalidRoles,
	KindUnauthorized:           ErrUnauthorized,
}

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "Configuration"
	case KindInvalidJWT:
		return "InvalidJwt"
	case KindInvalidPublicKey:
		return "InvalidPublicKey"
	case KindJWTDecode:
		return "JWTDecode"
	case KindRoleAuthorizationParse:
		return "RoleAuthorizationParse"
	case KindInvalidRoles:
		return "InvalidRoles"
	case KindUnauthorized:
		return "Unauthorized"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by every component of the engine.
// It provides structured information that can be used for logging,
// metrics, and choosing an appropriate response.
type Error struct {
	// Kind is the failure class.
	Kind Kind

	// Code is a machine-readable error code (e.g., "token_expired", "key_not_found").
	Code string

	// Message is a human-readable error message.
	Message string

	// Details contains the underlying error, if any.
	Details error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if sentinel, ok := sentinels[e.Kind]; ok {
		msg = sentinel.Error() + ": " + msg
	}
	if e.Details != nil {
		return msg + ": " + e.Details.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Details
}

// Is allows the error to be compared with the sentinel of its kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := sentinels[e.Kind]
	return ok && target == sentinel
}

// Error codes
const (
	ErrorCodeConfigInvalid     = "config_invalid"
	ErrorCodeTokenMissing      = "token_missing"
	ErrorCodeTokenMalformed    = "token_malformed"
	ErrorCodeKeyIDMissing      = "kid_missing"
	ErrorCodeKeyNotFound       = "key_not_found"
	ErrorCodeKeyInvalid        = "key_invalid"
	ErrorCodeInvalidAlgorithm  = "invalid_algorithm"
	ErrorCodeInvalidSignature  = "invalid_signature"
	ErrorCodeTokenExpired      = "token_expired"
	ErrorCodeExpiryMissing     = "exp_missing"
	ErrorCodeTokenNotYetValid  = "token_not_yet_valid"
	ErrorCodeInvalidIssuer     = "invalid_issuer"
	ErrorCodeInvalidClaims     = "invalid_claims"
	ErrorCodePolicyInvalid     = "policy_invalid"
	ErrorCodeNoRoles           = "no_roles"
	ErrorCodeInsufficientRoles = "insufficient_roles"
)

// NewError creates a new *Error of the given kind.
func NewError(kind Kind, code, message string, details error) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Errorf creates a new *Error of the given kind with a formatted message.
func Errorf(kind Kind, code, format string, args ...any) *Error {
	return NewError(kind, code, fmt.Sprintf(format, args...), nil)
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf returns the Code of the first *Error in err's chain, or an empty string.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
