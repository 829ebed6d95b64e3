package grpc

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/roleguard/roleguard/core"
)

// ErrorHandler converts a denial reason to a gRPC status error.
type ErrorHandler func(error) error

// DefaultErrorHandler maps denial reasons to gRPC status codes. Messages
// stay generic; the detailed reason is only logged.
func DefaultErrorHandler(err error) error {
	if err == nil {
		return nil
	}

	code := core.CodeOf(err)
	switch core.KindOf(err) {
	case core.KindInvalidJWT:
		switch code {
		case core.ErrorCodeTokenMissing:
			return status.Error(codes.Unauthenticated, "missing credentials")
		case core.ErrorCodeTokenMalformed:
			return status.Error(codes.InvalidArgument, "malformed token")
		default:
			return status.Error(codes.Unauthenticated, "invalid token")
		}
	case core.KindInvalidPublicKey:
		return status.Error(codes.Unauthenticated, "unable to verify token")
	case core.KindJWTDecode:
		return status.Error(codes.Unauthenticated, jwtDecodeMessage(code))
	case core.KindUnauthorized:
		return status.Error(codes.Unauthenticated, "missing credentials")
	case core.KindInvalidRoles:
		return status.Error(codes.PermissionDenied, "insufficient roles")
	default:
		return status.Error(codes.Internal, "authorization is misconfigured")
	}
}

func jwtDecodeMessage(code string) string {
	switch code {
	case core.ErrorCodeTokenExpired:
		return "token expired"
	case core.ErrorCodeExpiryMissing:
		return "token has no expiry"
	case core.ErrorCodeTokenNotYetValid:
		return "token not yet valid"
	case core.ErrorCodeInvalidSignature:
		return "invalid signature"
	case core.ErrorCodeInvalidAlgorithm:
		return "invalid algorithm"
	case core.ErrorCodeInvalidIssuer:
		return "invalid issuer"
	default:
		return "invalid token"
	}
}
