package roleguard

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/roleguard/roleguard/core"
)

// ErrorHandler is a handler which is called when a request is denied. err is
// the denial reason, normally a *core.Error; core.KindOf(err) tells
// authentication failures apart from missing roles.
//
// If you implement your own ErrorHandler you MUST write a response: the
// middleware does not call the next handler after a denial.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ErrorResponse is the JSON body written by DefaultErrorHandler.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorCode        string `json:"error_code,omitempty"`
}

// DefaultErrorHandler writes an RFC 6750 style response:
//
//   - InvalidJwt, InvalidPublicKey, JWTDecode and Unauthorized: 401 (400 for
//     malformed tokens) with a WWW-Authenticate challenge
//   - InvalidRoles: 403 insufficient_scope
//   - Configuration, RoleAuthorizationParse and anything else: 500
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	status, resp, challenge := ResolveErrorResponse(err)

	w.Header().Set("Content-Type", "application/json")
	if challenge != "" {
		w.Header().Set("WWW-Authenticate", challenge)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// ResolveErrorResponse maps a denial reason to an HTTP status, a response
// body and a WWW-Authenticate challenge. It is shared by the framework
// adapters.
func ResolveErrorResponse(err error) (int, ErrorResponse, string) {
	code := core.CodeOf(err)

	switch core.KindOf(err) {
	case core.KindInvalidJWT:
		switch code {
		case core.ErrorCodeTokenMissing:
			// Per RFC 6750 Section 3.1, when auth is missing, no error codes should be included
			return http.StatusUnauthorized, ErrorResponse{Error: "invalid_token", ErrorCode: code}, "Bearer"
		case core.ErrorCodeTokenMalformed:
			return invalidRequest(code, "The access token is malformed")
		default:
			return invalidToken(code, "The access token has no key identifier")
		}
	case core.KindInvalidPublicKey:
		return invalidToken(code, "Unable to verify the access token")
	case core.KindJWTDecode:
		return invalidToken(code, jwtDecodeDescription(code))
	case core.KindUnauthorized:
		return http.StatusUnauthorized, ErrorResponse{Error: "invalid_token", ErrorCode: code}, "Bearer"
	case core.KindInvalidRoles:
		desc := "The caller does not hold the required roles"
		return http.StatusForbidden,
			ErrorResponse{Error: "insufficient_scope", ErrorDescription: desc, ErrorCode: code},
			challenge("insufficient_scope", desc)
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "An internal error occurred while processing the request",
			ErrorCode:        code,
		}, ""
	}
}

func jwtDecodeDescription(code string) string {
	switch code {
	case core.ErrorCodeTokenExpired:
		return "The access token expired"
	case core.ErrorCodeExpiryMissing:
		return "The access token has no expiry"
	case core.ErrorCodeTokenNotYetValid:
		return "The access token is not yet valid"
	case core.ErrorCodeInvalidSignature:
		return "The access token signature is invalid"
	case core.ErrorCodeInvalidAlgorithm:
		return "The access token uses an unsupported algorithm"
	case core.ErrorCodeInvalidIssuer:
		return "The access token was issued by an untrusted issuer"
	default:
		return "The access token is invalid"
	}
}

func invalidToken(code, desc string) (int, ErrorResponse, string) {
	return http.StatusUnauthorized,
		ErrorResponse{Error: "invalid_token", ErrorDescription: desc, ErrorCode: code},
		challenge("invalid_token", desc)
}

func invalidRequest(code, desc string) (int, ErrorResponse, string) {
	return http.StatusBadRequest,
		ErrorResponse{Error: "invalid_request", ErrorDescription: desc, ErrorCode: code},
		challenge("invalid_request", desc)
}

func challenge(errCode, desc string) string {
	return fmt.Sprintf(`Bearer error=%q, error_description=%q`, errCode, desc)
}
