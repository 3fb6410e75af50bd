package auth

import (
	"errors"
	"strings"

	"officeflow-api/internal/http/httperr"
)

// AuthFailureReason says why a request could not be tied to an actor.
type AuthFailureReason string

const (
	AuthFailureMissingAuthorization AuthFailureReason = "missing_authorization"
	AuthFailureInvalidScheme        AuthFailureReason = "invalid_scheme"
	AuthFailureInvalidSignature     AuthFailureReason = "invalid_signature"
	AuthFailureInvalidIssuer        AuthFailureReason = "invalid_issuer"
	AuthFailureInvalidAudience      AuthFailureReason = "invalid_audience"
	AuthFailureTokenExpired         AuthFailureReason = "token_expired"
	AuthFailureMissingActor         AuthFailureReason = "missing_actor"
	AuthFailureUnknown              AuthFailureReason = "unknown"
)

// Code is the error code written in the 401 body.
func (r AuthFailureReason) Code() string {
	switch r {
	case AuthFailureMissingAuthorization:
		return httperr.ErrCodeMissingAuthorization
	case AuthFailureInvalidScheme:
		return httperr.ErrCodeInvalidScheme
	case AuthFailureTokenExpired:
		return httperr.ErrCodeTokenExpired
	case AuthFailureInvalidSignature:
		return httperr.ErrCodeInvalidSignature
	case AuthFailureInvalidIssuer:
		return httperr.ErrCodeInvalidIssuer
	case AuthFailureInvalidAudience:
		return httperr.ErrCodeInvalidAudience
	default:
		return httperr.ErrCodeInvalidToken
	}
}

// ClientMessage is the message shown to callers. Token failures share one
// message so responses do not reveal which check failed.
func (r AuthFailureReason) ClientMessage() string {
	switch r {
	case AuthFailureMissingAuthorization:
		return "missing authorization header"
	case AuthFailureInvalidScheme:
		return "authorization header must use the Bearer scheme"
	case AuthFailureTokenExpired:
		return "token expired"
	default:
		return "invalid token"
	}
}

// AuthError carries a failure reason alongside the underlying cause.
type AuthError struct {
	Reason  AuthFailureReason
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func NewAuthError(reason AuthFailureReason, message string, err error) *AuthError {
	return &AuthError{
		Reason:  reason,
		Message: message,
		Err:     err,
	}
}

// IsAuthError unwraps err to an *AuthError.
func IsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// reasonOf returns the failure reason of err, or AuthFailureUnknown.
func reasonOf(err error) AuthFailureReason {
	if authErr, ok := IsAuthError(err); ok {
		return authErr.Reason
	}
	return AuthFailureUnknown
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", NewAuthError(AuthFailureMissingAuthorization, "no authorization header", nil)
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", NewAuthError(AuthFailureInvalidScheme, "authorization header is not a bearer token", nil)
	}
	return token, nil
}

// maskToken keeps the first 12 characters of a token for logs.
func maskToken(token string) string {
	if len(token) <= 12 {
		return "***"
	}
	return token[:12] + "..."
}
