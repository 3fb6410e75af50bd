package domain

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes failures returned by the core.
type ErrorKind string

const (
	KindNotFound              ErrorKind = "not_found"
	KindPermissionDenied      ErrorKind = "permission_denied"
	KindInvariantViolation    ErrorKind = "invariant_violation"
	KindAuthenticationFailure ErrorKind = "authentication_failure"
	KindTypeMismatch          ErrorKind = "type_mismatch"
	KindStorageFailure        ErrorKind = "storage_failure"
	KindInvalidInput          ErrorKind = "invalid_input"
)

// Error is the single error type of the core. Matching is by Kind:
// errors.Is(err, ErrNotFound) holds for every NotFound error.
type Error struct {
	Kind       ErrorKind
	Message    string
	ActorID    string
	EntityID   string
	Permission Permission
	Err        error
}

// Sentinels for errors.Is.
var (
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrPermissionDenied      = &Error{Kind: KindPermissionDenied}
	ErrInvariantViolation    = &Error{Kind: KindInvariantViolation}
	ErrAuthenticationFailure = &Error{Kind: KindAuthenticationFailure}
	ErrTypeMismatch          = &Error{Kind: KindTypeMismatch}
	ErrStorageFailure        = &Error{Kind: KindStorageFailure}
	ErrInvalidInput          = &Error{Kind: KindInvalidInput}
)

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// NotFound reports a failed lookup of an entity of the given kind.
func NotFound(entity, id string) *Error {
	return &Error{
		Kind:     KindNotFound,
		Message:  fmt.Sprintf("%s %q not found", entity, id),
		EntityID: id,
	}
}

// PermissionDenied reports a failed RBAC check. The message carries actor,
// target and the missing permission and nothing else.
func PermissionDenied(actorID, entityID string, p Permission) *Error {
	return &Error{
		Kind:       KindPermissionDenied,
		Message:    fmt.Sprintf("user %q lacks %s on %q", actorID, p, entityID),
		ActorID:    actorID,
		EntityID:   entityID,
		Permission: p,
	}
}

// InvariantViolation reports a rejected operation that would break a
// structural rule.
func InvariantViolation(format string, args ...any) *Error {
	return &Error{
		Kind:    KindInvariantViolation,
		Message: fmt.Sprintf(format, args...),
	}
}

// AuthenticationFailure reports a master password mismatch.
func AuthenticationFailure(entityID string) *Error {
	return &Error{
		Kind:     KindAuthenticationFailure,
		Message:  fmt.Sprintf("master password verification failed for %q", entityID),
		EntityID: entityID,
	}
}

// TypeMismatch reports an id that resolved to another variant.
func TypeMismatch(id string, want, got DomainType) *Error {
	return &Error{
		Kind:     KindTypeMismatch,
		Message:  fmt.Sprintf("%q is a %s, not a %s", id, got, want),
		EntityID: id,
	}
}

// StorageFailure wraps a serialization or backend error.
func StorageFailure(op string, err error) *Error {
	return &Error{
		Kind:    KindStorageFailure,
		Message: op,
		Err:     err,
	}
}

// InvalidInput wraps a request validation failure.
func InvalidInput(err error) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Message: "invalid input",
		Err:     err,
	}
}
