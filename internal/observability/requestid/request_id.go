// Package requestid issues and carries the id that ties a request's logs,
// audit entries and error bodies together.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// Header is the request and response header carrying the id.
const Header = "X-Request-Id"

const (
	prefix = "req_"
	maxLen = 128
)

// NewRequestID returns "req_" followed by a UUIDv7, so ids sort by
// creation time.
func NewRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return prefix + uuid.NewString()
	}
	return prefix + id.String()
}

// Valid reports whether a client-supplied id may be reused. Ids end up in
// logs and in the audit_log table, so only short printable ASCII without
// spaces or quotes is accepted.
func Valid(id string) bool {
	if id == "" || len(id) > maxLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c <= ' ' || c > '~' || c == '"' || c == '\\' {
			return false
		}
	}
	return true
}

// FromHeader returns the inbound id when it is Valid, or a fresh one.
func FromHeader(value string) string {
	if Valid(value) {
		return value
	}
	return NewRequestID()
}

// GetRequestID returns the id stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// SetRequestID stores id in ctx.
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}
