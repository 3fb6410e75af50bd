package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingActor is returned for tokens with neither actorId nor sub.
var ErrMissingActor = errors.New("token has no actor")

// Claims represents the JWT claims accepted by the API. ActorID names the
// user every request acts as; the standard subject is used when it is
// absent.
type Claims struct {
	ActorID string `json:"actorId,omitempty"`
	jwt.RegisteredClaims
}

// Actor returns the acting user id.
func (c *Claims) Actor() string {
	if c.ActorID != "" {
		return c.ActorID
	}
	return c.Subject
}

// Validate is called by the jwt parser after the registered claims pass.
func (c *Claims) Validate() error {
	if c.Actor() == "" {
		return ErrMissingActor
	}
	return nil
}
