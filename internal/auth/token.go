package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenRequest describes a token to mint.
type TokenRequest struct {
	Issuer   string
	Audience string
	ActorID  string
	KID      string
	TTL      time.Duration
}

// IssueHS256 signs a token for local development and tests. Production
// tokens come from the identity provider.
func IssueHS256(secret []byte, req TokenRequest, now time.Time) (string, error) {
	if req.ActorID == "" {
		return "", ErrMissingActor
	}
	if req.TTL <= 0 {
		req.TTL = time.Hour
	}
	if req.KID == "" {
		req.KID = DefaultKID
	}

	claims := &Claims{
		ActorID: req.ActorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    req.Issuer,
			Subject:   req.ActorID,
			Audience:  jwt.ClaimStrings{req.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(req.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = req.KID

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
