package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "test-secret-key-must-be-at-least-32-chars-long-for-hmac"
	testIssuer   = "officeflow-web"
	testAudience = "officeflow-api"
)

// createTestToken signs claims with secret, filling in issuer, audience and expiry.
func createTestToken(secret string, claims *Claims, exp time.Time) string {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Subject:   claims.RegisteredClaims.Subject,
		Audience:  jwt.ClaimStrings{testAudience},
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(secret))
	return tokenString
}

func newHS256Validator(skew time.Duration) *HS256Validator {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))
	return NewHS256Validator(keyStore, testIssuer, skew)
}

func TestHS256Validator_ValidToken(t *testing.T) {
	validator := newHS256Validator(60 * time.Second)

	token := createTestToken(testSecret, &Claims{ActorID: "user-67890"}, time.Now().Add(1*time.Hour))

	result, err := validator.Validate(token, "v1")

	require.NoError(t, err)
	assert.Equal(t, "user-67890", result.Actor())
	assert.Equal(t, testIssuer, result.Issuer)
}

func TestHS256Validator_SubjectFallback(t *testing.T) {
	validator := newHS256Validator(60 * time.Second)

	claims := &Claims{}
	claims.Subject = "alice"
	token := createTestToken(testSecret, claims, time.Now().Add(1*time.Hour))

	result, err := validator.Validate(token, "v1")

	require.NoError(t, err)
	assert.Empty(t, result.ActorID)
	assert.Equal(t, "alice", result.Actor())
}

func TestHS256Validator_Failures(t *testing.T) {
	tests := []struct {
		name   string
		skew   time.Duration
		token  func() string
		reason AuthFailureReason
	}{
		{
			name: "invalid signature",
			skew: 60 * time.Second,
			token: func() string {
				return createTestToken("wrong-secret-key-must-be-at-least-32-chars-long", &Claims{ActorID: "user-67890"}, time.Now().Add(time.Hour))
			},
			reason: AuthFailureInvalidSignature,
		},
		{
			name: "expired beyond clock skew",
			skew: 5 * time.Second,
			token: func() string {
				return createTestToken(testSecret, &Claims{ActorID: "user-67890"}, time.Now().Add(-10*time.Second))
			},
			reason: AuthFailureTokenExpired,
		},
		{
			name: "missing actor",
			skew: 60 * time.Second,
			token: func() string {
				return createTestToken(testSecret, &Claims{}, time.Now().Add(time.Hour))
			},
			reason: AuthFailureMissingActor,
		},
		{
			name: "missing expiry",
			skew: 60 * time.Second,
			token: func() string {
				claims := &Claims{ActorID: "user-67890"}
				claims.Issuer = testIssuer
				claims.Audience = jwt.ClaimStrings{testAudience}
				s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
				return s
			},
			reason: AuthFailureUnknown,
		},
		{
			name:   "malformed",
			skew:   60 * time.Second,
			token:  func() string { return "not.a.valid.jwt.token" },
			reason: AuthFailureUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newHS256Validator(tt.skew).Validate(tt.token(), "v1")

			require.Error(t, err)
			assert.Nil(t, result)

			authErr, ok := IsAuthError(err)
			require.True(t, ok)
			assert.Equal(t, tt.reason, authErr.Reason)
		})
	}
}

func TestHS256Validator_ExpiredTokenWithinClockSkew(t *testing.T) {
	validator := newHS256Validator(60 * time.Second)

	token := createTestToken(testSecret, &Claims{ActorID: "user-67890"}, time.Now().Add(-30*time.Second))

	result, err := validator.Validate(token, "v1")

	require.NoError(t, err)
	assert.Equal(t, "user-67890", result.Actor())
}

func TestHS256Validator_InvalidKID(t *testing.T) {
	validator := newHS256Validator(60 * time.Second)

	token := createTestToken(testSecret, &Claims{ActorID: "user-67890"}, time.Now().Add(1*time.Hour))

	result, err := validator.Validate(token, "v2")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "key not found")
}

func TestHS256Validator_WrongAlgorithm(t *testing.T) {
	validator := newHS256Validator(60 * time.Second)

	claims := &Claims{ActorID: "user-67890"}
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Audience:  jwt.ClaimStrings{testAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	result, err := validator.Validate(tokenString, "v1")

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureInvalidSignature, authErr.Reason)
}

func TestRS256Validator(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	require.NoError(t, err)
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	keyStore := NewKeyStore()
	// Env vars carry the PEM with escaped newlines.
	require.NoError(t, keyStore.LoadRS256Key(testIssuer, "v1", strings.ReplaceAll(pemKey, "\n", `\n`)))
	validator := NewRS256Validator(keyStore, testIssuer, 60*time.Second)

	claims := &Claims{ActorID: "user-67890"}
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Audience:  jwt.ClaimStrings{testAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privateKey)
	require.NoError(t, err)

	result, err := validator.Validate(signed, "v1")
	require.NoError(t, err)
	assert.Equal(t, "user-67890", result.Actor())

	// An HS256 token must not verify against the RSA validator.
	hsToken := createTestToken(testSecret, &Claims{ActorID: "user-67890"}, time.Now().Add(time.Hour))
	_, err = validator.Validate(hsToken, "v1")
	require.Error(t, err)

	assert.Error(t, keyStore.LoadRS256Key(testIssuer, "v2", "not a pem"))
}
