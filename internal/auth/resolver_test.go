package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver() *KeyResolver {
	resolver := NewKeyResolver([]string{testIssuer}, []string{testAudience})
	resolver.RegisterValidator(testIssuer, newHS256Validator(60*time.Second))
	return resolver
}

func signHS256(t *testing.T, secret string, claims *Claims, kid string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestKeyResolver_ValidToken(t *testing.T) {
	token, err := IssueHS256([]byte(testSecret), TokenRequest{
		Issuer:   testIssuer,
		Audience: testAudience,
		ActorID:  "user-67890",
	}, time.Now())
	require.NoError(t, err)

	result, err := newTestResolver().Resolve(token)

	require.NoError(t, err)
	assert.Equal(t, "user-67890", result.Actor())
	assert.Equal(t, testIssuer, result.Issuer)
}

func TestKeyResolver_EmptyKidFallback(t *testing.T) {
	token := createTestToken(testSecret, &Claims{ActorID: "user-67890"}, time.Now().Add(1*time.Hour))

	result, err := newTestResolver().Resolve(token)

	require.NoError(t, err)
	assert.Equal(t, "user-67890", result.Actor())
}

func TestKeyResolver_Rejections(t *testing.T) {
	expires := jwt.NewNumericDate(time.Now().Add(1 * time.Hour))

	tests := []struct {
		name     string
		resolver func() *KeyResolver
		token    func(t *testing.T) string
		reason   AuthFailureReason
		contains string
	}{
		{
			name:     "issuer not allowed",
			resolver: newTestResolver,
			token: func(t *testing.T) string {
				return signHS256(t, testSecret, &Claims{ActorID: "u", RegisteredClaims: jwt.RegisteredClaims{
					Issuer: "unauthorized-issuer", Audience: jwt.ClaimStrings{testAudience}, ExpiresAt: expires,
				}}, "")
			},
			reason: AuthFailureInvalidIssuer,
		},
		{
			name:     "audience not allowed",
			resolver: newTestResolver,
			token: func(t *testing.T) string {
				return signHS256(t, testSecret, &Claims{ActorID: "u", RegisteredClaims: jwt.RegisteredClaims{
					Issuer: testIssuer, Audience: jwt.ClaimStrings{"wrong-audience"}, ExpiresAt: expires,
				}}, "")
			},
			reason: AuthFailureInvalidAudience,
		},
		{
			name: "no validator for issuer",
			resolver: func() *KeyResolver {
				return NewKeyResolver([]string{testIssuer}, []string{testAudience})
			},
			token: func(t *testing.T) string {
				return createTestToken(testSecret, &Claims{ActorID: "u"}, time.Now().Add(time.Hour))
			},
			reason:   AuthFailureInvalidIssuer,
			contains: "no validator found",
		},
		{
			name:     "unknown kid",
			resolver: newTestResolver,
			token: func(t *testing.T) string {
				return signHS256(t, testSecret, &Claims{ActorID: "u", RegisteredClaims: jwt.RegisteredClaims{
					Issuer: testIssuer, Audience: jwt.ClaimStrings{testAudience}, ExpiresAt: expires,
				}}, "v9")
			},
			reason:   AuthFailureUnknown,
			contains: "key not found",
		},
		{
			name:     "malformed",
			resolver: newTestResolver,
			token:    func(t *testing.T) string { return "malformed-token" },
			reason:   AuthFailureUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.resolver().Resolve(tt.token(t))

			require.Error(t, err)
			assert.Nil(t, result)

			authErr, ok := IsAuthError(err)
			require.True(t, ok)
			assert.Equal(t, tt.reason, authErr.Reason)
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestKeyResolver_IssuerMismatch(t *testing.T) {
	// Signed with issuer-a's secret but naming issuer-b.
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key("issuer-a", "v1", []byte(testSecret))

	resolver := NewKeyResolver([]string{"issuer-a"}, []string{testAudience})
	resolver.RegisterValidator("issuer-a", NewHS256Validator(keyStore, "issuer-a", 60*time.Second))

	token := signHS256(t, testSecret, &Claims{ActorID: "u", RegisteredClaims: jwt.RegisteredClaims{
		Issuer: "issuer-b", Audience: jwt.ClaimStrings{testAudience}, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}, "")

	result, err := resolver.Resolve(token)

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureInvalidIssuer, authErr.Reason)
}
