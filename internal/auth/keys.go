package auth

import (
	"crypto/rsa"
	"fmt"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultKID is assumed for tokens without a kid header.
const DefaultKID = "v1"

type keyID struct {
	issuer string
	kid    string
}

// KeyStore holds verification keys by issuer and kid
type KeyStore struct {
	mu   sync.RWMutex
	hmac map[keyID][]byte
	rsa  map[keyID]*rsa.PublicKey
}

// NewKeyStore creates an empty KeyStore
func NewKeyStore() *KeyStore {
	return &KeyStore{
		hmac: make(map[keyID][]byte),
		rsa:  make(map[keyID]*rsa.PublicKey),
	}
}

// LoadHS256Key adds an HS256 secret for an issuer and kid
func (ks *KeyStore) LoadHS256Key(issuer, kid string, secret []byte) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.hmac[keyID{issuer, kid}] = append([]byte(nil), secret...)
}

// LoadRS256Key parses a PEM public key and adds it for an issuer and kid
func (ks *KeyStore) LoadRS256Key(issuer, kid, publicKeyPEM string) error {
	// Keys passed through env vars often carry literal \n sequences.
	normalized := strings.TrimSpace(strings.ReplaceAll(publicKeyPEM, `\n`, "\n"))

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(normalized))
	if err != nil {
		return fmt.Errorf("failed to parse RSA public key: %w", err)
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.rsa[keyID{issuer, kid}] = publicKey
	return nil
}

// GetHS256Key retrieves an HS256 secret for an issuer and kid
func (ks *KeyStore) GetHS256Key(issuer, kid string) ([]byte, bool) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	secret, ok := ks.hmac[keyID{issuer, kid}]
	return secret, ok
}

// GetRS256Key retrieves an RS256 public key for an issuer and kid
func (ks *KeyStore) GetRS256Key(issuer, kid string) (*rsa.PublicKey, bool) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	key, ok := ks.rsa[keyID{issuer, kid}]
	return key, ok
}
