// Token signing for the Workspace Lock. The original implementation
// only ever wrote a bare PID to the lock file; this enriches that with
// a signed JWT so a lock file found on disk can be verified as having
// been issued by this binary (not hand-edited or copied from another
// machine) before its PID is trusted for liveness recovery.
package lock

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const rootSecretFile = "lock.key"
const rootSecretSize = 32

// Claims carried by a lock token.
type Claims struct {
	jwt.RegisteredClaims
	PID int `json:"pid"`
}

// TokenSigner derives a per-workspace signing key from a root secret
// under the sovereign state directory, so a lock token for one
// workspace can't be replayed against another.
type TokenSigner struct {
	rootSecret []byte
}

// NewTokenSigner loads (or creates, on first use) the root secret at
// <home>/.xi-io/lock.key.
func NewTokenSigner() (*TokenSigner, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("lock: resolve home: %w", err)
	}
	dir := filepath.Join(home, ".xi-io")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("lock: create state dir: %w", err)
	}
	path := filepath.Join(dir, rootSecretFile)

	secret, err := os.ReadFile(path)
	if err == nil && len(secret) == rootSecretSize {
		return &TokenSigner{rootSecret: secret}, nil
	}

	secret = make([]byte, rootSecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("lock: generate root secret: %w", err)
	}
	if err := os.WriteFile(path, secret, 0o600); err != nil {
		return nil, fmt.Errorf("lock: persist root secret: %w", err)
	}
	return &TokenSigner{rootSecret: secret}, nil
}

func (s *TokenSigner) workspaceKey(workspaceRoot string) ([]byte, error) {
	h := hkdf.New(sha256.New, s.rootSecret, []byte(workspaceRoot), []byte("xi-workspace-lock"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("lock: derive workspace key: %w", err)
	}
	return key, nil
}

// Sign issues a token binding pid to workspaceRoot for ttl.
func (s *TokenSigner) Sign(workspaceRoot string, pid int, ttl time.Duration) (string, error) {
	key, err := s.workspaceKey(workspaceRoot)
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   workspaceRoot,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		PID: pid,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(key)
}

// Verify parses and validates a token previously issued for
// workspaceRoot, returning its claims.
func (s *TokenSigner) Verify(workspaceRoot, tokenString string) (*Claims, error) {
	key, err := s.workspaceKey(workspaceRoot)
	if err != nil {
		return nil, err
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("lock: invalid token: %w", err)
	}
	if claims.Subject != workspaceRoot {
		return nil, fmt.Errorf("lock: token subject mismatch")
	}
	return claims, nil
}
