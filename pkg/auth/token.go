package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// tokenBytes is the entropy of verification and reset tokens (256 bits).
	tokenBytes = 32

	DefaultEmailVerificationTTL = 10 * time.Minute
	DefaultPasswordResetTTL     = 60 * time.Minute
)

// Clock supplies the current time. Tests swap it to move past expiry.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// IssuedToken is the result of TokenCodec.Issue. Plaintext goes to the user
// exactly once; only Digest and ExpiresAt are persisted.
type IssuedToken struct {
	Plaintext string
	Digest    string
	ExpiresAt time.Time
}

// TokenCodec issues and validates single-use opaque tokens for one purpose.
type TokenCodec struct {
	ttl   time.Duration
	clock Clock
}

// NewTokenCodec creates a codec whose tokens expire ttl after issue.
func NewTokenCodec(ttl time.Duration, clock Clock) *TokenCodec {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TokenCodec{ttl: ttl, clock: clock}
}

// TTL returns the validity window of issued tokens.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue generates a fresh token.
func (c *TokenCodec) Issue() (*IssuedToken, error) {
	raw, err := GenerateToken(tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &IssuedToken{
		Plaintext: raw,
		Digest:    HashToken(raw),
		ExpiresAt: c.clock.Now().Add(c.ttl),
	}, nil
}

// Validate reports whether candidate matches storedDigest and storedExpiry is
// still in the future. Both must hold.
func (c *TokenCodec) Validate(candidate string, storedDigest *string, storedExpiry *time.Time) bool {
	if candidate == "" || storedDigest == nil || storedExpiry == nil || *storedDigest == "" {
		return false
	}
	digestOK := constantTimeCompare([]byte(HashToken(candidate)), []byte(*storedDigest))
	return digestOK && storedExpiry.After(c.clock.Now())
}

// GenerateToken returns n random bytes hex-encoded.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := randomBytes(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashToken returns the hex SHA-256 digest of a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomBytes(b []byte) (int, error) {
	return rand.Read(b)
}

func constantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
