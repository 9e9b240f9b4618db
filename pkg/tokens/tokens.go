// Package tokens generates the opaque secrets used during admission: numeric
// verification codes and invite tokens. Cleartext values are handed to the
// notifier exactly once; only SHA256 hashes are ever persisted.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	// InviteTokenPrefix identifies crewdeck invite tokens
	InviteTokenPrefix = "cwd_"
	// InviteTokenLength is the number of random bytes in an invite token
	InviteTokenLength = 32
)

// GenerateNumericCode returns a verification code of exactly length decimal
// digits, drawn from crypto/rand. Leading zeros are allowed.
func GenerateNumericCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", length)
	}
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// GenerateInviteToken creates a new invite token.
// Format: cwd_<base64url(32 random bytes)>. Returns the cleartext token and
// its SHA256 hex hash for storage.
func GenerateInviteToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, InviteTokenLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	token = InviteTokenPrefix + base64.RawURLEncoding.EncodeToString(randomBytes)
	return token, HashToken(token), nil
}

// HashToken computes the SHA256 hex hash of a token for storage or lookup.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
