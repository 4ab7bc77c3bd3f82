package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// bcryptCost is the default cost for bcrypt hashing.
	bcryptCost = 10
)

// HashToken generates a bcrypt hash of the token. Tokens are pre-hashed with
// SHA-256 so lengths beyond bcrypt's 72 byte input limit are still accepted.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(token), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	return string(hash), nil
}

// CompareToken compares a hash produced by HashToken with a plaintext token.
func CompareToken(hashedToken, token string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedToken), prehash(token))
}

func prehash(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return []byte(hex.EncodeToString(sum[:]))
}
