package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrDisabled is returned when no admin credential is configured.
	ErrDisabled = errors.New("privileged operations disabled")
	// ErrInvalidCredentials is returned when the supplied token does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AdminCredential guards privileged operations. A nil credential means
// privileged operations are disabled.
type AdminCredential struct {
	hash string
}

// NewAdminCredential hashes a plaintext token. An empty token yields nil.
func NewAdminCredential(token string) (*AdminCredential, error) {
	if token == "" {
		return nil, nil
	}
	hash, err := HashToken(token)
	if err != nil {
		return nil, err
	}
	return &AdminCredential{hash: hash}, nil
}

// NewAdminCredentialFromHash uses a hash produced by HashToken (for example
// via "coderooms hash-token"). An empty hash yields nil.
func NewAdminCredentialFromHash(hash string) (*AdminCredential, error) {
	if hash == "" {
		return nil, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("parse admin token hash: %w", err)
	}
	return &AdminCredential{hash: hash}, nil
}

// Enabled reports whether a credential is configured.
func (c *AdminCredential) Enabled() bool {
	return c != nil && c.hash != ""
}

// Verify checks token against the configured credential.
func (c *AdminCredential) Verify(token string) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	if token == "" {
		return ErrInvalidCredentials
	}
	if err := CompareToken(c.hash, token); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
