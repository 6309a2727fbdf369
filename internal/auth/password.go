package auth

import (
	"fmt"

	"github.com/alexedwards/argon2id"
)

// PasswordHasher performs one-way salted hashing of account passwords using
// argon2id in PHC string format.
type PasswordHasher struct {
	params *argon2id.Params
}

// NewPasswordHasher creates a hasher with the library default parameters.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{params: argon2id.DefaultParams}
}

// Hash returns the argon2id hash of the password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, h.params)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// Verify reports whether the presented password matches the stored hash.
func (h *PasswordHasher) Verify(password, hash string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false, fmt.Errorf("failed to compare password: %w", err)
	}
	return match, nil
}
