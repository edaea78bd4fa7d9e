package auth

import (
	"fmt"

	"snapfeed-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor used for all password hashes.
const HashCost = 10

// HashPassword derives a salted one-way hash from a plaintext password.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), HashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash. A nil or
// empty hash never matches: accounts without a local password cannot be
// verified against any input.
func VerifyPassword(hash *string, plain string) bool {
	if hash == nil || *hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*hash), []byte(plain)) == nil
}

// MaybeRehash assigns a new hash to u only when plain does not already
// match the stored hash. It reports whether the hash changed, so the
// write path can skip persisting the hash on unrelated saves.
func MaybeRehash(u *models.User, plain string) (bool, error) {
	if VerifyPassword(u.PasswordHash, plain) {
		return false, nil
	}
	hash, err := HashPassword(plain)
	if err != nil {
		return false, err
	}
	u.PasswordHash = &hash
	return true, nil
}
