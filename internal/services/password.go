package services

import (
	"errors"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher creates argon2id hashes. It still verifies bcrypt hashes
// carried over from accounts created before the switch to argon2id.
type PasswordHasher struct {
	params *argon2id.Params
}

func NewPasswordHasher(params *argon2id.Params) *PasswordHasher {
	if params == nil {
		params = argon2id.DefaultParams
	}
	return &PasswordHasher{params: params}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	return argon2id.CreateHash(password, h.params)
}

// Verify reports whether password matches hash. needsRehash is set when
// the hash is a legacy bcrypt one and should be replaced.
func (h *PasswordHasher) Verify(password, hash string) (match bool, needsRehash bool, err error) {
	if isBcryptHash(hash) {
		err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, false, nil
		} else if err != nil {
			return false, false, err
		}
		return true, true, nil
	}

	match, err = argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false, false, err
	}
	return match, false, nil
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}
