// Package auth covers stored-credential verification and the opaque resume
// tokens issued to authenticated clients.
package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Verify checks password against a stored credential. The store may still hold
// legacy plaintext values; those are compared in constant time and reported as
// needing an upgrade to a hashed form.
func Verify(password, stored string) (ok, upgrade bool) {
	if isHashed(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil, false
	}
	ok = subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
	return ok, ok
}

// Hash produces a bcrypt hash suitable for storage.
func Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func isHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}
