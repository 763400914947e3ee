// internal/auth/password.go
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength       = 16
	keyLength        = 32
	pbkdf2Iterations = 100000
)

// HashPassword derives a PBKDF2-SHA256 key under a fresh random salt and
// returns base64(salt || key).
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keyLength, sha256.New)

	combined := make([]byte, 0, saltLength+keyLength)
	combined = append(combined, salt...)
	combined = append(combined, key...)
	return base64.StdEncoding.EncodeToString(combined), nil
}

// VerifyPassword reports whether password matches a value produced by
// HashPassword. Malformed stored values never match.
func VerifyPassword(password, stored string) bool {
	combined, err := base64.StdEncoding.DecodeString(stored)
	if err != nil || len(combined) != saltLength+keyLength {
		return false
	}

	salt := combined[:saltLength]
	want := combined[saltLength:]
	got := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keyLength, sha256.New)

	return subtle.ConstantTimeCompare(got, want) == 1
}
