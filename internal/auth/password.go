package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrCorruptCredential is returned when a stored password hash cannot be
// parsed. It signals data corruption, not a wrong password, so handlers map
// it to a server error instead of an authentication failure.
var ErrCorruptCredential = errors.New("corrupt stored credential")

// HashPassword produces a salted bcrypt digest of the plaintext password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword recomputes the digest and compares in constant time.
// A mismatch returns (false, nil); a hash that bcrypt cannot parse returns
// (false, ErrCorruptCredential).
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, ErrCorruptCredential
}
