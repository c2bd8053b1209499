// Package credentials hashes and verifies account passwords. A wrong
// password is a normal outcome, not an error; only a stored hash that
// cannot be parsed is reported as a failure.
package credentials

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is used when no explicit bcrypt cost is configured.
const DefaultCost = bcrypt.DefaultCost

// ErrMalformedHash is returned when a stored hash is not a valid bcrypt hash.
var ErrMalformedHash = errors.New("malformed password hash")

// Hash returns the bcrypt hash of plain using the given cost.
func Hash(plain string, cost int) (string, error) {
	if cost <= 0 {
		cost = DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compares a bcrypt hash against a plaintext password. It returns
// (false, nil) when the password simply does not match and
// (false, ErrMalformedHash) when the stored hash is unreadable.
func Verify(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrMalformedHash
	}
}
