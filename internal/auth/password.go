package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch indicates the password does not match the stored hash
var ErrPasswordMismatch = errors.New("password mismatch")

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

// bcryptMaxInput is the longest input bcrypt accepts.
const bcryptMaxInput = 72

// BcryptHasher implements PasswordHasher with bcrypt. Passwords longer than
// bcrypt's 72 byte input limit are reduced with SHA-256 first, so every
// password that passes validation can be hashed and no byte is ignored.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher using the default bcrypt cost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: bcrypt.DefaultCost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword(bcryptInput(password), cost)
	if err != nil {
		return "", oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return oops.Code("PASSWORD_VERIFY_FAILED").Wrap(err)
	}
}

func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxInput {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.RawStdEncoding.EncodeToString(sum[:]))
}
