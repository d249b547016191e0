// Package secret hashes and verifies bearer secrets such as calendar feed tokens.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashingFailed = errors.New("secret hashing failed")
	ErrMismatch      = errors.New("secret does not match")
	ErrEmpty         = errors.New("secret is empty")
)

const DefaultCost = bcrypt.DefaultCost

// tokenBytes gives 256 bits of entropy.
const tokenBytes = 32

func Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmpty
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), DefaultCost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(hashed), nil
}

func Compare(hashed, plain string) error {
	if hashed == "" || plain == "" {
		return ErrEmpty
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return err
	}
	return nil
}

// NewToken returns a URL-safe random token and its bcrypt hash.
func NewToken() (plain, hashed string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	plain = base64.RawURLEncoding.EncodeToString(buf)
	hashed, err = Hash(plain)
	if err != nil {
		return "", "", err
	}
	return plain, hashed, nil
}
