package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashKey returns a bcrypt hash of the admin key using DefaultCost.
func HashKey(key string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckKey compares a bcrypt hash with its possible plaintext key.
// An empty hash never matches.
func CheckKey(hash, key string) bool {
	if hash == "" || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
