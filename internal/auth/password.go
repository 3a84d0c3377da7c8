package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPasswordHash reports whether password matches hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Credentials authenticates users against a fixed username -> hash table.
type Credentials map[string]string

// Authenticate reports whether username exists and password matches.
func (c Credentials) Authenticate(username, password string) bool {
	hash, ok := c[username]
	if !ok {
		return false
	}
	return CheckPasswordHash(password, hash)
}
