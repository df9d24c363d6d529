package auth

import (
	"crypto/hmac"
	"errors"
	"strings"
)

var (
	ErrInvalidAdminToken = errors.New("invalid admin token")
)

// ValidateAdminToken checks an Authorization header against the configured
// admin password. Expects "Bearer <token>".
func ValidateAdminToken(header, password string) error {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" || password == "" {
		return ErrInvalidAdminToken
	}
	if !hmac.Equal([]byte(token), []byte(password)) {
		return ErrInvalidAdminToken
	}
	return nil
}

// SecretsMatch compares a submitted access secret against the roster value
// in constant time. Case-insensitive: operators read the codes out loud.
func SecretsMatch(submitted, expected string) bool {
	a := strings.ToUpper(strings.TrimSpace(submitted))
	b := strings.ToUpper(strings.TrimSpace(expected))
	if a == "" || b == "" {
		return false
	}
	return hmac.Equal([]byte(a), []byte(b))
}
