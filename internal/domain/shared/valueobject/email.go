package valueobject

import (
	"errors"
	"net/mail"
	"strings"
)

// NormalizeEmail validates a bare email address and lowercases it
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errors.New("email cannot be empty")
	}
	if len(email) > 254 {
		return "", errors.New("email cannot exceed 254 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errors.New("email address is invalid")
	}
	return email, nil
}
