package auth

import (
	"fmt"
	"strings"
)

// ValidateEmail checks the structural shape of an email address.
func ValidateEmail(email string) error {
	if len(email) < 3 || len(email) > 255 {
		return fmt.Errorf("invalid email format")
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("invalid email format")
	}
	if len(parts[0]) == 0 || len(parts[1]) == 0 {
		return fmt.Errorf("invalid email format")
	}
	// Domain must have at least one dot
	if !strings.Contains(parts[1], ".") {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePassword validates password length requirements.
func ValidatePassword(password string, minLength int) error {
	if minLength == 0 {
		minLength = 8
	}
	if len(password) < minLength {
		return fmt.Errorf("password must be at least %d characters long", minLength)
	}
	if len(password) > 128 {
		return fmt.Errorf("password must be at most 128 characters long")
	}
	return nil
}

// ValidateTwoFactorCode checks that the code is exactly six digits.
// This is a format check only; no TOTP computation happens anywhere in
// this codebase.
func ValidateTwoFactorCode(code string) error {
	if len(code) != 6 {
		return fmt.Errorf("verification code must be 6 digits")
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return fmt.Errorf("verification code must be 6 digits")
		}
	}
	return nil
}
