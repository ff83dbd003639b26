package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	autherror "github.com/autospare/auth-service/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)
)

func HashPassword(plaintext string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}

func CheckPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// ValidatePasswordStrength enforces the password policy: at least 8
// characters with one uppercase letter, one lowercase letter and one digit.
func ValidatePasswordStrength(plaintext string) error {
	if len(plaintext) < minPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", autherror.ErrWeakPassword, minPasswordLength)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range plaintext {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("%w: must contain an uppercase letter", autherror.ErrWeakPassword)
	}
	if !hasLower {
		return fmt.Errorf("%w: must contain a lowercase letter", autherror.ErrWeakPassword)
	}
	if !hasDigit {
		return fmt.Errorf("%w: must contain a digit", autherror.ErrWeakPassword)
	}

	return nil
}

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return autherror.ErrInvalidEmail
	}

	return nil
}

// NormalizePhone strips separators and validates the result: digits with an
// optional leading +, 9 to 15 digits long.
func NormalizePhone(phone string) (string, error) {
	normalized := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	if !phonePattern.MatchString(normalized) {
		return "", autherror.ErrInvalidPhone
	}

	return normalized, nil
}
