package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTooManyLoginAttempts = errors.New("too many login attempts")
	ErrAccountLocked        = errors.New("account temporarily locked")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountInactive      = errors.New("account is deactivated")

	ErrEmailAlreadyInUse = errors.New("email already in use")
	ErrPhoneAlreadyInUse = errors.New("phone number already in use")
	ErrWeakPassword      = errors.New("password does not meet the security policy")
	ErrPasswordReuse     = errors.New("new password must be different from the current password")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrInvalidPhone      = errors.New("invalid phone number")

	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenWrongType = errors.New("token has the wrong type")

	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionRevoked       = errors.New("session revoked")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token revoked")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")

	ErrTwoFactorNotFound        = errors.New("no verification code found")
	ErrTwoFactorExpired         = errors.New("verification code expired")
	ErrTwoFactorTooManyAttempts = errors.New("too many verification attempts")
	ErrTwoFactorMismatch        = errors.New("invalid verification code")

	ErrResetTokenInvalid = errors.New("invalid password reset token")
	ErrResetTokenUsed    = errors.New("password reset token already used")
	ErrResetTokenExpired = errors.New("password reset token expired")

	ErrTrustedDeviceNotFound = errors.New("trusted device not found")

	ErrUnauthorized     = errors.New("unauthorized")
	ErrAdminRequired    = errors.New("admin privileges required")
	ErrPhoneNotVerified = errors.New("phone number not verified")
)

// LockedError carries the lockout deadline so the HTTP layer can report the
// remaining duration. It matches ErrAccountLocked under errors.Is.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	minutes := int(time.Until(e.Until).Minutes()) + 1

	return fmt.Sprintf("account temporarily locked, try again in %d minutes", minutes)
}

func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// ThrottledError carries the retry-after window for rate-limited requests.
// It matches ErrTooManyLoginAttempts under errors.Is.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *ThrottledError) Is(target error) bool {
	return target == ErrTooManyLoginAttempts
}
