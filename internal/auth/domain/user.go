package domain

import "time"

type User struct {
	ID               string
	Email            string
	Phone            string
	FullName         string
	PasswordHash     string
	IsActive         bool
	IsPhoneVerified  bool
	IsAdmin          bool
	FailedLoginCount int
	LockedUntil      *time.Time
	LastLoginAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Locked reports whether the account is under an active lockout at t.
func (u *User) Locked(t time.Time) bool {
	return u.LockedUntil != nil && t.Before(*u.LockedUntil)
}

// LoginAttempt is an append-only audit row. UserID is nil when the email did
// not match any account.
type LoginAttempt struct {
	ID            string
	UserID        *string
	Email         string
	IPAddress     string
	Successful    bool
	FailureReason string
	CreatedAt     time.Time
}
