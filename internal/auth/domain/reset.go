package domain

import "time"

// PasswordResetToken is single-use: once UsedAt is set the token is permanently
// invalid, even before its expiry.
type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	UsedAt    *time.Time
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t *PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
