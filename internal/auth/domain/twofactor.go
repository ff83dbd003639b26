package domain

import "time"

// TwoFactorCode is a short-lived one-time code. The most recent unverified row
// per user is the active one; verified rows are kept for the audit trail.
type TwoFactorCode struct {
	ID         string
	UserID     string
	Code       string
	Phone      string
	Attempts   int
	VerifiedAt *time.Time
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

func (c *TwoFactorCode) Expired(t time.Time) bool {
	return t.After(c.ExpiresAt)
}
