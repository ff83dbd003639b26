package domain

import "time"

// Session is one issued access/refresh pair. Refreshing never mutates a row in
// place: the old row is revoked and a new one inserted, keeping an auditable
// chain. A non-nil RevokedAt is permanent.
type Session struct {
	ID                string
	UserID            string
	AccessToken       string
	RefreshToken      string
	DeviceFingerprint string
	IPAddress         string
	UserAgent         string
	IsTrustedDevice   bool
	TrustedUntil      *time.Time
	ExpiresAt         time.Time
	CreatedAt         time.Time
	LastUsedAt        time.Time
	RevokedAt         *time.Time
}

func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}

func (s *Session) Expired(t time.Time) bool {
	return t.After(s.ExpiresAt)
}
