package domain

//go:generate mockgen -destination=../../mocks/mock_repositories.go -package=mocks github.com/autospare/auth-service/internal/auth/domain UserRepository,SessionRepository,TwoFactorRepository,PasswordResetRepository,RateLimiter,SMSSender

import (
	"context"
	"time"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error
	// RecordFailedLogin atomically increments the failed-login counter and,
	// when the counter reaches maxAttempts, installs lockUntil and resets the
	// counter to zero. Returns the counter and lockout as stored.
	RecordFailedLogin(ctx context.Context, userID string, maxAttempts int, lockUntil time.Time) (int, *time.Time, error)
	RecordSuccessfulLogin(ctx context.Context, userID string) error
	SetPhoneVerified(ctx context.Context, userID string) error
	UpdatePhone(ctx context.Context, userID, phone string) error
	UpdatePasswordAndRevokeSessions(ctx context.Context, userID, passwordHash string) error
	RecordLoginAttempt(ctx context.Context, attempt *LoginAttempt) error
	DeleteOldLoginAttempts(ctx context.Context, olderThan time.Duration) (int64, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByAccessToken(ctx context.Context, token string) (*Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*Session, error)
	// Revoke marks the session revoked only if it is not already; the boolean
	// reports whether this call won the revocation.
	Revoke(ctx context.Context, sessionID string) (bool, error)
	RevokeByAccessToken(ctx context.Context, token string) (bool, error)
	RevokeAllByUserID(ctx context.Context, userID string) (int64, error)
	HasTrustedDevice(ctx context.Context, userID, fingerprint string) (bool, error)
	ListTrustedDevices(ctx context.Context, userID string) ([]Session, error)
	RevokeDeviceTrust(ctx context.Context, userID, sessionID string) (bool, error)
	TouchLastUsed(ctx context.Context, sessionID string) error
	DeleteOldestSessions(ctx context.Context, userID string, keep int) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type TwoFactorRepository interface {
	Create(ctx context.Context, code *TwoFactorCode) error
	GetLatestUnverified(ctx context.Context, userID string) (*TwoFactorCode, error)
	// IncrementAttempts atomically bumps the attempt counter and returns the
	// new value. Callers must increment before comparing codes.
	IncrementAttempts(ctx context.Context, codeID string) (int, error)
	MarkVerified(ctx context.Context, codeID string) error
	Delete(ctx context.Context, codeID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type PasswordResetRepository interface {
	Create(ctx context.Context, token *PasswordResetToken) error
	GetByToken(ctx context.Context, token string) (*PasswordResetToken, error)
	// ConsumeAndResetPassword marks the token used, updates the password hash
	// and revokes every active session for the user in a single transaction.
	ConsumeAndResetPassword(ctx context.Context, tokenID, userID, passwordHash string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// RateLimiter is a shared TTL counter store. Allow reports whether the key is
// under its limit for the window and, when it is not, how long to wait.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// SMSSender delivers a message out of band. Implementations must bound their
// own timeouts.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}
