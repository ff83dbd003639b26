package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/autospare/auth-service/internal/auth/domain"
	"github.com/jackc/pgx/v5"
)

type SessionRepository struct {
	db DBPool
}

func NewSessionRepository(db DBPool) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, access_token, refresh_token, device_fingerprint, ip_address, user_agent,
		is_trusted_device, trusted_until, expires_at, created_at, last_used_at, revoked_at`

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.ID, &s.UserID, &s.AccessToken, &s.RefreshToken, &s.DeviceFingerprint,
		&s.IPAddress, &s.UserAgent, &s.IsTrustedDevice, &s.TrustedUntil,
		&s.ExpiresAt, &s.CreatedAt, &s.LastUsedAt, &s.RevokedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_sessions (id, user_id, access_token, refresh_token, device_fingerprint,
			ip_address, user_agent, is_trusted_device, trusted_until, expires_at, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, session.ID, session.UserID, session.AccessToken, session.RefreshToken, session.DeviceFingerprint,
		session.IPAddress, session.UserAgent, session.IsTrustedDevice, session.TrustedUntil,
		session.ExpiresAt, session.CreatedAt, session.LastUsedAt)
	return err
}

func (r *SessionRepository) GetByAccessToken(ctx context.Context, token string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE access_token = $1 LIMIT 1`

	session, err := scanSession(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session by access token: %w", err)
	}

	return session, nil
}

func (r *SessionRepository) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE refresh_token = $1 LIMIT 1`

	session, err := scanSession(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session by refresh token: %w", err)
	}

	return session, nil
}

// Revoke is conditional: only an unrevoked row is updated, and the boolean
// reports whether this caller won. Concurrent refreshes race on exactly this.
func (r *SessionRepository) Revoke(ctx context.Context, sessionID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL
	`, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to revoke session: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *SessionRepository) RevokeByAccessToken(ctx context.Context, token string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_sessions SET revoked_at = now() WHERE access_token = $1 AND revoked_at IS NULL
	`, token)
	if err != nil {
		return false, fmt.Errorf("failed to revoke session by access token: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *SessionRepository) RevokeAllByUserID(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_sessions SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions for user: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *SessionRepository) HasTrustedDevice(ctx context.Context, userID, fingerprint string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM user_sessions
			WHERE user_id = $1 AND device_fingerprint = $2
			  AND is_trusted_device AND revoked_at IS NULL AND trusted_until > now()
		)
	`

	var trusted bool
	if err := r.db.QueryRow(ctx, query, userID, fingerprint).Scan(&trusted); err != nil {
		return false, fmt.Errorf("failed to check trusted device: %w", err)
	}

	return trusted, nil
}

func (r *SessionRepository) ListTrustedDevices(ctx context.Context, userID string) ([]domain.Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM user_sessions
		WHERE user_id = $1 AND is_trusted_device AND revoked_at IS NULL AND trusted_until > now()
		ORDER BY last_used_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trusted devices: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trusted devices: %w", err)
	}

	return sessions, nil
}

// RevokeDeviceTrust clears the trust flag but leaves the session usable. The
// user_id predicate keeps one user from dropping another's device.
func (r *SessionRepository) RevokeDeviceTrust(ctx context.Context, userID, sessionID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_sessions
		SET is_trusted_device = FALSE, trusted_until = NULL
		WHERE id = $1 AND user_id = $2 AND is_trusted_device
	`, sessionID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to revoke device trust: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *SessionRepository) TouchLastUsed(ctx context.Context, sessionID string) error {
	_, err := r.db.Exec(ctx, `UPDATE user_sessions SET last_used_at = now() WHERE id = $1`, sessionID)
	return err
}

// DeleteOldestSessions drops unrevoked sessions beyond the newest keep rows.
func (r *SessionRepository) DeleteOldestSessions(ctx context.Context, userID string, keep int) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM user_sessions
		WHERE user_id = $1 AND revoked_at IS NULL
		  AND id NOT IN (
			SELECT id FROM user_sessions
			WHERE user_id = $1 AND revoked_at IS NULL
			ORDER BY created_at DESC
			LIMIT $2
		  )
	`, userID, keep)
	if err != nil {
		return fmt.Errorf("failed to delete oldest sessions: %w", err)
	}

	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM user_sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}
