package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/autospare/auth-service/internal/auth/domain"
	repo "github.com/autospare/auth-service/internal/auth/repository/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionColumns = []string{"id", "user_id", "access_token", "refresh_token", "device_fingerprint",
	"ip_address", "user_agent", "is_trusted_device", "trusted_until", "expires_at", "created_at",
	"last_used_at", "revoked_at"}

func sessionRow(s *domain.Session) *pgxmock.Rows {
	return addSessionRow(pgxmock.NewRows(sessionColumns), s)
}

func addSessionRow(rows *pgxmock.Rows, s *domain.Session) *pgxmock.Rows {
	return rows.AddRow(s.ID, s.UserID, s.AccessToken, s.RefreshToken, s.DeviceFingerprint,
		s.IPAddress, s.UserAgent, s.IsTrustedDevice, s.TrustedUntil, s.ExpiresAt,
		s.CreatedAt, s.LastUsedAt, s.RevokedAt)
}

// TestSessionRepository_Create covers the session insert.
func TestSessionRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()

	r := repo.NewSessionRepository(mock)
	session := &domain.Session{
		ID:                "session-123",
		UserID:            "user-123",
		AccessToken:       "access-token",
		RefreshToken:      "refresh-token",
		DeviceFingerprint: "fingerprint-abc",
		IPAddress:         "127.0.0.1",
		UserAgent:         "Go-http-client/1.1",
		ExpiresAt:         time.Now().Add(24 * time.Hour),
		CreatedAt:         time.Now(),
		LastUsedAt:        time.Now(),
	}

	args := []any{session.ID, session.UserID, session.AccessToken, session.RefreshToken,
		session.DeviceFingerprint, session.IPAddress, session.UserAgent, session.IsTrustedDevice,
		session.TrustedUntil, session.ExpiresAt, session.CreatedAt, session.LastUsedAt}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO user_sessions").
			WithArgs(args...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := r.Create(ctx, session)
		assert.NoError(t, err)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO user_sessions").
			WithArgs(args...).
			WillReturnError(fmt.Errorf("db error"))

		err := r.Create(ctx, session)
		assert.Error(t, err)
	})
}

// TestSessionRepository_GetByAccessToken covers the access token lookup.
func TestSessionRepository_GetByAccessToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewSessionRepository(mock)
	token := "access-token"
	expected := &domain.Session{ID: "session-123", AccessToken: token, ExpiresAt: time.Now().Add(time.Hour)}

	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id").
			WithArgs(token).
			WillReturnRows(sessionRow(expected))

		session, err := r.GetByAccessToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, expected.ID, session.ID)
		assert.False(t, session.Revoked())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id").
			WithArgs(token).
			WillReturnError(pgx.ErrNoRows)

		session, err := r.GetByAccessToken(ctx, token)
		require.NoError(t, err)
		assert.Nil(t, session)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id").
			WithArgs(token).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.GetByAccessToken(ctx, token)
		assert.Error(t, err)
	})
}

// TestSessionRepository_GetByRefreshToken covers the refresh token lookup.
func TestSessionRepository_GetByRefreshToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewSessionRepository(mock)
	token := "refresh-token"
	revokedAt := time.Now().Add(-time.Minute)
	expected := &domain.Session{ID: "session-123", RefreshToken: token, RevokedAt: &revokedAt}

	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id").
			WithArgs(token).
			WillReturnRows(sessionRow(expected))

		session, err := r.GetByRefreshToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, expected.ID, session.ID)
		assert.True(t, session.Revoked())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id").
			WithArgs(token).
			WillReturnError(pgx.ErrNoRows)

		session, err := r.GetByRefreshToken(ctx, token)
		require.NoError(t, err)
		assert.Nil(t, session)
	})
}

// TestSessionRepository_Revoke covers the conditional revoke that decides
// refresh races.
func TestSessionRepository_Revoke(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewSessionRepository(mock)
	sessionID := "session-123"

	ctx := context.Background()

	t.Run("winner", func(t *testing.T) {
		mock.ExpectExec("UPDATE user_sessions SET revoked_at").
			WithArgs(sessionID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		won, err := r.Revoke(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, won)
	})

	t.Run("already revoked", func(t *testing.T) {
		mock.ExpectExec("UPDATE user_sessions SET revoked_at").
			WithArgs(sessionID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		won, err := r.Revoke(ctx, sessionID)
		require.NoError(t, err)
		assert.False(t, won)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("UPDATE user_sessions SET revoked_at").
			WithArgs(sessionID).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.Revoke(ctx, sessionID)
		assert.Error(t, err)
	})
}

// TestSessionRepository_RevokeByAccessToken covers the logout path.
func TestSessionRepository_RevokeByAccessToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewSessionRepository(mock)
	token := "access-token"

	ctx := context.Background()

	t.Run("revoked", func(t *testing.T) {
		mock.ExpectExec("UPDATE user_sessions SET revoked_at").
			WithArgs(token).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		revoked, err := r.RevokeByAccessToken(ctx, token)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("nothing to revoke", func(t *testing.T) {
		mock.ExpectExec("UPDATE user_sessions SET revoked_at").
			WithArgs(token).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		revoked, err := r.RevokeByAccessToken(ctx, token)
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}

// TestSessionRepository_RevokeAllByUserID covers the force logout sweep.
func TestSessionRepository_RevokeAllByUserID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewSessionRepository(mock)
	userID := "user-to-logout"

	ctx := context.Background()

	mock.ExpectExec("UPDATE user_sessions SET revoked_at").
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 5))

	n, err := r.RevokeAllByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	mock.ExpectExec("UPDATE user_sessions SET revoked_at").
		WithArgs(userID).
		WillReturnError(fmt.Errorf("db error"))

	_, err = r.RevokeAllByUserID(ctx, userID)
	require.Error(t, err)
}

// TestSessionRepository_HasTrustedDevice covers the trust probe used by login.
func TestSessionRepository_HasTrustedDevice(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewSessionRepository(mock)
	userID := "user-123"
	fingerprint := "fingerprint-abc"

	ctx := context.Background()

	t.Run("trusted", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(userID, fingerprint).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		trusted, err := r.HasTrustedDevice(ctx, userID, fingerprint)
		require.NoError(t, err)
		assert.True(t, trusted)
	})

	t.Run("unknown device", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(userID, fingerprint).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		trusted, err := r.HasTrustedDevice(ctx, userID, fingerprint)
		require.NoError(t, err)
		assert.False(t, trusted)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(userID, fingerprint).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.HasTrustedDevice(ctx, userID, fingerprint)
		assert.Error(t, err)
	})
}

// TestSessionRepository_ListTrustedDevices covers the trusted device listing.
func TestSessionRepository_ListTrustedDevices(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewSessionRepository(mock)
	userID := "user-123"
	trustedUntil := time.Now().Add(90 * 24 * time.Hour)

	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows(sessionColumns)
		addSessionRow(rows, &domain.Session{ID: "session-1", UserID: userID, IsTrustedDevice: true, TrustedUntil: &trustedUntil})
		addSessionRow(rows, &domain.Session{ID: "session-2", UserID: userID, IsTrustedDevice: true, TrustedUntil: &trustedUntil})

		mock.ExpectQuery("SELECT id, user_id").
			WithArgs(userID).
			WillReturnRows(rows)

		sessions, err := r.ListTrustedDevices(ctx, userID)
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, "session-1", sessions[0].ID)
		assert.Equal(t, "session-2", sessions[1].ID)
	})

	t.Run("no devices", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id").
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows(sessionColumns))

		sessions, err := r.ListTrustedDevices(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id").
			WithArgs(userID).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.ListTrustedDevices(ctx, userID)
		assert.Error(t, err)
	})
}

// TestSessionRepository_RevokeDeviceTrust covers dropping the trust flag.
func TestSessionRepository_RevokeDeviceTrust(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewSessionRepository(mock)
	userID := "user-123"
	sessionID := "session-123"

	ctx := context.Background()

	t.Run("revoked", func(t *testing.T) {
		mock.ExpectExec("UPDATE user_sessions").
			WithArgs(sessionID, userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		found, err := r.RevokeDeviceTrust(ctx, userID, sessionID)
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("not owned or not trusted", func(t *testing.T) {
		mock.ExpectExec("UPDATE user_sessions").
			WithArgs(sessionID, userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		found, err := r.RevokeDeviceTrust(ctx, userID, sessionID)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

// TestSessionRepository_TouchLastUsed covers the last_used_at bump.
func TestSessionRepository_TouchLastUsed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewSessionRepository(mock)
	ctx := context.Background()

	mock.ExpectExec("UPDATE user_sessions SET last_used_at").
		WithArgs("session-123").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = r.TouchLastUsed(ctx, "session-123")
	assert.NoError(t, err)
}

// TestSessionRepository_DeleteOldestSessions covers the per-user session cap.
func TestSessionRepository_DeleteOldestSessions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewSessionRepository(mock)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM user_sessions").
			WithArgs("user-123", 5).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		err := r.DeleteOldestSessions(ctx, "user-123", 5)
		assert.NoError(t, err)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM user_sessions").
			WithArgs("user-123", 5).
			WillReturnError(fmt.Errorf("db error"))

		err := r.DeleteOldestSessions(ctx, "user-123", 5)
		assert.Error(t, err)
	})
}

// TestSessionRepository_DeleteExpired covers the expired session sweep.
func TestSessionRepository_DeleteExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewSessionRepository(mock)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM user_sessions").
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := r.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
