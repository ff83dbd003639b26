package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/autospare/auth-service/internal/auth/domain"
	repo "github.com/autospare/auth-service/internal/auth/repository/postgres"
	autherror "github.com/autospare/auth-service/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPasswordResetRepository_Create covers the reset token insert.
func TestPasswordResetRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()

	r := repo.NewPasswordResetRepository(mock)
	token := &domain.PasswordResetToken{
		ID:        "reset-123",
		UserID:    "user-123",
		Token:     "reset-token",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO password_resets").
			WithArgs(token.ID, token.UserID, token.Token, token.ExpiresAt, token.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := r.Create(ctx, token)
		assert.NoError(t, err)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO password_resets").
			WithArgs(token.ID, token.UserID, token.Token, token.ExpiresAt, token.CreatedAt).
			WillReturnError(fmt.Errorf("db error"))

		err := r.Create(ctx, token)
		assert.Error(t, err)
	})
}

// TestPasswordResetRepository_GetByToken covers the token lookup.
func TestPasswordResetRepository_GetByToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPasswordResetRepository(mock)
	columns := []string{"id", "user_id", "token", "used_at", "expires_at", "created_at"}
	token := "reset-token"

	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, token").
			WithArgs(token).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow("reset-123", "user-123", token, nil, time.Now().Add(time.Hour), time.Now()))

		row, err := r.GetByToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "reset-123", row.ID)
		assert.Nil(t, row.UsedAt)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, token").
			WithArgs(token).
			WillReturnError(pgx.ErrNoRows)

		row, err := r.GetByToken(ctx, token)
		require.NoError(t, err)
		assert.Nil(t, row)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, token").
			WithArgs(token).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.GetByToken(ctx, token)
		assert.Error(t, err)
	})
}

// TestPasswordResetRepository_ConsumeAndResetPassword covers the transactional
// confirm: spend the token, write the hash, revoke every session.
func TestPasswordResetRepository_ConsumeAndResetPassword(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPasswordResetRepository(mock)
	tokenID := "reset-123"
	userID := "user-123"
	hash := "new-hash"

	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE password_resets SET used_at").
			WithArgs(tokenID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec("UPDATE users").
			WithArgs(userID, hash).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec("UPDATE user_sessions SET revoked_at").
			WithArgs(userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 2))
		mock.ExpectCommit()

		err := r.ConsumeAndResetPassword(ctx, tokenID, userID, hash)
		assert.NoError(t, err)
	})

	t.Run("concurrent confirm loses", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE password_resets SET used_at").
			WithArgs(tokenID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectRollback()

		err := r.ConsumeAndResetPassword(ctx, tokenID, userID, hash)
		assert.ErrorIs(t, err, autherror.ErrResetTokenUsed)
	})

	t.Run("password update failure rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE password_resets SET used_at").
			WithArgs(tokenID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec("UPDATE users").
			WithArgs(userID, hash).
			WillReturnError(fmt.Errorf("db error"))
		mock.ExpectRollback()

		err := r.ConsumeAndResetPassword(ctx, tokenID, userID, hash)
		assert.Error(t, err)
	})

	t.Run("begin failure", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(fmt.Errorf("db error"))

		err := r.ConsumeAndResetPassword(ctx, tokenID, userID, hash)
		assert.Error(t, err)
	})
}

// TestPasswordResetRepository_DeleteExpired covers the expired token sweep.
func TestPasswordResetRepository_DeleteExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPasswordResetRepository(mock)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM password_resets").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	n, err := r.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
