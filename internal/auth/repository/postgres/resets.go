package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/autospare/auth-service/internal/auth/domain"
	autherror "github.com/autospare/auth-service/internal/errors"
	"github.com/jackc/pgx/v5"
)

type PasswordResetRepository struct {
	db DBPool
}

func NewPasswordResetRepository(db DBPool) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) Create(ctx context.Context, token *domain.PasswordResetToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO password_resets (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, token.ID, token.UserID, token.Token, token.ExpiresAt, token.CreatedAt)
	return err
}

func (r *PasswordResetRepository) GetByToken(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	query := `
		SELECT id, user_id, token, used_at, expires_at, created_at
		FROM password_resets
		WHERE token = $1
		LIMIT 1
	`

	var row domain.PasswordResetToken
	err := r.db.QueryRow(ctx, query, token).Scan(&row.ID, &row.UserID, &row.Token,
		&row.UsedAt, &row.ExpiresAt, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	return &row, nil
}

// ConsumeAndResetPassword spends the token, writes the new hash and revokes
// every session in one transaction. The conditional used_at update makes the
// token single-use even under concurrent confirms; the loser rolls back.
func (r *PasswordResetRepository) ConsumeAndResetPassword(ctx context.Context, tokenID, userID, passwordHash string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin reset transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE password_resets SET used_at = now() WHERE id = $1 AND used_at IS NULL
	`, tokenID)
	if err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrResetTokenUsed
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, failed_login_count = 0, locked_until = NULL, updated_at = now()
		WHERE id = $1
	`, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE user_sessions SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL
	`, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PasswordResetRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM password_resets WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}

	return tag.RowsAffected(), nil
}
