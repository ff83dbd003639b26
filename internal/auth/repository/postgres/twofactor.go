package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/autospare/auth-service/internal/auth/domain"
	"github.com/jackc/pgx/v5"
)

type TwoFactorRepository struct {
	db DBPool
}

func NewTwoFactorRepository(db DBPool) *TwoFactorRepository {
	return &TwoFactorRepository{db: db}
}

func (r *TwoFactorRepository) Create(ctx context.Context, code *domain.TwoFactorCode) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO two_factor_codes (id, user_id, code, phone, attempts, expires_at, created_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6)
	`, code.ID, code.UserID, code.Code, code.Phone, code.ExpiresAt, code.CreatedAt)
	return err
}

// GetLatestUnverified returns the newest pending code; older unverified codes
// are dead the moment a newer one exists.
func (r *TwoFactorRepository) GetLatestUnverified(ctx context.Context, userID string) (*domain.TwoFactorCode, error) {
	query := `
		SELECT id, user_id, code, phone, attempts, verified_at, expires_at, created_at
		FROM two_factor_codes
		WHERE user_id = $1 AND verified_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`

	var code domain.TwoFactorCode
	err := r.db.QueryRow(ctx, query, userID).Scan(&code.ID, &code.UserID, &code.Code, &code.Phone,
		&code.Attempts, &code.VerifiedAt, &code.ExpiresAt, &code.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get verification code: %w", err)
	}

	return &code, nil
}

// IncrementAttempts consumes an attempt and returns the new count. The bump
// happens in the database so concurrent guesses serialize there.
func (r *TwoFactorRepository) IncrementAttempts(ctx context.Context, codeID string) (int, error) {
	var attempts int
	err := r.db.QueryRow(ctx, `
		UPDATE two_factor_codes SET attempts = attempts + 1 WHERE id = $1 RETURNING attempts
	`, codeID).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("failed to increment verification attempts: %w", err)
	}

	return attempts, nil
}

func (r *TwoFactorRepository) MarkVerified(ctx context.Context, codeID string) error {
	_, err := r.db.Exec(ctx, `UPDATE two_factor_codes SET verified_at = now() WHERE id = $1`, codeID)
	return err
}

func (r *TwoFactorRepository) Delete(ctx context.Context, codeID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM two_factor_codes WHERE id = $1`, codeID)
	return err
}

// DeleteExpired removes expired pending codes. Verified rows stay; they are
// the audit trail of completed challenges.
func (r *TwoFactorRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM two_factor_codes WHERE expires_at < now() AND verified_at IS NULL`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired verification codes: %w", err)
	}

	return tag.RowsAffected(), nil
}
