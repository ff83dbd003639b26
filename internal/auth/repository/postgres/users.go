package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/autospare/auth-service/internal/auth/domain"
	autherror "github.com/autospare/auth-service/internal/errors"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db DBPool
}

func NewUserRepository(db DBPool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, phone, full_name, password_hash, is_active, is_phone_verified, is_admin,
		failed_login_count, locked_until, last_login_at, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.Phone, &user.FullName, &user.PasswordHash,
		&user.IsActive, &user.IsPhoneVerified, &user.IsAdmin,
		&user.FailedLoginCount, &user.LockedUntil, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1 LIMIT 1`

	user, err := scanUser(r.db.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by phone: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// Create inserts the user. Unique violations map to the taxonomy errors so a
// concurrent duplicate register loses with a conflict, not a 500.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (id, email, phone, full_name, password_hash, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, user.ID, user.Email, user.Phone, user.FullName, user.PasswordHash, user.IsActive, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return autherror.ErrEmailAlreadyInUse
		}
		if isUniqueViolation(err, "users_phone_key") {
			return autherror.ErrPhoneAlreadyInUse
		}
		return err
	}

	return nil
}

// RecordFailedLogin bumps the failure counter and installs the lockout in one
// statement, so concurrent failures cannot each read a stale counter.
func (r *UserRepository) RecordFailedLogin(ctx context.Context, userID string, maxAttempts int,
	lockUntil time.Time) (int, *time.Time, error) {
	query := `
		UPDATE users
		SET failed_login_count = CASE WHEN failed_login_count + 1 >= $2 THEN 0 ELSE failed_login_count + 1 END,
		    locked_until = CASE WHEN failed_login_count + 1 >= $2 THEN $3 ELSE locked_until END,
		    updated_at = now()
		WHERE id = $1
		RETURNING failed_login_count, locked_until
	`

	var count int
	var lockedUntil *time.Time
	if err := r.db.QueryRow(ctx, query, userID, maxAttempts, lockUntil).Scan(&count, &lockedUntil); err != nil {
		return 0, nil, fmt.Errorf("failed to record failed login: %w", err)
	}

	return count, lockedUntil, nil
}

func (r *UserRepository) RecordSuccessfulLogin(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET failed_login_count = 0, locked_until = NULL, last_login_at = now(), updated_at = now()
		WHERE id = $1
	`, userID)
	return err
}

func (r *UserRepository) SetPhoneVerified(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET is_phone_verified = TRUE, updated_at = now() WHERE id = $1
	`, userID)
	return err
}

func (r *UserRepository) UpdatePhone(ctx context.Context, userID, phone string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET phone = $2, is_phone_verified = FALSE, updated_at = now() WHERE id = $1
	`, userID, phone)
	if err != nil && isUniqueViolation(err, "users_phone_key") {
		return autherror.ErrPhoneAlreadyInUse
	}
	return err
}

// UpdatePasswordAndRevokeSessions writes the new hash and revokes every live
// session in one transaction; no session may survive a password change.
func (r *UserRepository) UpdatePasswordAndRevokeSessions(ctx context.Context, userID, passwordHash string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin password update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1
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

func (r *UserRepository) RecordLoginAttempt(ctx context.Context, attempt *domain.LoginAttempt) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO login_attempts (id, user_id, email, ip_address, successful, failure_reason, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, now())
	`, attempt.UserID, attempt.Email, attempt.IPAddress, attempt.Successful, attempt.FailureReason)
	return err
}

func (r *UserRepository) DeleteOldLoginAttempts(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	tag, err := r.db.Exec(ctx, `DELETE FROM login_attempts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old login attempts: %w", err)
	}

	return tag.RowsAffected(), nil
}
