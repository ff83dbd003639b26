package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/autospare/auth-service/internal/auth/domain"
	"github.com/autospare/auth-service/internal/auth/dto"
	autherror "github.com/autospare/auth-service/internal/errors"
	authconstant "github.com/autospare/auth-service/pkg/constant"
	"github.com/google/uuid"
)

const resetTokenBytes = 32

// RequestPasswordReset issues a single-use reset token. Unknown emails are a
// silent no-op so the endpoint cannot be used to probe for accounts.
func (s *UserService) RequestPasswordReset(ctx context.Context, input dto.ResetRequestInput) error {
	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	now := time.Now()

	row := &domain.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(time.Duration(s.cfg.ResetTokenExpiryMin) * time.Minute),
		CreatedAt: now,
	}

	if err := s.resets.Create(ctx, row); err != nil {
		return err
	}

	// Delivery (email) lives outside this service; surface the token in
	// development so the flow is testable end to end.
	if s.cfg.Env != "production" {
		log.Printf("[DEV RESET] token for %s: %s", user.Email, token)
	}

	return nil
}

// ConfirmPasswordReset consumes a reset token. Marking it used, storing the
// new hash and revoking every session happen in one transaction; a token can
// only ever be spent once.
func (s *UserService) ConfirmPasswordReset(ctx context.Context, input dto.ResetConfirmInput) error {
	row, err := s.resets.GetByToken(ctx, input.Token)
	if err != nil {
		return err
	}
	if row == nil {
		return autherror.ErrResetTokenInvalid
	}

	if row.UsedAt != nil {
		return autherror.ErrResetTokenUsed
	}

	if row.Expired(time.Now()) {
		return autherror.ErrResetTokenExpired
	}

	if err := ValidatePasswordStrength(input.NewPassword); err != nil {
		return err
	}

	hash, err := HashPassword(input.NewPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}

	return s.resets.ConsumeAndResetPassword(ctx, row.ID, row.UserID, hash)
}

// ChangePassword rehashes the password for an authenticated caller and logs
// out every session, including the current one.
func (s *UserService) ChangePassword(ctx context.Context, user *domain.User, input dto.ChangePasswordInput) error {
	if !CheckPassword(user.PasswordHash, input.CurrentPassword) {
		return autherror.ErrInvalidCredentials
	}

	if CheckPassword(user.PasswordHash, input.NewPassword) {
		return autherror.ErrPasswordReuse
	}

	if err := ValidatePasswordStrength(input.NewPassword); err != nil {
		return err
	}

	hash, err := HashPassword(input.NewPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}

	return s.users.UpdatePasswordAndRevokeSessions(ctx, user.ID, hash)
}

// UpdatePhone stores a new phone number and drops the verified flag; the
// number stays unverified until a fresh code is completed.
func (s *UserService) UpdatePhone(ctx context.Context, user *domain.User, input dto.UpdatePhoneInput) error {
	phone, err := NormalizePhone(input.Phone)
	if err != nil {
		return err
	}

	existing, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != user.ID {
		return autherror.ErrPhoneAlreadyInUse
	}

	if err := s.users.UpdatePhone(ctx, user.ID, phone); err != nil {
		return err
	}

	user.Phone = phone
	user.IsPhoneVerified = false

	if err := s.twoFactor.IssueCode(ctx, user); err != nil {
		log.Printf("warn: failed to issue verification code for user %s: %v", user.ID, err)
	}

	return nil
}

// ResendTwoFactor sends a fresh code to an authenticated caller, bounded per
// user so the SMS gateway cannot be farmed.
func (s *UserService) ResendTwoFactor(ctx context.Context, user *domain.User) error {
	window := time.Duration(s.cfg.TwoFactorExpiryMin) * time.Minute

	allowed, retryAfter, err := s.limiter.Allow(ctx, authconstant.TwoFactorRateKeyPrefix+user.ID, s.cfg.TwoFactorMaxAttempts, window)
	if err != nil {
		return fmt.Errorf("resend rate limit check: %w", err)
	}
	if !allowed {
		return &autherror.ThrottledError{RetryAfter: retryAfter}
	}

	return s.twoFactor.IssueCode(ctx, user)
}
