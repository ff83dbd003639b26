package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/autospare/auth-service/config"
	"github.com/autospare/auth-service/internal/auth/domain"
	"github.com/autospare/auth-service/internal/auth/dto"
	autherror "github.com/autospare/auth-service/internal/errors"
	authconstant "github.com/autospare/auth-service/pkg/constant"
	"github.com/google/uuid"
)

type UserService struct {
	users        domain.UserRepository
	sessions     domain.SessionRepository
	resets       domain.PasswordResetRepository
	twoFactor    *TwoFactorService
	tokenService TokenGenerator
	limiter      domain.RateLimiter
	cfg          *config.Config
}

func NewUserService(
	users domain.UserRepository,
	sessions domain.SessionRepository,
	resets domain.PasswordResetRepository,
	twoFactor *TwoFactorService,
	tokenService TokenGenerator,
	limiter domain.RateLimiter,
	cfg *config.Config,
) *UserService {
	return &UserService{
		users:        users,
		sessions:     sessions,
		resets:       resets,
		twoFactor:    twoFactor,
		tokenService: tokenService,
		limiter:      limiter,
		cfg:          cfg,
	}
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*domain.User, error) {
	if err := ValidateEmail(input.Email); err != nil {
		return nil, err
	}

	phone, err := NormalizePhone(input.Phone)
	if err != nil {
		return nil, err
	}

	if err := ValidatePasswordStrength(input.Password); err != nil {
		return nil, err
	}

	existingUser, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	existingUser, err = s.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, autherror.ErrPhoneAlreadyInUse
	}

	hashedPassword, err := HashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		Phone:        phone,
		FullName:     input.FullName,
		PasswordHash: hashedPassword,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	// The account is usable before the phone is verified; the first code is
	// a courtesy, not a gate.
	if err := s.twoFactor.IssueCode(ctx, user); err != nil {
		log.Printf("warn: failed to issue initial verification code for user %s: %v", user.ID, err)
	}

	return user, nil
}

// Login authenticates a password and decides whether a second factor is
// required. The lockout check runs before the password comparison so a locked
// account answers identically for right and wrong passwords.
func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.LoginResult, error) {
	window := time.Duration(s.cfg.LoginRateWindowSec) * time.Second

	// A counter-store failure rejects the request; failing open here would
	// disable brute-force protection exactly when it is under load.
	allowed, retryAfter, err := s.limiter.Allow(ctx, authconstant.LoginRateKeyPrefix+input.IPAddress, s.cfg.LoginRateLimit, window)
	if err != nil {
		return nil, fmt.Errorf("login rate limit check: %w", err)
	}
	if !allowed {
		return nil, &autherror.ThrottledError{RetryAfter: retryAfter}
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.recordAttempt(ctx, nil, input.Email, input.IPAddress, false, authconstant.ReasonUnknownEmail)
		return nil, autherror.ErrInvalidCredentials
	}

	if user.Locked(time.Now()) {
		s.recordAttempt(ctx, &user.ID, input.Email, input.IPAddress, false, authconstant.ReasonAccountLocked)
		return nil, &autherror.LockedError{Until: *user.LockedUntil}
	}

	if !CheckPassword(user.PasswordHash, input.Password) {
		// Lockout correctness depends on this increment landing, so a store
		// failure here is fatal rather than logged.
		lockUntil := time.Now().Add(time.Duration(s.cfg.LockoutMinutes) * time.Minute)
		if _, _, err := s.users.RecordFailedLogin(ctx, user.ID, s.cfg.LoginMaxAttempts, lockUntil); err != nil {
			return nil, fmt.Errorf("record failed login: %w", err)
		}
		s.recordAttempt(ctx, &user.ID, input.Email, input.IPAddress, false, authconstant.ReasonInvalidPassword)
		// The attempt that trips the lockout is still an invalid-credentials
		// answer; the lockout only surfaces on the next try.
		return nil, autherror.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.recordAttempt(ctx, &user.ID, input.Email, input.IPAddress, false, authconstant.ReasonAccountInactive)
		return nil, autherror.ErrAccountInactive
	}

	trusted, err := s.sessions.HasTrustedDevice(ctx, user.ID, input.Fingerprint)
	if err != nil {
		return nil, err
	}

	if !trusted {
		if err := s.twoFactor.IssueCode(ctx, user); err != nil {
			return nil, err
		}
		return &dto.LoginResult{Requires2FA: true, UserID: user.ID}, nil
	}

	if err := s.users.RecordSuccessfulLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	s.recordAttempt(ctx, &user.ID, input.Email, input.IPAddress, true, "")

	// A login from a trusted device renews its trust window.
	trustedUntil := time.Now().Add(time.Duration(s.cfg.TrustedDeviceDays) * 24 * time.Hour)

	tokens, err := s.issueSession(ctx, user, input.Fingerprint, input.IPAddress, input.UserAgent, true, &trustedUntil)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResult{Tokens: tokens}, nil
}

// VerifyTwoFactor completes a pending login by checking the SMS code, then
// issues the session. Device trust is granted here, never at password time.
func (s *UserService) VerifyTwoFactor(ctx context.Context, input dto.VerifyTwoFactorInput) (*dto.TokenResponse, error) {
	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrTwoFactorNotFound
	}

	if !user.IsActive {
		return nil, autherror.ErrAccountInactive
	}

	if err := s.twoFactor.VerifyCode(ctx, user.ID, input.Code); err != nil {
		return nil, err
	}

	// Completing a code proves ownership of the phone on record.
	if !user.IsPhoneVerified {
		if err := s.users.SetPhoneVerified(ctx, user.ID); err != nil {
			log.Printf("warn: failed to mark phone verified for user %s: %v", user.ID, err)
		}
	}

	if err := s.users.RecordSuccessfulLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	s.recordAttempt(ctx, &user.ID, user.Email, input.IPAddress, true, "")

	var trustedUntil *time.Time
	if input.TrustDevice {
		t := time.Now().Add(time.Duration(s.cfg.TrustedDeviceDays) * 24 * time.Hour)
		trustedUntil = &t
	}

	return s.issueSession(ctx, user, input.Fingerprint, input.IPAddress, input.UserAgent, input.TrustDevice, trustedUntil)
}

// issueSession creates the session row and signs the token pair bound to it.
func (s *UserService) issueSession(ctx context.Context, user *domain.User, fingerprint, ipAddress, userAgent string,
	trusted bool, trustedUntil *time.Time) (*dto.TokenResponse, error) {
	sessionID := uuid.NewString()

	accessToken, refreshToken, _, err := s.tokenService.Generate(user.ID, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	session := &domain.Session{
		ID:                sessionID,
		UserID:            user.ID,
		AccessToken:       accessToken,
		RefreshToken:      refreshToken,
		DeviceFingerprint: fingerprint,
		IPAddress:         ipAddress,
		UserAgent:         userAgent,
		IsTrustedDevice:   trusted,
		TrustedUntil:      trustedUntil,
		ExpiresAt:         now.Add(s.tokenService.GetRefreshTokenExpiry()),
		CreatedAt:         now,
		LastUsedAt:        now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	// Drop oldest sessions beyond the cap
	if err := s.sessions.DeleteOldestSessions(ctx, user.ID, s.cfg.MaxActiveSessions); err != nil {
		log.Printf("warn: failed to delete oldest sessions for user %s: %v", user.ID, err)
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    authconstant.DefaultTokenType,
		ExpiresIn:    int(s.tokenService.GetAccessTokenExpiry().Seconds()),
	}, nil
}

func (s *UserService) recordAttempt(ctx context.Context, userID *string, email, ipAddress string, successful bool, reason string) {
	attempt := &domain.LoginAttempt{
		UserID:        userID,
		Email:         email,
		IPAddress:     ipAddress,
		Successful:    successful,
		FailureReason: reason,
	}
	if err := s.users.RecordLoginAttempt(ctx, attempt); err != nil {
		log.Printf("warn: failed to record login attempt for %s: %v", email, err)
	}
}
