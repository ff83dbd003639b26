package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/autospare/auth-service/internal/auth/domain"
	"github.com/autospare/auth-service/internal/auth/dto"
	"github.com/autospare/auth-service/internal/auth/service"
	autherror "github.com/autospare/auth-service/internal/errors"
	authconstant "github.com/autospare/auth-service/pkg/constant"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_RequestPasswordReset_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	user := &domain.User{ID: "user-id", Email: "test@example.com"}
	input := dto.ResetRequestInput{Email: user.Email}

	var row *domain.PasswordResetToken

	// Mock expectations
	m.users.EXPECT().GetByEmail(gomock.Any(), input.Email).Return(user, nil)
	m.resets.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r *domain.PasswordResetToken) error {
			row = r
			return nil
		})

	before := time.Now()
	err := s.RequestPasswordReset(context.Background(), input)

	assert.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, user.ID, row.UserID)
	// 32 random bytes, base64 url-encoded without padding
	assert.Len(t, row.Token, 43)
	assert.WithinDuration(t, before.Add(60*time.Minute), row.ExpiresAt, time.Minute)
	assert.Nil(t, row.UsedAt)
}

func TestUserService_RequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	input := dto.ResetRequestInput{Email: "nobody@example.com"}

	// Mock expectations; nothing is created and nothing is reported, so the
	// endpoint cannot be used to probe for accounts.
	m.users.EXPECT().GetByEmail(gomock.Any(), input.Email).Return(nil, nil)

	err := s.RequestPasswordReset(context.Background(), input)

	assert.NoError(t, err)
}

func TestUserService_ConfirmPasswordReset_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	row := &domain.PasswordResetToken{
		ID:        "reset-id",
		UserID:    "user-id",
		Token:     "reset-token",
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}

	input := dto.ResetConfirmInput{Token: row.Token, NewPassword: "NewPassword123"}

	var storedHash string

	// Mock expectations
	m.resets.EXPECT().GetByToken(gomock.Any(), row.Token).Return(row, nil)
	m.resets.EXPECT().ConsumeAndResetPassword(gomock.Any(), row.ID, row.UserID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _, _, hash string) error {
			storedHash = hash
			return nil
		})

	err := s.ConfirmPasswordReset(context.Background(), input)

	assert.NoError(t, err)
	assert.True(t, service.CheckPassword(storedHash, input.NewPassword))
}

func TestUserService_ConfirmPasswordReset_InvalidToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	input := dto.ResetConfirmInput{Token: "bogus", NewPassword: "NewPassword123"}

	// Mock expectations
	m.resets.EXPECT().GetByToken(gomock.Any(), input.Token).Return(nil, nil)

	err := s.ConfirmPasswordReset(context.Background(), input)

	assert.ErrorIs(t, err, autherror.ErrResetTokenInvalid)
}

func TestUserService_ConfirmPasswordReset_UsedToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	usedAt := time.Now().Add(-time.Hour)
	row := &domain.PasswordResetToken{
		ID:        "reset-id",
		UserID:    "user-id",
		Token:     "reset-token",
		UsedAt:    &usedAt,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}

	input := dto.ResetConfirmInput{Token: row.Token, NewPassword: "NewPassword123"}

	// Mock expectations
	m.resets.EXPECT().GetByToken(gomock.Any(), row.Token).Return(row, nil)

	err := s.ConfirmPasswordReset(context.Background(), input)

	assert.ErrorIs(t, err, autherror.ErrResetTokenUsed)
}

func TestUserService_ConfirmPasswordReset_ExpiredToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	row := &domain.PasswordResetToken{
		ID:        "reset-id",
		UserID:    "user-id",
		Token:     "reset-token",
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	input := dto.ResetConfirmInput{Token: row.Token, NewPassword: "NewPassword123"}

	// Mock expectations
	m.resets.EXPECT().GetByToken(gomock.Any(), row.Token).Return(row, nil)

	err := s.ConfirmPasswordReset(context.Background(), input)

	assert.ErrorIs(t, err, autherror.ErrResetTokenExpired)
}

func TestUserService_ConfirmPasswordReset_WeakPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	row := &domain.PasswordResetToken{
		ID:        "reset-id",
		UserID:    "user-id",
		Token:     "reset-token",
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}

	input := dto.ResetConfirmInput{Token: row.Token, NewPassword: "weak"}

	// Mock expectations; the token is not consumed by a rejected password.
	m.resets.EXPECT().GetByToken(gomock.Any(), row.Token).Return(row, nil)

	err := s.ConfirmPasswordReset(context.Background(), input)

	assert.ErrorIs(t, err, autherror.ErrWeakPassword)
}

func TestUserService_ChangePassword_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	current := "Password123"
	user := &domain.User{
		ID:           "user-id",
		PasswordHash: hashForTest(t, current),
	}

	input := dto.ChangePasswordInput{
		CurrentPassword: current,
		NewPassword:     "NewPassword456",
	}

	var storedHash string

	// Mock expectations
	m.users.EXPECT().UpdatePasswordAndRevokeSessions(gomock.Any(), user.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _, hash string) error {
			storedHash = hash
			return nil
		})

	err := s.ChangePassword(context.Background(), user, input)

	assert.NoError(t, err)
	assert.True(t, service.CheckPassword(storedHash, input.NewPassword))
}

func TestUserService_ChangePassword_WrongCurrent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	user := &domain.User{
		ID:           "user-id",
		PasswordHash: hashForTest(t, "Password123"),
	}

	input := dto.ChangePasswordInput{
		CurrentPassword: "NotMyPassword1",
		NewPassword:     "NewPassword456",
	}

	err := s.ChangePassword(context.Background(), user, input)

	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
}

func TestUserService_ChangePassword_Reuse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	current := "Password123"
	user := &domain.User{
		ID:           "user-id",
		PasswordHash: hashForTest(t, current),
	}

	input := dto.ChangePasswordInput{
		CurrentPassword: current,
		NewPassword:     current,
	}

	err := s.ChangePassword(context.Background(), user, input)

	assert.ErrorIs(t, err, autherror.ErrPasswordReuse)
}

func TestUserService_ChangePassword_Weak(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	current := "Password123"
	user := &domain.User{
		ID:           "user-id",
		PasswordHash: hashForTest(t, current),
	}

	input := dto.ChangePasswordInput{
		CurrentPassword: current,
		NewPassword:     "weak",
	}

	err := s.ChangePassword(context.Background(), user, input)

	assert.ErrorIs(t, err, autherror.ErrWeakPassword)
}

func TestUserService_UpdatePhone_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	user := &domain.User{
		ID:              "user-id",
		Phone:           "+15551234567",
		IsPhoneVerified: true,
	}

	input := dto.UpdatePhoneInput{Phone: "+1 (555) 987-6543"}

	// Mock expectations
	m.users.EXPECT().GetByPhone(gomock.Any(), "+15559876543").Return(nil, nil)
	m.users.EXPECT().UpdatePhone(gomock.Any(), user.ID, "+15559876543").Return(nil)
	m.codes.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	m.sms.EXPECT().Send(gomock.Any(), "+15559876543", gomock.Any()).Return(nil)

	err := s.UpdatePhone(context.Background(), user, input)

	assert.NoError(t, err)
	// The number must be re-verified before it counts for anything.
	assert.Equal(t, "+15559876543", user.Phone)
	assert.False(t, user.IsPhoneVerified)
}

func TestUserService_UpdatePhone_Taken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	user := &domain.User{ID: "user-id", Phone: "+15551234567"}
	other := &domain.User{ID: "other-id", Phone: "+15559876543"}

	input := dto.UpdatePhoneInput{Phone: other.Phone}

	// Mock expectations
	m.users.EXPECT().GetByPhone(gomock.Any(), other.Phone).Return(other, nil)

	err := s.UpdatePhone(context.Background(), user, input)

	assert.ErrorIs(t, err, autherror.ErrPhoneAlreadyInUse)
}

func TestUserService_UpdatePhone_OwnNumberIsNotAConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	user := &domain.User{ID: "user-id", Phone: "+15551234567"}

	input := dto.UpdatePhoneInput{Phone: user.Phone}

	// Mock expectations; the lookup finds the caller's own row.
	m.users.EXPECT().GetByPhone(gomock.Any(), user.Phone).Return(user, nil)
	m.users.EXPECT().UpdatePhone(gomock.Any(), user.ID, user.Phone).Return(nil)
	m.codes.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	m.sms.EXPECT().Send(gomock.Any(), user.Phone, gomock.Any()).Return(nil)

	err := s.UpdatePhone(context.Background(), user, input)

	assert.NoError(t, err)
}

func TestUserService_UpdatePhone_InvalidNumber(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	user := &domain.User{ID: "user-id"}

	err := s.UpdatePhone(context.Background(), user, dto.UpdatePhoneInput{Phone: "nope"})

	assert.ErrorIs(t, err, autherror.ErrInvalidPhone)
}

func TestUserService_ResendTwoFactor_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	cfg := testConfig()
	s := newTestService(m, cfg)

	user := &domain.User{ID: "user-id", Phone: "+15551234567"}

	// Mock expectations
	m.limiter.EXPECT().Allow(gomock.Any(), authconstant.TwoFactorRateKeyPrefix+user.ID,
		cfg.TwoFactorMaxAttempts, 10*time.Minute).Return(true, time.Duration(0), nil)
	m.codes.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	m.sms.EXPECT().Send(gomock.Any(), user.Phone, gomock.Any()).Return(nil)

	err := s.ResendTwoFactor(context.Background(), user)

	assert.NoError(t, err)
}

func TestUserService_ResendTwoFactor_Throttled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	user := &domain.User{ID: "user-id", Phone: "+15551234567"}

	// Mock expectations
	m.limiter.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(false, 30*time.Second, nil)

	err := s.ResendTwoFactor(context.Background(), user)

	var throttled *autherror.ThrottledError
	assert.ErrorAs(t, err, &throttled)
	assert.Equal(t, 30*time.Second, throttled.RetryAfter)
}

func TestUserService_ResendTwoFactor_LimiterFailureRejects(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newServiceMocks(ctrl)
	s := newTestService(m, testConfig())

	user := &domain.User{ID: "user-id", Phone: "+15551234567"}

	// Mock expectations
	m.limiter.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(false, time.Duration(0), errors.New("redis unreachable"))

	err := s.ResendTwoFactor(context.Background(), user)

	assert.ErrorContains(t, err, "resend rate limit check")
}
