package service

import (
	"context"
	"log"
	"time"

	"github.com/autospare/auth-service/internal/auth/domain"
	"github.com/autospare/auth-service/internal/auth/dto"
	autherror "github.com/autospare/auth-service/internal/errors"
)

// Refresh rotates a token pair. The old session is revoked with a conditional
// update, so two carriers of the same refresh token cannot both win; the loser
// gets ErrRefreshTokenRevoked.
func (s *UserService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenResponse, error) {
	claims, err := s.tokenService.VerifyRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByRefreshToken(ctx, input.RefreshToken)
	if err != nil {
		return nil, err
	}
	if session == nil || session.ID != claims.SessionID {
		return nil, autherror.ErrRefreshTokenNotFound
	}

	if session.Revoked() {
		return nil, autherror.ErrRefreshTokenRevoked
	}

	if session.Expired(time.Now()) {
		return nil, autherror.ErrRefreshTokenExpired
	}

	won, err := s.sessions.Revoke(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, autherror.ErrRefreshTokenRevoked
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrRefreshTokenNotFound
	}
	if !user.IsActive {
		return nil, autherror.ErrAccountInactive
	}

	// The replacement session keeps the device identity and trust of the one
	// it rotates out; trust renewal happens only at login.
	return s.issueSession(ctx, user, session.DeviceFingerprint, session.IPAddress, session.UserAgent,
		session.IsTrustedDevice, session.TrustedUntil)
}

// Logout revokes the session carrying the access token. Unknown or already
// revoked tokens are still a success; logout is idempotent.
func (s *UserService) Logout(ctx context.Context, accessToken string) error {
	if _, err := s.sessions.RevokeByAccessToken(ctx, accessToken); err != nil {
		return err
	}
	return nil
}

// ResolveCaller authenticates a bearer token for guarded endpoints. A valid
// signature is not enough: the session row must exist and be unrevoked.
func (s *UserService) ResolveCaller(ctx context.Context, accessToken string) (*domain.User, *domain.Session, error) {
	if _, err := s.tokenService.VerifyAccessToken(accessToken); err != nil {
		return nil, nil, err
	}

	session, err := s.sessions.GetByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, autherror.ErrSessionNotFound
	}
	if session.Revoked() {
		return nil, nil, autherror.ErrSessionRevoked
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, autherror.ErrSessionNotFound
	}
	if !user.IsActive {
		return nil, nil, autherror.ErrAccountInactive
	}

	if err := s.sessions.TouchLastUsed(ctx, session.ID); err != nil {
		log.Printf("warn: failed to touch session %s: %v", session.ID, err)
	}

	return user, session, nil
}

func (s *UserService) ListTrustedDevices(ctx context.Context, userID string) ([]dto.TrustedDeviceOutput, error) {
	sessions, err := s.sessions.ListTrustedDevices(ctx, userID)
	if err != nil {
		return nil, err
	}

	devices := make([]dto.TrustedDeviceOutput, 0, len(sessions))
	for i := range sessions {
		devices = append(devices, dto.TrustedDeviceOutput{
			ID:           sessions[i].ID,
			IPAddress:    sessions[i].IPAddress,
			UserAgent:    sessions[i].UserAgent,
			LastUsedAt:   sessions[i].LastUsedAt,
			TrustedUntil: sessions[i].TrustedUntil,
		})
	}

	return devices, nil
}

// RevokeTrustedDevice clears the trust flag on one of the caller's sessions.
// The session itself stays alive; the next login from that device needs 2FA.
func (s *UserService) RevokeTrustedDevice(ctx context.Context, userID, sessionID string) error {
	revoked, err := s.sessions.RevokeDeviceTrust(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if !revoked {
		return autherror.ErrTrustedDeviceNotFound
	}
	return nil
}

// ForceLogoutByUserID revokes every session a user holds. Admin only.
func (s *UserService) ForceLogoutByUserID(ctx context.Context, userID string) (int64, error) {
	return s.sessions.RevokeAllByUserID(ctx, userID)
}
