package handler

import (
	"strings"

	"github.com/autospare/auth-service/internal/auth/domain"
	autherror "github.com/autospare/auth-service/internal/errors"
	"github.com/gofiber/fiber/v2"
)

const (
	localUserKey = "currentUser"

	bearerPrefix = "Bearer "
)

func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return "", false
	}

	return token, true
}

// RequireAuth resolves the bearer token to a live user and session and stores
// both in locals. A valid signature over a revoked session does not pass.
func (h *AuthHandler) RequireAuth(c *fiber.Ctx) error {
	token, ok := bearerToken(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing or malformed authorization header",
		})
	}

	user, _, err := h.userService.ResolveCaller(c.Context(), token)
	if err != nil {
		return respondError(c, err)
	}

	c.Locals(localUserKey, user)

	return c.Next()
}

// RequireVerified gates endpoints that only make sense once the phone on
// record has completed a verification code.
func (h *AuthHandler) RequireVerified(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil || !user.IsPhoneVerified {
		return respondError(c, autherror.ErrPhoneNotVerified)
	}

	return c.Next()
}

func (h *AuthHandler) RequireAdmin(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil || !user.IsAdmin {
		return respondError(c, autherror.ErrAdminRequired)
	}

	return c.Next()
}

func currentUser(c *fiber.Ctx) *domain.User {
	user, _ := c.Locals(localUserKey).(*domain.User)
	return user
}
