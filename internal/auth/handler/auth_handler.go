package handler

import (
	"github.com/autospare/auth-service/internal/auth/device"
	"github.com/autospare/auth-service/internal/auth/domain"
	"github.com/autospare/auth-service/internal/auth/dto"
	"github.com/autospare/auth-service/internal/auth/service"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	userService *service.UserService
}

func NewAuthHandler(userService *service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// clientMeta derives the device fingerprint and request metadata from the
// connection. The fingerprint is computed server-side; clients cannot supply
// their own.
func clientMeta(c *fiber.Ctx) (fingerprint, ip, userAgent string) {
	ip = c.IP()
	userAgent = string(c.Request().Header.UserAgent())
	fingerprint = device.Fingerprint(ip, userAgent, c.Get(fiber.HeaderAcceptLanguage))

	return fingerprint, ip, userAgent
}

func userOutput(user *domain.User) dto.UserOutput {
	return dto.UserOutput{
		ID:              user.ID,
		Email:           user.Email,
		Phone:           user.Phone,
		FullName:        user.FullName,
		IsPhoneVerified: user.IsPhoneVerified,
		IsAdmin:         user.IsAdmin,
		CreatedAt:       user.CreatedAt,
		LastLoginAt:     user.LastLoginAt,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	user, err := h.userService.Register(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "registered, verify your phone after first login",
		"user":    userOutput(user),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	input.Fingerprint, input.IPAddress, input.UserAgent = clientMeta(c)

	result, err := h.userService.Login(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}

	if result.Requires2FA {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"requires_2fa": true,
			"user_id":      result.UserID,
			"message":      "verification code sent",
		})
	}

	return c.Status(fiber.StatusOK).JSON(result.Tokens)
}

func (h *AuthHandler) VerifyTwoFactor(c *fiber.Ctx) error {
	var input dto.VerifyTwoFactorInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	input.Fingerprint, input.IPAddress, input.UserAgent = clientMeta(c)

	tokens, err := h.userService.VerifyTwoFactor(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	tokens, err := h.userService.Refresh(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

// Logout deliberately skips RequireAuth: revoking an already-revoked session
// must still answer 200, and RequireAuth would reject that token first.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, ok := bearerToken(c)
	if ok {
		if err := h.userService.Logout(c.Context(), token); err != nil {
			return respondError(c, err)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var input dto.ResetRequestInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.userService.RequestPasswordReset(c.Context(), input); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "if that email is registered, a reset link has been sent",
	})
}

func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var input dto.ResetConfirmInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.userService.ConfirmPasswordReset(c.Context(), input); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "password reset"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := currentUser(c)

	return c.Status(fiber.StatusOK).JSON(userOutput(user))
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var input dto.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.userService.ChangePassword(c.Context(), currentUser(c), input); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "password changed, all sessions revoked",
	})
}

func (h *AuthHandler) UpdatePhone(c *fiber.Ctx) error {
	var input dto.UpdatePhoneInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.userService.UpdatePhone(c.Context(), currentUser(c), input); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "phone updated, verification code sent",
	})
}

func (h *AuthHandler) SendTwoFactor(c *fiber.Ctx) error {
	if err := h.userService.ResendTwoFactor(c.Context(), currentUser(c)); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "verification code sent"})
}

func (h *AuthHandler) ListTrustedDevices(c *fiber.Ctx) error {
	devices, err := h.userService.ListTrustedDevices(c.Context(), currentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"devices": devices})
}

func (h *AuthHandler) RevokeTrustedDevice(c *fiber.Ctx) error {
	if err := h.userService.RevokeTrustedDevice(c.Context(), currentUser(c).ID, c.Params("id")); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "device trust revoked"})
}

func (h *AuthHandler) ForceLogout(c *fiber.Ctx) error {
	revoked, err := h.userService.ForceLogoutByUserID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":          "sessions revoked",
		"revoked_sessions": revoked,
	})
}
