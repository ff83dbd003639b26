package handler

import (
	"errors"
	"strconv"
	"time"

	autherror "github.com/autospare/auth-service/internal/errors"
	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors onto the HTTP surface. Credential failures
// stay uniform 401s; only post-password failures carry specific reasons.
func respondError(c *fiber.Ctx, err error) error {
	var locked *autherror.LockedError
	if errors.As(err, &locked) {
		minutes := int(time.Until(locked.Until).Minutes()) + 1
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{
			"error":               locked.Error(),
			"retry_after_minutes": minutes,
		})
	}

	var throttled *autherror.ThrottledError
	if errors.As(err, &throttled) {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(throttled.RetryAfter.Seconds())))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": throttled.Error()})
	}

	switch {
	case errors.Is(err, autherror.ErrInvalidCredentials),
		errors.Is(err, autherror.ErrTokenExpired),
		errors.Is(err, autherror.ErrTokenMalformed),
		errors.Is(err, autherror.ErrTokenWrongType),
		errors.Is(err, autherror.ErrSessionNotFound),
		errors.Is(err, autherror.ErrSessionRevoked),
		errors.Is(err, autherror.ErrRefreshTokenNotFound),
		errors.Is(err, autherror.ErrRefreshTokenRevoked),
		errors.Is(err, autherror.ErrRefreshTokenExpired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, autherror.ErrAccountInactive),
		errors.Is(err, autherror.ErrPhoneNotVerified),
		errors.Is(err, autherror.ErrAdminRequired):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, autherror.ErrEmailAlreadyInUse),
		errors.Is(err, autherror.ErrPhoneAlreadyInUse):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, autherror.ErrWeakPassword),
		errors.Is(err, autherror.ErrPasswordReuse),
		errors.Is(err, autherror.ErrInvalidEmail),
		errors.Is(err, autherror.ErrInvalidPhone),
		errors.Is(err, autherror.ErrTwoFactorNotFound),
		errors.Is(err, autherror.ErrTwoFactorExpired),
		errors.Is(err, autherror.ErrTwoFactorTooManyAttempts),
		errors.Is(err, autherror.ErrTwoFactorMismatch),
		errors.Is(err, autherror.ErrResetTokenInvalid),
		errors.Is(err, autherror.ErrResetTokenUsed),
		errors.Is(err, autherror.ErrResetTokenExpired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, autherror.ErrTrustedDeviceNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}
