package handler

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	auth := app.Group("/api/v1/auth")

	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/verify-2fa", h.VerifyTwoFactor)
	auth.Post("/refresh", h.Refresh)
	auth.Post("/logout", h.Logout)
	auth.Post("/reset-password", h.RequestPasswordReset)
	auth.Post("/reset-password/confirm", h.ConfirmPasswordReset)

	auth.Get("/me", h.RequireAuth, h.Me)
	auth.Post("/change-password", h.RequireAuth, h.ChangePassword)
	auth.Patch("/phone", h.RequireAuth, h.UpdatePhone)
	auth.Post("/send-2fa", h.RequireAuth, h.SendTwoFactor)

	auth.Get("/trusted-devices", h.RequireAuth, h.RequireVerified, h.ListTrustedDevices)
	auth.Delete("/trusted-devices/:id", h.RequireAuth, h.RequireVerified, h.RevokeTrustedDevice)

	// Admin-only endpoints
	admin := auth.Group("/admin", h.RequireAuth, h.RequireAdmin)
	admin.Delete("/users/:id/sessions", h.ForceLogout)
}
