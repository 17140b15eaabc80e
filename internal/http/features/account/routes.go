package account

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers local account routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/verify-email", h.VerifyEmail)
	r.Get("/verify-email", h.VerifyEmailLink)
	r.Post("/resend-verification", h.ResendVerification)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/reset-password", h.ResetPassword)
}
