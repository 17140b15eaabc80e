package account

import (
	"log/slog"
	"net/http"

	"github.com/tendant/simple-idm-accounts/internal/httputil"
	"github.com/tendant/simple-idm-accounts/pkg/auth"
)

// Handler handles local account endpoints: registration, verification,
// login and password reset.
type Handler struct {
	logger              *slog.Logger
	accounts            *auth.AccountService
	cookieConfig        httputil.CookieConfig
	verifiedRedirectURL string
}

// NewHandler creates a new account handler.
func NewHandler(
	logger *slog.Logger,
	accounts *auth.AccountService,
	cookieConfig httputil.CookieConfig,
	verifiedRedirectURL string,
) *Handler {
	return &Handler{
		logger:              logger,
		accounts:            accounts,
		cookieConfig:        cookieConfig,
		verifiedRedirectURL: verifiedRedirectURL,
	}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Gender   string `json:"gender"`
	PhoneNo  string `json:"phoneNo"`
	Image    string `json:"image,omitempty"`
}

// VerifyEmailRequest represents an email verification request.
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// EmailRequest carries a single email address.
type EmailRequest struct {
	Email string `json:"email"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetPasswordRequest represents a password reset request.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// Register handles account registration.
// POST /api/users/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	if req.Name == "" || req.Email == "" || req.Username == "" || req.Password == "" || req.Gender == "" || req.PhoneNo == "" {
		httputil.Error(w, http.StatusBadRequest, "all fields are required")
		return
	}

	account, err := h.accounts.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Gender:   req.Gender,
		PhoneNo:  req.PhoneNo,
		Image:    req.Image,
	})
	if err != nil {
		httputil.DomainError(w, h.logger, err)
		return
	}

	httputil.Success(w, http.StatusCreated,
		"User registered successfully. Please check your email to verify your account.",
		map[string]any{"user": account.Summary()})
}

// VerifyEmail handles email verification from a JSON body.
// POST /api/users/verify-email
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Token == "" {
		httputil.Error(w, http.StatusBadRequest, "email and token are required")
		return
	}

	if err := h.accounts.VerifyEmail(r.Context(), req.Email, req.Token); err != nil {
		httputil.DomainError(w, h.logger, err)
		return
	}

	httputil.Success(w, http.StatusOK, "Email verified successfully", nil)
}

// VerifyEmailLink handles the link mailed at registration and redirects to the
// client once the address is verified.
// GET /api/users/verify-email?token=...&email=...
func (h *Handler) VerifyEmailLink(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	token := r.URL.Query().Get("token")
	if email == "" || token == "" {
		httputil.Error(w, http.StatusBadRequest, "email and token are required")
		return
	}

	if err := h.accounts.VerifyEmail(r.Context(), email, token); err != nil {
		httputil.DomainError(w, h.logger, err)
		return
	}

	http.Redirect(w, r, h.verifiedRedirectURL, http.StatusFound)
}

// ResendVerification mails a fresh verification link.
// POST /api/users/resend-verification
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		httputil.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.accounts.ResendVerification(r.Context(), req.Email); err != nil {
		httputil.DomainError(w, h.logger, err)
		return
	}

	httputil.Success(w, http.StatusOK, "Verification email sent", nil)
}

// Login handles password login. The session token is returned in the body
// and set as an HttpOnly cookie for browser clients.
// POST /api/users/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.DomainError(w, h.logger, err)
		return
	}

	httputil.Session(w, result.Session, result.Account, h.cookieConfig, "Login successful")
}

// Logout clears the session cookie. Sessions are stateless, so a token held
// elsewhere stays valid until it expires.
// POST /api/users/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	httputil.ClearSessionCookie(w, h.cookieConfig)
	httputil.Success(w, http.StatusOK, "Logged out", nil)
}

// ForgotPassword mails a password reset link.
// POST /api/users/forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		httputil.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		httputil.DomainError(w, h.logger, err)
		return
	}

	httputil.Success(w, http.StatusOK, "Password reset email sent", nil)
}

// ResetPassword sets a new password using a reset token.
// POST /api/users/reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		httputil.Error(w, http.StatusBadRequest, "token and newPassword are required")
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		httputil.DomainError(w, h.logger, err)
		return
	}

	httputil.Success(w, http.StatusOK, "Password reset successful", nil)
}
