package google

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-idm-accounts/internal/httputil"
	"github.com/tendant/simple-idm-accounts/pkg/auth"
)

// Handler handles sign-in with an identity asserted by Google. The client
// completes the provider flow and posts the resulting profile; the assertion
// is trusted as given.
type Handler struct {
	logger       *slog.Logger
	accounts     *auth.AccountService
	cookieConfig httputil.CookieConfig
}

// NewHandler creates a new Google handler.
func NewHandler(logger *slog.Logger, accounts *auth.AccountService, cookieConfig httputil.CookieConfig) *Handler {
	return &Handler{
		logger:       logger,
		accounts:     accounts,
		cookieConfig: cookieConfig,
	}
}

// RegisterRequest is the profile asserted by the provider.
type RegisterRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// LoginRequest identifies an account registered through the provider.
type LoginRequest struct {
	Email string `json:"email"`
}

// RegisterRoutes registers federated routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/registerwithgoogle", h.Register)
	r.Post("/loginwithgoogle", h.Login)
}

// Register creates an approved, verified account from the asserted profile.
// POST /api/users/registerwithgoogle
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Email == "" {
		httputil.Error(w, http.StatusBadRequest, "name and email are required")
		return
	}

	account, err := h.accounts.RegisterFederated(r.Context(), auth.FederatedInput{
		Name:  req.Name,
		Email: req.Email,
		Image: req.Image,
	})
	if err != nil {
		httputil.DomainError(w, h.logger, err)
		return
	}

	httputil.Success(w, http.StatusCreated, "User registered successfully", map[string]any{
		"user": account.Summary(),
	})
}

// Login issues a session for an existing account without a password step.
// POST /api/users/loginwithgoogle
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		httputil.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	result, err := h.accounts.LoginFederated(r.Context(), req.Email)
	if err != nil {
		httputil.DomainError(w, h.logger, err)
		return
	}

	httputil.Session(w, result.Session, result.Account, h.cookieConfig, "Login successful")
}
