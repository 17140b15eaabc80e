package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-idm-accounts/internal/http/middleware"
	"github.com/tendant/simple-idm-accounts/internal/httputil"
	"github.com/tendant/simple-idm-accounts/pkg/auth"
	"github.com/tendant/simple-idm-accounts/pkg/domain"
)

// maxPageSize caps the limit query parameter of the list endpoint.
const maxPageSize = 100

// Handler handles profile endpoints for the signed-in account and the
// administrative account endpoints.
type Handler struct {
	logger   *slog.Logger
	profiles *auth.ProfileService
}

// NewHandler creates a new users handler.
func NewHandler(logger *slog.Logger, profiles *auth.ProfileService) *Handler {
	return &Handler{logger: logger, profiles: profiles}
}

// UpdateRequest represents a profile update request.
type UpdateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Gender   string `json:"gender"`
	PhoneNo  string `json:"phoneNo"`
	Image    string `json:"image,omitempty"`
}

// StatusRequest represents an approval or blocking action.
type StatusRequest struct {
	Status string `json:"status"`
}

// GetMe returns the current account's profile.
// GET /api/users/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetAccountID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.writeAccount(w, r, id)
}

// UpdateMe updates the current account's profile.
// PATCH /api/users/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetAccountID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.update(w, r, id)
}

// List returns accounts newest first, paged by offset and limit.
// GET /api/users/get-all-users?offset=0&limit=50
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	opts, ok := listOptions(r)
	if !ok {
		httputil.Error(w, http.StatusBadRequest, "offset and limit must be non-negative integers")
		return
	}

	accounts, err := h.profiles.List(r.Context(), opts)
	if err != nil {
		httputil.DomainError(w, h.logger, err)
		return
	}

	summaries := make([]domain.AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		summaries = append(summaries, a.Summary())
	}
	httputil.Success(w, http.StatusOK, "", map[string]any{
		"users": summaries,
		"count": len(summaries),
	})
}

// Get returns one account.
// GET /api/users/get-user/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.writeAccount(w, r, chi.URLParam(r, "id"))
}

// Update overwrites another account's profile.
// PUT /api/users/update-user/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, chi.URLParam(r, "id"))
}

// Delete removes an account.
// DELETE /api/users/delete-user/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if self, _ := middleware.GetAccountID(r.Context()); self == id {
		httputil.Error(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := h.profiles.Delete(r.Context(), id); err != nil {
		httputil.DomainError(w, h.logger, err)
		return
	}
	httputil.Success(w, http.StatusOK, "User deleted successfully", nil)
}

// SetStatus approves or blocks an account.
// PATCH /api/users/users/{id}/status
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		httputil.Error(w, http.StatusBadRequest, "status is required")
		return
	}

	account, err := h.profiles.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httputil.DomainError(w, h.logger, err)
		return
	}
	httputil.Success(w, http.StatusOK, "Status updated", map[string]any{"user": account.Summary()})
}

// Stats returns account counts.
// GET /api/users/user-stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.profiles.Statistics(r.Context())
	if err != nil {
		httputil.DomainError(w, h.logger, err)
		return
	}
	httputil.Success(w, http.StatusOK, "", map[string]any{"stats": stats})
}

func (h *Handler) writeAccount(w http.ResponseWriter, r *http.Request, id string) {
	account, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		httputil.DomainError(w, h.logger, err)
		return
	}
	httputil.Success(w, http.StatusOK, "", map[string]any{"user": account.Summary()})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req UpdateRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	account, err := h.profiles.Update(r.Context(), id, auth.ProfileUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Username: req.Username,
		Gender:   req.Gender,
		PhoneNo:  req.PhoneNo,
		Image:    req.Image,
	})
	if err != nil {
		httputil.DomainError(w, h.logger, err)
		return
	}
	httputil.Success(w, http.StatusOK, "User updated successfully", map[string]any{"user": account.Summary()})
}

func listOptions(r *http.Request) (domain.ListOptions, bool) {
	var opts domain.ListOptions
	q := r.URL.Query()
	for _, p := range []struct {
		key string
		dst *int64
	}{{"offset", &opts.Offset}, {"limit", &opts.Limit}} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return opts, false
		}
		*p.dst = n
	}
	if opts.Limit > maxPageSize {
		opts.Limit = maxPageSize
	}
	return opts, true
}
