package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-idm-accounts/pkg/domain"
)

// ServerErrorMessage is the only message returned for unexpected faults.
const ServerErrorMessage = "Server Error"

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Success writes {"success": true, "message": message} plus any extra fields.
func Success(w http.ResponseWriter, status int, message string, fields map[string]any) {
	body := map[string]any{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range fields {
		body[k] = v
	}
	JSON(w, status, body)
}

// Error writes {"success": false, "message": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{"success": false, "message": message})
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrDuplicateIdentity, http.StatusConflict},
	{domain.ErrAlreadyVerified, http.StatusConflict},
	{domain.ErrWeakCredential, http.StatusBadRequest},
	{domain.ErrInvalidCredentials, http.StatusBadRequest},
	{domain.ErrInvalidOrExpiredToken, http.StatusBadRequest},
	{domain.ErrMissingFields, http.StatusBadRequest},
	{domain.ErrInvalidEmail, http.StatusBadRequest},
	{domain.ErrInvalidUsername, http.StatusBadRequest},
	{domain.ErrInvalidGender, http.StatusBadRequest},
	{domain.ErrInvalidPassword, http.StatusBadRequest},
	{domain.ErrInvalidStatus, http.StatusBadRequest},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrInvalidToken, http.StatusUnauthorized},
	{domain.ErrAccountNotApproved, http.StatusForbidden},
	{domain.ErrDeliveryFailed, http.StatusBadGateway},
}

// DomainError maps err to a status and writes the sentinel's message. Wrapped
// detail is never sent to the client. Anything unrecognised is logged and
// answered with a generic 500.
func DomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			if e.status >= http.StatusInternalServerError {
				logger.Error("request failed", "error", err)
			}
			Error(w, e.status, e.err.Error())
			return
		}
	}
	logger.Error("unexpected error", "error", err)
	Error(w, http.StatusInternalServerError, ServerErrorMessage)
}

// DecodeJSON decodes the request body into dst. On failure it writes 413 for
// an oversized body or 400 otherwise and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
