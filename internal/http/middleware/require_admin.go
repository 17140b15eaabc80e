package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-idm-accounts/internal/httputil"
	"github.com/tendant/simple-idm-accounts/pkg/domain"
)

// AdminChecker reports whether an account holds the admin flag.
type AdminChecker interface {
	IsAdmin(ctx context.Context, id string) (bool, error)
}

// RequireAdmin creates middleware that requires an admin account.
// Must be used after Auth middleware. The flag is read from the store on
// every request so revocation takes effect before the session expires.
func RequireAdmin(checker AdminChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetAccountID(r.Context())
			if !ok {
				httputil.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}

			isAdmin, err := checker.IsAdmin(r.Context(), id)
			if errors.Is(err, domain.ErrNotFound) {
				// Session outlived its account.
				httputil.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if err != nil {
				httputil.DomainError(w, logger, err)
				return
			}
			if !isAdmin {
				httputil.Error(w, http.StatusForbidden, "admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
