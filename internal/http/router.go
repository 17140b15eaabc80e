package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tendant/simple-idm-accounts/internal/http/features/account"
	"github.com/tendant/simple-idm-accounts/internal/http/features/google"
	"github.com/tendant/simple-idm-accounts/internal/http/features/users"
	"github.com/tendant/simple-idm-accounts/internal/http/middleware"
	"github.com/tendant/simple-idm-accounts/internal/httputil"
	"github.com/tendant/simple-idm-accounts/internal/metrics"
	"github.com/tendant/simple-idm-accounts/pkg/auth"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger   *slog.Logger
	Accounts *auth.AccountService
	Profiles *auth.ProfileService
	Sessions *auth.SessionIssuer
	Metrics  *metrics.Metrics // optional; /metrics is not served when nil

	Cookie              httputil.CookieConfig
	VerifiedRedirectURL string
	SecurityHeaders     middleware.SecurityHeadersConfig
	MaxRequestBodySize  int64
	CORSAllowedOrigins  []string
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBodySize))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	accountHandler := account.NewHandler(cfg.Logger, cfg.Accounts, cfg.Cookie, cfg.VerifiedRedirectURL)
	googleHandler := google.NewHandler(cfg.Logger, cfg.Accounts, cfg.Cookie)
	usersHandler := users.NewHandler(cfg.Logger, cfg.Profiles)

	r.Route("/api/users", func(r chi.Router) {
		accountHandler.RegisterRoutes(r)
		googleHandler.RegisterRoutes(r)
		usersHandler.RegisterRoutes(r,
			middleware.Auth(cfg.Sessions),
			middleware.RequireAdmin(cfg.Profiles, cfg.Logger),
		)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
