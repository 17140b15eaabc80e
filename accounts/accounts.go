// Package accounts provides a user account service: registration with email
// verification, password login with stateless sessions, password reset,
// Google sign-in and account administration.
//
// Basic usage:
//
//	client, _ := mongo.Connect(options.Client().ApplyURI("mongodb://localhost:27017"))
//
//	svc, err := accounts.New(ctx, accounts.Config{
//	    DB:        client.Database("myapp"),
//	    JWTSecret: "your-secret-key-at-least-32-chars",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r := chi.NewRouter()
//	r.Mount("/", svc.Router())
//	http.ListenAndServe(":8080", r)
//
// Without SMTP settings, account emails are logged instead of sent.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/v2/mongo"

	httpserver "github.com/tendant/simple-idm-accounts/internal/http"
	"github.com/tendant/simple-idm-accounts/internal/http/middleware"
	"github.com/tendant/simple-idm-accounts/internal/httputil"
	"github.com/tendant/simple-idm-accounts/internal/metrics"
	"github.com/tendant/simple-idm-accounts/internal/notification"
	"github.com/tendant/simple-idm-accounts/pkg/auth"
	"github.com/tendant/simple-idm-accounts/pkg/repository"
)

const minJWTSecretLength = 32

// Config holds the configuration for the account service.
type Config struct {
	// DB is the document store (required unless Store is set). Indexes are
	// created on the accounts collection by New.
	DB *mongo.Database

	// Store replaces the Mongo-backed store, e.g. with repository.NewMemoryAccounts().
	Store auth.AccountStore

	// StoreTimeout bounds each store call (default: 5 seconds).
	StoreTimeout time.Duration

	// JWTSecret is the secret key for signing session tokens (required, min 32 chars).
	JWTSecret string

	// JWTIssuer is the issuer claim in session tokens (default: "simple-idm-accounts").
	JWTIssuer string

	// SessionTTL is the lifetime of session tokens (default: 1 hour).
	SessionTTL time.Duration

	// EmailVerificationTTL is the lifetime of verification links (default: 10 minutes).
	EmailVerificationTTL time.Duration

	// PasswordResetTTL is the lifetime of reset links (default: 1 hour).
	PasswordResetTTL time.Duration

	// BcryptCost is the password hashing work factor (default: 10).
	BcryptCost int

	// SMTP enables outbound mail (optional).
	SMTP *SMTPConfig

	// Notifier replaces the built-in mailer entirely (optional).
	Notifier auth.Notifier

	// AppBaseURL is where this service is reachable; verification links point here.
	AppBaseURL string

	// ClientURL is the frontend that renders the reset password form.
	ClientURL string

	// VerifiedRedirectURL is where the verification link lands after success.
	VerifiedRedirectURL string

	CookieSecure           bool
	CORSAllowedOrigins     []string
	MaxRequestBodySize     int64
	DisableSecurityHeaders bool

	// DisableMetrics turns off the Prometheus collectors and /metrics.
	DisableMetrics bool

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

// Accounts is the main account service instance.
type Accounts struct {
	sessions *auth.SessionIssuer
	accounts *auth.AccountService
	profiles *auth.ProfileService
	metrics  *metrics.Metrics
	router   http.Handler
}

// New creates a new account service with the given configuration.
// When DB is set, the accounts collection indexes are created first.
func New(ctx context.Context, cfg Config) (*Accounts, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	store := cfg.Store
	if store == nil {
		if err := repository.EnsureIndexes(ctx, cfg.DB); err != nil {
			return nil, err
		}
		store = repository.NewAccountsRepository(cfg.DB, cfg.StoreTimeout)
	}

	var m *metrics.Metrics
	var recorder auth.FlowRecorder
	if !cfg.DisableMetrics {
		m = metrics.New()
		recorder = m
	}

	clock := auth.SystemClock{}
	sessions := auth.NewSessionIssuer(auth.SessionConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.SessionTTL,
		Clock:  clock,
	})

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = newEmailService(cfg)
	}

	verification := auth.NewTokenCodec(cfg.EmailVerificationTTL, clock)
	accountService := auth.NewAccountService(auth.AccountServiceDeps{
		Store:        store,
		Hasher:       auth.NewBcryptHasher(cfg.BcryptCost),
		Sessions:     sessions,
		Verification: verification,
		Reset:        auth.NewTokenCodec(cfg.PasswordResetTTL, clock),
		Notifier:     notifier,
		Recorder:     recorder,
		Clock:        clock,
		Logger:       cfg.Logger,
	})
	profileService := auth.NewProfileService(auth.ProfileServiceDeps{
		Store:        store,
		Verification: verification,
		Notifier:     notifier,
		Clock:        clock,
		Logger:       cfg.Logger,
	})

	headers := middleware.DefaultSecurityHeaders()
	headers.Enabled = !cfg.DisableSecurityHeaders

	cookie := httputil.DefaultCookieConfig()
	cookie.Secure = cfg.CookieSecure

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:              cfg.Logger,
		Accounts:            accountService,
		Profiles:            profileService,
		Sessions:            sessions,
		Metrics:             m,
		Cookie:              cookie,
		VerifiedRedirectURL: cfg.VerifiedRedirectURL,
		SecurityHeaders:     headers,
		MaxRequestBodySize:  cfg.MaxRequestBodySize,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	return &Accounts{
		sessions: sessions,
		accounts: accountService,
		profiles: profileService,
		metrics:  m,
		router:   router,
	}, nil
}

// Router returns the HTTP handler with all routes.
//
// Routes (under /api/users):
//
//	POST /register              - Register with email/password
//	GET  /verify-email          - Verify email from the mailed link
//	POST /verify-email          - Verify email with token in body
//	POST /resend-verification   - Mail a new verification link
//	POST /login                 - Login with email/password
//	POST /logout                - Clear the session cookie
//	POST /forgot-password       - Mail a reset link
//	POST /reset-password        - Set a new password with a reset token
//	POST /registerwithgoogle    - Register a Google-asserted identity
//	POST /loginwithgoogle       - Login a Google-registered account
//	GET  /me, PATCH /me         - Own profile (protected)
//	GET  /get-all-users         - List accounts (admin)
//	GET  /get-user/{id}         - Get account (admin)
//	PUT  /update-user/{id}      - Update account (admin)
//	DELETE /delete-user/{id}    - Delete account (admin)
//	PATCH /users/{id}/status    - Approve or block (admin)
//	GET  /user-stats            - Account counts (admin)
//
// Plus GET /health and GET /metrics.
func (a *Accounts) Router() http.Handler {
	return a.router
}

// AccountService returns the credential and token flows for direct use.
func (a *Accounts) AccountService() *auth.AccountService {
	return a.accounts
}

// ProfileService returns the profile and administration operations.
func (a *Accounts) ProfileService() *auth.ProfileService {
	return a.profiles
}

// VerifySession validates a session token and returns its claims.
func (a *Accounts) VerifySession(token string) (*auth.SessionClaims, error) {
	return a.sessions.Verify(token)
}

// Registry returns the Prometheus registry, or nil when metrics are disabled.
func (a *Accounts) Registry() *prometheus.Registry {
	if a.metrics == nil {
		return nil
	}
	return a.metrics.Registry()
}

// AuthMiddleware returns middleware that requires a valid session, for
// protecting the embedding application's own routes.
func (a *Accounts) AuthMiddleware() func(http.Handler) http.Handler {
	return middleware.Auth(a.sessions)
}

// AccountID extracts the authenticated account ID placed by AuthMiddleware.
func AccountID(ctx context.Context) (string, bool) {
	return middleware.GetAccountID(ctx)
}

func newEmailService(cfg Config) *notification.EmailService {
	var sender notification.Sender = notification.LogSender{Logger: cfg.Logger}
	if cfg.SMTP != nil && cfg.SMTP.Host != "" {
		sender = notification.NewSMTPSender(notification.EmailConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			FromName: cfg.SMTP.FromName,
			Timeout:  cfg.SMTP.Timeout,
		})
	}
	return notification.NewEmailService(sender, notification.LinkConfig{
		AppBaseURL:      cfg.AppBaseURL,
		ClientURL:       cfg.ClientURL,
		VerificationTTL: cfg.EmailVerificationTTL,
		ResetTTL:        cfg.PasswordResetTTL,
	})
}

func validateConfig(cfg *Config) error {
	if cfg.DB == nil && cfg.Store == nil {
		return errors.New("accounts: DB or Store is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("accounts: JWTSecret is required")
	}
	if len(cfg.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("accounts: JWTSecret must be at least %d characters", minJWTSecretLength)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "simple-idm-accounts"
	}
	if cfg.StoreTimeout == 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = auth.DefaultSessionTTL
	}
	if cfg.EmailVerificationTTL == 0 {
		cfg.EmailVerificationTTL = auth.DefaultEmailVerificationTTL
	}
	if cfg.PasswordResetTTL == 0 {
		cfg.PasswordResetTTL = auth.DefaultPasswordResetTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = auth.DefaultBcryptCost
	}
	if cfg.AppBaseURL == "" {
		cfg.AppBaseURL = "http://localhost:8080"
	}
	if cfg.ClientURL == "" {
		cfg.ClientURL = "http://localhost:3000"
	}
	if cfg.VerifiedRedirectURL == "" {
		cfg.VerifiedRedirectURL = cfg.ClientURL + "/login"
	}
	if cfg.MaxRequestBodySize == 0 {
		cfg.MaxRequestBodySize = 1 << 20
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
}
