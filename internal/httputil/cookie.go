package httputil

import (
	"net/http"
	"time"

	"github.com/tendant/simple-idm-accounts/pkg/domain"
)

// SessionCookieName holds the session credential for browser clients.
const SessionCookieName = "access_token"

// CookieConfig holds cookie configuration.
type CookieConfig struct {
	Domain   string
	Path     string
	Secure   bool // Set to true in production (HTTPS)
	SameSite http.SameSite
}

// DefaultCookieConfig returns default cookie configuration.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Path:     "/",
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
	}
}

// SetSessionCookie sets an HttpOnly cookie carrying the session token.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}

// GetSessionTokenFromCookie extracts the session token from its cookie.
func GetSessionTokenFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Session answers a successful login for both browser and API clients: the
// token is set as a cookie and also returned in the body.
func Session(w http.ResponseWriter, cred *domain.SessionCredential, user any, cfg CookieConfig, message string) {
	SetSessionCookie(w, cred.Token, time.Duration(cred.ExpiresIn)*time.Second, cfg)
	Success(w, http.StatusOK, message, map[string]any{
		"token":      cred.Token,
		"token_type": cred.TokenType,
		"expires_in": cred.ExpiresIn,
		"expires_at": cred.ExpiresAt,
		"user":       user,
	})
}
