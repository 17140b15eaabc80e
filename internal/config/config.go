package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// minJWTSecretLength is the shortest accepted HMAC signing secret.
const minJWTSecretLength = 32

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr string
	ServerPort int

	// Document store
	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration

	// Sessions
	JWTSecret  string
	JWTIssuer  string
	SessionTTL time.Duration

	// Tokens and hashing
	EmailVerificationTTL time.Duration
	PasswordResetTTL     time.Duration
	BcryptCost           int

	// SMTP (optional; mail is only logged when unset)
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTimeout  time.Duration

	// Public URLs
	AppBaseURL          string
	ClientURL           string
	VerifiedRedirectURL string

	// HTTP hardening
	CookieSecure           bool
	MaxRequestBodySize     int64
	SecurityHeadersEnabled bool
	CORSAllowedOrigins     []string

	LogLevel slog.Level
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnvInt("SERVER_PORT", 8080),

		// Document store defaults
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "accounts"),
		MongoTimeout:  getEnvDuration("MONGO_TIMEOUT", 5*time.Second),

		// Session defaults
		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTIssuer:  getEnv("JWT_ISSUER", "simple-idm-accounts"),
		SessionTTL: getEnvDuration("SESSION_TTL", time.Hour),

		EmailVerificationTTL: getEnvDuration("EMAIL_VERIFICATION_TTL", 10*time.Minute),
		PasswordResetTTL:     getEnvDuration("PASSWORD_RESET_TTL", time.Hour),
		BcryptCost:           getEnvInt("BCRYPT_COST", 10),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@localhost"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", ""),
		SMTPTimeout:  getEnvDuration("SMTP_TIMEOUT", 10*time.Second),

		AppBaseURL:          getEnv("APP_BASE_URL", "http://localhost:8080"),
		ClientURL:           getEnv("CLIENT_URL", "http://localhost:3000"),
		VerifiedRedirectURL: getEnv("VERIFIED_REDIRECT_URL", "http://localhost:3000/login"),

		CookieSecure:           getEnvBool("COOKIE_SECURE", false),
		MaxRequestBodySize:     int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 1<<20)),
		SecurityHeadersEnabled: getEnvBool("SECURITY_HEADERS_ENABLED", true),
		CORSAllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		LogLevel: getEnvLevel("LOG_LEVEL", slog.LevelInfo),
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < minJWTSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if cfg.MongoTimeout <= 0 {
		return nil, fmt.Errorf("MONGO_TIMEOUT must be positive")
	}

	return cfg, nil
}

// HasSMTP returns true if an SMTP relay is configured.
func (c *Config) HasSMTP() bool {
	return c.SMTPHost != ""
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerAddr, c.ServerPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(value)); err == nil {
			return level
		}
	}
	return defaultValue
}
