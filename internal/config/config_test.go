package config

import (
	"log/slog"
	"os"
	"reflect"
	"testing"
	"time"
)

const testSecret = "test-secret-key-at-least-32-characters"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	// Clear any other env vars that might interfere
	envVars := []string{"SERVER_ADDR", "SERVER_PORT", "MONGO_URI", "MONGO_DATABASE", "MONGO_TIMEOUT",
		"SESSION_TTL", "EMAIL_VERIFICATION_TTL", "PASSWORD_RESET_TTL", "BCRYPT_COST", "SMTP_HOST",
		"COOKIE_SECURE", "CORS_ALLOWED_ORIGINS", "LOG_LEVEL"}
	for _, v := range envVars {
		t.Setenv(v, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Check defaults
	if cfg.ServerAddr != "0.0.0.0" {
		t.Errorf("ServerAddr = %q, want %q", cfg.ServerAddr, "0.0.0.0")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("MongoURI = %q, want %q", cfg.MongoURI, "mongodb://localhost:27017")
	}
	if cfg.MongoDatabase != "accounts" {
		t.Errorf("MongoDatabase = %q, want %q", cfg.MongoDatabase, "accounts")
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v, want %v", cfg.SessionTTL, time.Hour)
	}
	if cfg.EmailVerificationTTL != 10*time.Minute {
		t.Errorf("EmailVerificationTTL = %v, want %v", cfg.EmailVerificationTTL, 10*time.Minute)
	}
	if cfg.PasswordResetTTL != time.Hour {
		t.Errorf("PasswordResetTTL = %v, want %v", cfg.PasswordResetTTL, time.Hour)
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, 10)
	}
	if cfg.HasSMTP() {
		t.Error("HasSMTP() should be false by default")
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure should default to false")
	}
	if !cfg.SecurityHeadersEnabled {
		t.Error("SecurityHeadersEnabled should default to true")
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelInfo)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q, want %q", cfg.Addr(), "0.0.0.0:8080")
	}
}

func TestLoad_RequiredJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Error("Load should fail when JWT_SECRET is not set")
	}
}

func TestLoad_ShortJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")

	_, err := Load()
	if err == nil {
		t.Error("Load should fail when JWT_SECRET is shorter than 32 characters")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MONGO_URI", "mongodb://db.example.com:27017")
	t.Setenv("PASSWORD_RESET_TTL", "30m")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != 9090 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 9090)
	}
	if cfg.MongoURI != "mongodb://db.example.com:27017" {
		t.Errorf("MongoURI = %q, want %q", cfg.MongoURI, "mongodb://db.example.com:27017")
	}
	if cfg.PasswordResetTTL != 30*time.Minute {
		t.Errorf("PasswordResetTTL = %v, want %v", cfg.PasswordResetTTL, 30*time.Minute)
	}
	if !cfg.HasSMTP() {
		t.Error("HasSMTP() should be true")
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should be true")
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, want) {
		t.Errorf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, want)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelDebug)
	}
}

func TestGetEnvInt_InvalidValue(t *testing.T) {
	os.Setenv("TEST_INT", "not-a-number")
	defer os.Unsetenv("TEST_INT")

	result := getEnvInt("TEST_INT", 42)
	if result != 42 {
		t.Errorf("getEnvInt should return default for invalid value, got %d", result)
	}
}

func TestGetEnvDuration_InvalidValue(t *testing.T) {
	os.Setenv("TEST_DURATION", "invalid")
	defer os.Unsetenv("TEST_DURATION")

	result := getEnvDuration("TEST_DURATION", 5*time.Minute)
	if result != 5*time.Minute {
		t.Errorf("getEnvDuration should return default for invalid value, got %v", result)
	}
}

func TestGetEnvBool_InvalidValue(t *testing.T) {
	t.Setenv("TEST_BOOL", "maybe")

	if !getEnvBool("TEST_BOOL", true) {
		t.Error("getEnvBool should return default for invalid value")
	}
}

func TestGetEnvLevel_InvalidValue(t *testing.T) {
	t.Setenv("TEST_LEVEL", "loud")

	if got := getEnvLevel("TEST_LEVEL", slog.LevelWarn); got != slog.LevelWarn {
		t.Errorf("getEnvLevel should return default for invalid value, got %v", got)
	}
}
