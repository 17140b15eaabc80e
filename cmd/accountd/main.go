package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tendant/simple-idm-accounts/accounts"
	"github.com/tendant/simple-idm-accounts/internal/config"
	"github.com/tendant/simple-idm-accounts/pkg/repository"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to the document store
	client, err := repository.Connect(ctx, repository.MongoConfig{
		URI:      cfg.MongoURI,
		Database: cfg.MongoDatabase,
		Timeout:  cfg.MongoTimeout,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), cfg.MongoTimeout)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Error("database disconnect error", "error", err)
		}
	}()

	logger.Info("connected to database", "database", cfg.MongoDatabase)

	var smtp *accounts.SMTPConfig
	if cfg.HasSMTP() {
		smtp = &accounts.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			Timeout:  cfg.SMTPTimeout,
		}
		logger.Info("email service enabled", "host", cfg.SMTPHost)
	} else {
		logger.Warn("SMTP_HOST not set, account emails will only be logged")
	}

	svc, err := accounts.New(ctx, accounts.Config{
		DB:                     client.Database(cfg.MongoDatabase),
		StoreTimeout:           cfg.MongoTimeout,
		JWTSecret:              cfg.JWTSecret,
		JWTIssuer:              cfg.JWTIssuer,
		SessionTTL:             cfg.SessionTTL,
		EmailVerificationTTL:   cfg.EmailVerificationTTL,
		PasswordResetTTL:       cfg.PasswordResetTTL,
		BcryptCost:             cfg.BcryptCost,
		SMTP:                   smtp,
		AppBaseURL:             cfg.AppBaseURL,
		ClientURL:              cfg.ClientURL,
		VerifiedRedirectURL:    cfg.VerifiedRedirectURL,
		CookieSecure:           cfg.CookieSecure,
		CORSAllowedOrigins:     cfg.CORSAllowedOrigins,
		MaxRequestBodySize:     cfg.MaxRequestBodySize,
		DisableSecurityHeaders: !cfg.SecurityHeadersEnabled,
		Logger:                 logger,
	})
	if err != nil {
		logger.Error("failed to initialize account service", "error", err)
		os.Exit(1)
	}

	// Create HTTP server
	addr := cfg.Addr()
	server := &http.Server{
		Addr:              addr,
		Handler:           svc.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal or server failure
	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
