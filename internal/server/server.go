// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, storage, services and transport
// together and runs the HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/urfave/cli/v3"

	"codeberg.org/qna-service/backend/internal/config"
	"codeberg.org/qna-service/backend/internal/database"
	"codeberg.org/qna-service/backend/internal/handlers"
	"codeberg.org/qna-service/backend/internal/i18n"
	"codeberg.org/qna-service/backend/internal/mailer"
	"codeberg.org/qna-service/backend/internal/repository"
	"codeberg.org/qna-service/backend/internal/services/auth"
	"codeberg.org/qna-service/backend/internal/services/email"
	"codeberg.org/qna-service/backend/internal/services/session"
	"codeberg.org/qna-service/backend/internal/services/ticket"
	"codeberg.org/qna-service/backend/internal/services/token"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// i18n
	if err := i18n.Init(); err != nil {
		return fmt.Errorf("failed to init i18n: %w", err)
	}

	// Database
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	repo := repository.New(db)

	// Services
	emailSvc, err := email.NewService(&cfg.SMTP, cfg.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to create email service: %w", err)
	}

	queue := mailer.New(emailSvc, cfg.Mailer.Workers, cfg.Mailer.QueueSize)
	defer queue.Close()

	sessions, err := session.NewService(cfg.Session.Secret, cfg.Session.SessionDuration())
	if err != nil {
		return fmt.Errorf("failed to create session service: %w", err)
	}

	tokens := token.NewService(repo, cfg.Auth.TokenTTLDuration())
	authSvc := auth.NewService(repo, tokens, emailSvc, queue, &cfg.Auth)
	ticketSvc := ticket.NewService(repo)

	e := NewRouter(handlers.New(authSvc, ticketSvc, sessions), sessions, repo, cfg.Server.MaxBodySize)

	return startWithGracefulShutdown(e, cfg)
}

// NewRouter builds the echo instance with all middleware and routes.
func NewRouter(h *handlers.Handlers, sessions *session.Service, repo *repository.Repository, maxBodyMB int) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dM", maxBodyMB)))
	e.Use(RequestLogger)
	e.Use(Locale)
	e.Use(Authenticate(sessions, repo))
	e.Use(Authorize)

	setupRoutes(e, h)
	return e
}

func setupRoutes(e *echo.Echo, h *handlers.Handlers) {
	e.GET("/health", h.Health)

	a := e.Group("/auth")
	a.POST("/sign_up", h.SignUp)
	a.POST("/sign_in", h.SignIn)
	a.POST("/confirm_email", h.ConfirmEmail)
	a.GET("/confirm_email", h.ConfirmEmailLink)
	a.POST("/send_confirmation_email", h.SendConfirmationEmail)
	a.POST("/forgot_password", h.ForgotPassword)
	a.POST("/reset_password", h.ResetPassword)
	a.POST("/set_telegram_id", h.SetTelegramID)

	t := e.Group("/tickets")
	t.POST("", h.CreateTicket)
	t.GET("", h.ListTickets)
	t.GET("/:id", h.GetTicket)
	t.POST("/close", h.CloseTicket)

	g := e.Group("/hashtags")
	g.POST("", h.CreateHashTag)
	g.GET("", h.ListHashTags)
	g.GET("/:id", h.GetHashTag)
	g.PUT("/:id", h.UpdateHashTag)
	g.DELETE("/:id", h.DeleteHashTag)
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
