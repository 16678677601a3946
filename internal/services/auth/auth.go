// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth orchestrates sign-up, sign-in and the token-driven email
// confirmation and password reset flows.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"golang.org/x/crypto/bcrypt"

	"codeberg.org/qna-service/backend/internal/config"
	"codeberg.org/qna-service/backend/internal/mailer"
	"codeberg.org/qna-service/backend/internal/models"
	"codeberg.org/qna-service/backend/internal/repository"
	"codeberg.org/qna-service/backend/internal/services/email"
	"codeberg.org/qna-service/backend/internal/services/token"
)

var (
	ErrDuplicateEmail     = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownEmail       = errors.New("user with this email does not exist")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrEmailNotVerified   = errors.New("email address is not verified")
	ErrAlreadyVerified    = errors.New("email address is already verified")
)

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// MailQueue is the background job submission interface for outgoing
// email. Submission never fails from the caller's point of view.
type MailQueue interface {
	Enqueue(msg mailer.Message)
}

// Service is the authentication flow controller.
type Service struct {
	repo              *repository.Repository
	tokens            *token.Service
	emails            *email.Service
	queue             MailQueue
	cfg               *config.AuthConfig
	passwordValidator *PasswordValidator
}

// NewService creates an authentication service.
func NewService(repo *repository.Repository, tokens *token.Service, emails *email.Service, queue MailQueue, cfg *config.AuthConfig) *Service {
	return &Service{
		repo:              repo,
		tokens:            tokens,
		emails:            emails,
		queue:             queue,
		cfg:               cfg,
		passwordValidator: DefaultPasswordValidator(),
	}
}

// PasswordValidator returns the password validator for use in handlers
func (s *Service) PasswordValidator() *PasswordValidator {
	return s.passwordValidator
}

// SignUpParams holds the parameters for user registration
type SignUpParams struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// SignUp creates a new, unverified user account, issues an email
// verification token and queues the verification email. Email delivery
// is fire-and-forget; its outcome is never surfaced to the caller.
func (s *Service) SignUp(ctx context.Context, params SignUpParams) (*models.User, error) {
	// Validate email format
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return nil, ErrInvalidEmail
	}

	// Check if user already exists
	_, err := s.repo.GetUserByEmail(ctx, params.Email)
	if err == nil {
		return nil, ErrDuplicateEmail
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	// Validate password
	validation := s.passwordValidator.Validate(params.Password, params.Email, params.FirstName, params.LastName)
	if !validation.Valid {
		return nil, &PasswordValidationError{Errors: validation.Errors}
	}

	// Hash password
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: string(passwordHash),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.sendVerification(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("sign_up_success", "user_id", user.ID, "email", user.Email)

	return user, nil
}

// sendVerification issues a fresh email verification token and queues
// the verification email.
func (s *Service) sendVerification(ctx context.Context, user *models.User) error {
	value, err := s.tokens.Issue(ctx, user.ID, models.TokenKindEmailVerification)
	if err != nil {
		return fmt.Errorf("failed to issue verification token: %w", err)
	}

	msg, err := s.emails.VerificationMessage(ctx, user, value)
	if err != nil {
		// The account exists either way; the user can request a resend.
		slog.Error("verification_email_render_failed", "user_id", user.ID, "error", err)
		return nil
	}
	s.queue.Enqueue(msg)
	return nil
}

// SignIn authenticates a user. Unknown email and wrong password produce
// the same error so responses do not leak account existence.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform bcrypt comparison to prevent timing attacks
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("sign_in_failed", "email", email, "reason", "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("sign_in_failed", "email", email, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	if s.cfg.RequireVerifiedEmail && !user.IsEmailVerified {
		slog.Warn("sign_in_failed", "email", email, "reason", "email_not_verified")
		return nil, ErrEmailNotVerified
	}

	slog.Info("sign_in_success", "user_id", user.ID, "email", email)
	return user, nil
}

// ConfirmEmail validates an email verification token, marks the owning
// user as verified and consumes the token. The token is deleted only
// after the flag is persisted, so a storage failure leaves it usable.
func (s *Service) ConfirmEmail(ctx context.Context, tokenValue string) (*models.User, error) {
	user, tok, err := s.tokens.Validate(ctx, tokenValue, models.TokenKindEmailVerification)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkEmailVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to mark email verified: %w", err)
	}
	user.IsEmailVerified = true

	if err := s.tokens.Consume(ctx, tok); err != nil {
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}

	slog.Info("email_confirmed", "user_id", user.ID)
	return user, nil
}

// ResendConfirmation issues a fresh verification token for an already
// registered user and queues the verification email again.
func (s *Service) ResendConfirmation(ctx context.Context, user *models.User) error {
	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}
	return s.sendVerification(ctx, user)
}

// ForgotPassword issues a password reset token and queues the reset
// email. The existence check is deliberate: this endpoint reports an
// unknown email while SignIn does not.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.repo.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnknownEmail
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	value, err := s.tokens.Issue(ctx, user.ID, models.TokenKindResetPassword)
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	msg, err := s.emails.PasswordResetMessage(ctx, user, value)
	if err != nil {
		slog.Error("reset_email_render_failed", "user_id", user.ID, "error", err)
		return nil
	}
	s.queue.Enqueue(msg)

	slog.Info("forgot_password", "user_id", user.ID)
	return nil
}

// ResetPassword validates a reset token and sets the new password. A
// weak password fails before the token is touched, so the same token
// stays valid for a retry with a stronger one.
func (s *Service) ResetPassword(ctx context.Context, tokenValue, newPassword string) (*models.User, error) {
	user, tok, err := s.tokens.Validate(ctx, tokenValue, models.TokenKindResetPassword)
	if err != nil {
		return nil, err
	}

	validation := s.passwordValidator.Validate(newPassword, user.Email, user.FirstName, user.LastName)
	if !validation.Valid {
		return nil, &PasswordValidationError{Errors: validation.Errors}
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdateUserPassword(ctx, user.ID, string(passwordHash)); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	user.PasswordHash = string(passwordHash)

	if err := s.tokens.Consume(ctx, tok); err != nil {
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}

	slog.Info("password_reset", "user_id", user.ID)
	return user, nil
}

// SetTelegramID links the user's account to the support bot.
func (s *Service) SetTelegramID(ctx context.Context, user *models.User, telegramID int64) error {
	if err := s.repo.SetUserTelegramID(ctx, user.ID, telegramID); err != nil {
		return fmt.Errorf("failed to set telegram id: %w", err)
	}
	user.TelegramID = &telegramID
	return nil
}

// EnsureStaff makes sure an account with the given email exists and has
// staff status, creating it when missing. Used by the create-staff CLI
// command; no verification email is sent, the account starts verified.
func (s *Service) EnsureStaff(ctx context.Context, emailAddr, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, emailAddr)
	if err == nil {
		if user.IsStaff {
			return user, nil
		}
		if err := s.repo.SetUserStaff(ctx, user.ID, true); err != nil {
			return nil, fmt.Errorf("failed to set staff: %w", err)
		}
		user.IsStaff = true
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if _, err := mail.ParseAddress(emailAddr); err != nil {
		return nil, ErrInvalidEmail
	}

	validation := s.passwordValidator.Validate(password, emailAddr)
	if !validation.Valid {
		return nil, &PasswordValidationError{Errors: validation.Errors}
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user = &models.User{
		Email:           emailAddr,
		PasswordHash:    string(passwordHash),
		IsEmailVerified: true,
		IsStaff:         true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("staff_created", "user_id", user.ID, "email", user.Email)
	return user, nil
}
