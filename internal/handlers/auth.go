// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/qna-service/backend/internal/services/auth"
)

type signUpRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// SignUp registers a new account and returns it with a session
// credential.
func (h *Handlers) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil || req.Email == "" || req.FirstName == "" || req.LastName == "" || req.Password == "" {
		return h.mapError(c, errInvalidRequest)
	}

	user, err := h.auth.SignUp(c.Request().Context(), auth.SignUpParams{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return h.mapError(c, err)
	}

	return h.respondWithSession(c, http.StatusCreated, user)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn authenticates a user and returns it with a session credential.
func (h *Handlers) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Password == "" {
		return h.mapError(c, errInvalidRequest)
	}

	user, err := h.auth.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.mapError(c, err)
	}

	return h.respondWithSession(c, http.StatusOK, user)
}

type confirmEmailRequest struct {
	Token string `json:"token"`
}

// ConfirmEmail verifies an account's email address via a single-use
// token. The POST variant returns the user with a fresh credential.
func (h *Handlers) ConfirmEmail(c echo.Context) error {
	var req confirmEmailRequest
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return h.mapError(c, errInvalidRequest)
	}

	user, err := h.auth.ConfirmEmail(c.Request().Context(), req.Token)
	if err != nil {
		return h.mapError(c, err)
	}

	return h.respondWithSession(c, http.StatusOK, user)
}

// ConfirmEmailLink is the GET variant used by the link in the
// verification email; it answers a bare success.
func (h *Handlers) ConfirmEmailLink(c echo.Context) error {
	value := c.QueryParam("token")
	if value == "" {
		return h.mapError(c, errInvalidRequest)
	}

	if _, err := h.auth.ConfirmEmail(c.Request().Context(), value); err != nil {
		return h.mapError(c, err)
	}

	return c.NoContent(http.StatusOK)
}

// SendConfirmationEmail queues a fresh verification email for the
// authenticated user.
func (h *Handlers) SendConfirmationEmail(c echo.Context) error {
	user := CurrentUser(c)

	if err := h.auth.ResendConfirmation(c.Request().Context(), user); err != nil {
		return h.mapError(c, err)
	}

	return c.NoContent(http.StatusOK)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword issues a reset token and queues the reset email. The
// response does not depend on the email delivery outcome.
func (h *Handlers) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return h.mapError(c, errInvalidRequest)
	}

	if err := h.auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return h.mapError(c, err)
	}

	return c.NoContent(http.StatusOK)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword sets a new password proven by a reset token.
func (h *Handlers) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil || req.Token == "" || req.Password == "" {
		return h.mapError(c, errInvalidRequest)
	}

	user, err := h.auth.ResetPassword(c.Request().Context(), req.Token, req.Password)
	if err != nil {
		return h.mapError(c, err)
	}

	return h.respondWithSession(c, http.StatusOK, user)
}

type setTelegramIDRequest struct {
	TelegramID int64 `json:"telegram_id"`
}

// SetTelegramID links the authenticated user to the support bot.
func (h *Handlers) SetTelegramID(c echo.Context) error {
	var req setTelegramIDRequest
	if err := c.Bind(&req); err != nil || req.TelegramID == 0 {
		return h.mapError(c, errInvalidRequest)
	}

	user := CurrentUser(c)
	if err := h.auth.SetTelegramID(c.Request().Context(), user, req.TelegramID); err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, user)
}
