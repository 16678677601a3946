// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers contains the JSON HTTP transport layer.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/qna-service/backend/internal/models"
	"codeberg.org/qna-service/backend/internal/services/auth"
	"codeberg.org/qna-service/backend/internal/services/session"
	"codeberg.org/qna-service/backend/internal/services/ticket"
)

// userContextKey is where the authenticate middleware stores the
// current user in the echo context.
const userContextKey = "current_user"

// SetCurrentUser stores the authenticated user in the request context.
func SetCurrentUser(c echo.Context, user *models.User) {
	c.Set(userContextKey, user)
}

// CurrentUser returns the authenticated user, or nil for anonymous
// requests.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	auth     *auth.Service
	tickets  *ticket.Service
	sessions *session.Service
}

// New creates a new Handlers instance.
func New(authSvc *auth.Service, ticketSvc *ticket.Service, sessions *session.Service) *Handlers {
	return &Handlers{
		auth:     authSvc,
		tickets:  ticketSvc,
		sessions: sessions,
	}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// userWithToken is the payload returned by the authentication
// endpoints: the user plus a fresh session credential.
type userWithToken struct {
	*models.User
	Token string `json:"token"`
}

// respondWithSession issues a session credential for the user and
// writes the combined payload.
func (h *Handlers) respondWithSession(c echo.Context, status int, user *models.User) error {
	token, err := h.sessions.Issue(user)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(status, userWithToken{User: user, Token: token})
}
