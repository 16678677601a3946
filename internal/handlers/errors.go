// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/qna-service/backend/internal/repository"
	"codeberg.org/qna-service/backend/internal/services/auth"
	"codeberg.org/qna-service/backend/internal/services/ticket"
	"codeberg.org/qna-service/backend/internal/services/token"
)

// errorResponse is the JSON shape of every rejected request. Rules is
// only set for password policy violations.
type errorResponse struct {
	Error  string   `json:"error"`
	Detail string   `json:"detail,omitempty"`
	Rules  []string `json:"rules,omitempty"`
}

// errInvalidRequest covers malformed bodies and missing fields.
var errInvalidRequest = errors.New("invalid request body")

// mapError translates service errors into HTTP responses. Every error
// in the taxonomy is caller-correctable; nothing is retried here.
func (h *Handlers) mapError(c echo.Context, err error) error {
	var pwErr *auth.PasswordValidationError
	if errors.As(err, &pwErr) {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:  "weak_password",
			Detail: pwErr.Error(),
			Rules:  pwErr.Codes(),
		})
	}

	switch {
	case errors.Is(err, errInvalidRequest):
		return badRequest(c, "invalid_request", err)
	case errors.Is(err, auth.ErrDuplicateEmail):
		return badRequest(c, "duplicate_email", err)
	case errors.Is(err, auth.ErrInvalidEmail):
		return badRequest(c, "invalid_email", err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return badRequest(c, "invalid_credentials", err)
	case errors.Is(err, auth.ErrEmailNotVerified):
		return badRequest(c, "email_not_verified", err)
	case errors.Is(err, auth.ErrUnknownEmail):
		return badRequest(c, "unknown_email", err)
	case errors.Is(err, auth.ErrAlreadyVerified):
		return badRequest(c, "already_verified", err)
	case errors.Is(err, token.ErrInvalidToken):
		return badRequest(c, "invalid_token", err)
	case errors.Is(err, ticket.ErrUnknownTag):
		return badRequest(c, "unknown_tag", err)
	case errors.Is(err, ticket.ErrDuplicateTag):
		return badRequest(c, "duplicate_tag", err)
	case errors.Is(err, ticket.ErrInvalidTag):
		return badRequest(c, "invalid_tag", err)
	case errors.Is(err, ticket.ErrQuestionTooLong):
		return badRequest(c, "invalid_question", err)
	case errors.Is(err, ticket.ErrAlreadyArchived):
		return badRequest(c, "already_archived", err)
	case errors.Is(err, ticket.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorResponse{Error: "forbidden"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "not_found"})
	default:
		slog.Error("request_failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal_error"})
	}
}

func badRequest(c echo.Context, code string, err error) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: code, Detail: err.Error()})
}
