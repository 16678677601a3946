// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"codeberg.org/qna-service/backend/internal/handlers"
	"codeberg.org/qna-service/backend/internal/i18n"
	"codeberg.org/qna-service/backend/internal/repository"
	"codeberg.org/qna-service/backend/internal/services/session"
)

// capability is the access level a route demands.
type capability int

const (
	capPublic capability = iota
	capAuthenticated
	capStaff
)

// routeCapabilities is the static operation-to-capability table.
// Routes absent from the table are public. Resolved once per request
// by Authorize.
var routeCapabilities = map[string]capability{
	"POST /auth/send_confirmation_email": capAuthenticated,
	"POST /auth/set_telegram_id":         capAuthenticated,

	"POST /tickets":       capAuthenticated,
	"GET /tickets":        capAuthenticated,
	"GET /tickets/:id":    capAuthenticated,
	"POST /tickets/close": capAuthenticated,

	"POST /hashtags":       capStaff,
	"GET /hashtags":        capStaff,
	"GET /hashtags/:id":    capStaff,
	"PUT /hashtags/:id":    capStaff,
	"DELETE /hashtags/:id": capStaff,
}

// Locale detects the preferred language from the Accept-Language header
// and stores it in the request context for error messages and email.
func Locale(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := c.Request()
		lang := i18n.MatchLanguage(r.Header.Get("Accept-Language"))
		c.SetRequest(r.WithContext(i18n.WithLocale(r.Context(), lang)))
		return next(c)
	}
}

// RequestLogger logs one line per request.
func RequestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		slog.Info("request",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", c.Response().Status,
			"duration", time.Since(start),
		)
		return err
	}
}

// Authenticate resolves the bearer credential, when present, into the
// current user. A missing header leaves the request anonymous; a bad
// credential is rejected outright.
func Authenticate(sessions *session.Service, repo *repository.Repository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return next(c)
			}

			value, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return unauthorized(c)
			}

			claims, err := sessions.Parse(value)
			if err != nil {
				return unauthorized(c)
			}
			userID, err := claims.UserID()
			if err != nil {
				return unauthorized(c)
			}

			// Staff status and verification flags may have changed since
			// the credential was issued, so load the user fresh.
			user, err := repo.GetUserByID(c.Request().Context(), userID)
			if err != nil {
				return unauthorized(c)
			}

			handlers.SetCurrentUser(c, user)
			return next(c)
		}
	}
}

// Authorize checks the request against the static capability table.
func Authorize(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		required := routeCapabilities[c.Request().Method+" "+c.Path()]
		if required == capPublic {
			return next(c)
		}

		user := handlers.CurrentUser(c)
		if user == nil {
			return unauthorized(c)
		}
		if required == capStaff && !user.IsStaff {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}

		return next(c)
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
}
