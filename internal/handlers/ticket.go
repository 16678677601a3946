// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"codeberg.org/qna-service/backend/internal/repository"
)

type createTicketRequest struct {
	HashTag  string `json:"hash_tag"`
	Question string `json:"question"`
}

// CreateTicket files a new ticket for the authenticated user.
func (h *Handlers) CreateTicket(c echo.Context) error {
	var req createTicketRequest
	if err := c.Bind(&req); err != nil || req.HashTag == "" || req.Question == "" {
		return h.mapError(c, errInvalidRequest)
	}

	ticket, err := h.tickets.Create(c.Request().Context(), CurrentUser(c), req.HashTag, req.Question)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusCreated, ticket)
}

// GetTicket returns one ticket, subject to the visibility rules.
func (h *Handlers) GetTicket(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return h.mapError(c, err)
	}

	ticket, err := h.tickets.Get(c.Request().Context(), id, CurrentUser(c))
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, ticket)
}

// ListTickets returns the tickets visible to the requester, optionally
// restricted to one hashtag via ?filter=name.
func (h *Handlers) ListTickets(c echo.Context) error {
	tickets, err := h.tickets.List(c.Request().Context(), CurrentUser(c), c.QueryParam("filter"))
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, tickets)
}

type closeTicketRequest struct {
	ID int64 `json:"id"`
}

// CloseTicket archives a ticket. Archiving is terminal.
func (h *Handlers) CloseTicket(c echo.Context) error {
	var req closeTicketRequest
	if err := c.Bind(&req); err != nil || req.ID == 0 {
		return h.mapError(c, errInvalidRequest)
	}

	if err := h.tickets.Close(c.Request().Context(), req.ID, CurrentUser(c)); err != nil {
		return h.mapError(c, err)
	}

	return c.NoContent(http.StatusOK)
}

// pathID parses the :id path parameter. An unparsable id behaves like a
// missing record.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, repository.ErrNotFound
	}
	return id, nil
}
