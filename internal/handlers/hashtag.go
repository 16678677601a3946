// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type hashTagRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateHashTag creates a new ticket category. Staff only.
func (h *Handlers) CreateHashTag(c echo.Context) error {
	var req hashTagRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return h.mapError(c, errInvalidRequest)
	}

	tag, err := h.tickets.CreateTag(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusCreated, tag)
}

// ListHashTags returns all categories.
func (h *Handlers) ListHashTags(c echo.Context) error {
	tags, err := h.tickets.ListTags(c.Request().Context())
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, tags)
}

// GetHashTag returns one category by id.
func (h *Handlers) GetHashTag(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return h.mapError(c, err)
	}

	tag, err := h.tickets.GetTag(c.Request().Context(), id)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, tag)
}

// UpdateHashTag changes a category's name or description.
func (h *Handlers) UpdateHashTag(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return h.mapError(c, err)
	}

	var req hashTagRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return h.mapError(c, errInvalidRequest)
	}

	tag, err := h.tickets.UpdateTag(c.Request().Context(), id, req.Name, req.Description)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, tag)
}

// DeleteHashTag removes a category.
func (h *Handlers) DeleteHashTag(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return h.mapError(c, err)
	}

	if err := h.tickets.DeleteTag(c.Request().Context(), id); err != nil {
		return h.mapError(c, err)
	}

	return c.NoContent(http.StatusOK)
}
