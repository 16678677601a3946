// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ticket enforces ownership and staff visibility rules over
// tickets and manages hashtag categories.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/qna-service/backend/internal/models"
	"codeberg.org/qna-service/backend/internal/repository"
)

var (
	ErrUnknownTag      = errors.New("hashtag does not exist")
	ErrDuplicateTag    = errors.New("hashtag with this name already exists")
	ErrForbidden       = errors.New("requester is not the creator or staff")
	ErrAlreadyArchived = errors.New("ticket already marked as archived")
	ErrQuestionTooLong = errors.New("question exceeds the maximum length")
	ErrInvalidTag      = errors.New("hashtag name or description is invalid")
)

// Service mediates all ticket and hashtag access.
type Service struct {
	repo *repository.Repository
}

// NewService creates a ticket service.
func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// canAccess reports whether the requester may see a ticket. Staff see
// everything; everyone else only their own tickets.
func canAccess(requester *models.User, ticket *models.Ticket) bool {
	return requester.IsStaff || ticket.CreatorID == requester.ID
}

// Create files a new ticket under the named hashtag.
func (s *Service) Create(ctx context.Context, creator *models.User, tagName, question string) (*models.Ticket, error) {
	if question == "" || len(question) > models.QuestionMaxLen {
		return nil, ErrQuestionTooLong
	}

	tag, err := s.repo.GetHashTagByName(ctx, tagName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownTag
		}
		return nil, fmt.Errorf("failed to look up hashtag: %w", err)
	}

	ticket := &models.Ticket{
		CreatorID:   creator.ID,
		HashTagID:   tag.ID,
		HashTagName: tag.Name,
		Question:    question,
	}
	if err := s.repo.CreateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	slog.Info("ticket_created", "ticket_id", ticket.ID, "creator_id", creator.ID, "hashtag", tag.Name)
	return ticket, nil
}

// Get returns a ticket by id if the requester is allowed to see it.
func (s *Service) Get(ctx context.Context, id int64, requester *models.User) (*models.Ticket, error) {
	ticket, err := s.repo.GetTicketByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(requester, ticket) {
		return nil, ErrForbidden
	}
	return ticket, nil
}

// List returns the tickets visible to the requester: everything for
// staff, only own tickets otherwise. tagFilter restricts the set to one
// hashtag first; a name that matches no hashtag restricts nothing.
func (s *Service) List(ctx context.Context, requester *models.User, tagFilter string) ([]models.Ticket, error) {
	filter := repository.TicketFilter{}

	if tagFilter != "" {
		tag, err := s.repo.GetHashTagByName(ctx, tagFilter)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up hashtag: %w", err)
		}
		if err == nil {
			filter.HashTagID = &tag.ID
		}
	}

	if !requester.IsStaff {
		filter.CreatorID = &requester.ID
	}

	return s.repo.ListTickets(ctx, filter)
}

// Close archives a ticket. Archiving is one-way and terminal.
func (s *Service) Close(ctx context.Context, id int64, requester *models.User) error {
	ticket, err := s.repo.GetTicketByID(ctx, id)
	if err != nil {
		return err
	}
	if !canAccess(requester, ticket) {
		return ErrForbidden
	}
	if ticket.IsArchived {
		return ErrAlreadyArchived
	}

	if err := s.repo.ArchiveTicket(ctx, id); err != nil {
		return fmt.Errorf("failed to archive ticket: %w", err)
	}

	slog.Info("ticket_closed", "ticket_id", id, "by_user_id", requester.ID)
	return nil
}

// CreateTag creates a new hashtag. Staff only; enforced by the route guard.
func (s *Service) CreateTag(ctx context.Context, name, description string) (*models.HashTag, error) {
	if name == "" || len(name) > models.HashTagNameMaxLen || len(description) > models.HashTagDescriptionMaxLen {
		return nil, ErrInvalidTag
	}

	_, err := s.repo.GetHashTagByName(ctx, name)
	if err == nil {
		return nil, ErrDuplicateTag
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up hashtag: %w", err)
	}

	tag := &models.HashTag{Name: name, Description: description}
	if err := s.repo.CreateHashTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to create hashtag: %w", err)
	}

	slog.Info("hashtag_created", "hashtag_id", tag.ID, "name", tag.Name)
	return tag, nil
}

// ListTags returns all hashtags.
func (s *Service) ListTags(ctx context.Context) ([]models.HashTag, error) {
	return s.repo.ListHashTags(ctx)
}

// GetTag returns a hashtag by id.
func (s *Service) GetTag(ctx context.Context, id int64) (*models.HashTag, error) {
	return s.repo.GetHashTagByID(ctx, id)
}

// UpdateTag changes a hashtag's name and description.
func (s *Service) UpdateTag(ctx context.Context, id int64, name, description string) (*models.HashTag, error) {
	if name == "" || len(name) > models.HashTagNameMaxLen || len(description) > models.HashTagDescriptionMaxLen {
		return nil, ErrInvalidTag
	}

	tag, err := s.repo.GetHashTagByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != tag.Name {
		existing, err := s.repo.GetHashTagByName(ctx, name)
		if err == nil && existing.ID != id {
			return nil, ErrDuplicateTag
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up hashtag: %w", err)
		}
	}

	tag.Name = name
	tag.Description = description
	if err := s.repo.UpdateHashTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to update hashtag: %w", err)
	}
	return tag, nil
}

// DeleteTag removes a hashtag by id.
func (s *Service) DeleteTag(ctx context.Context, id int64) error {
	if _, err := s.repo.GetHashTagByID(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteHashTag(ctx, id)
}
