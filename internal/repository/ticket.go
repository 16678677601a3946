// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/qna-service/backend/internal/models"
)

const ticketColumns = `tickets.id, tickets.creator_id, tickets.hashtag_id,
	hashtags.name AS hashtag_name, tickets.question, tickets.is_archived, tickets.created_at`

// TicketFilter restricts ListTickets. Nil fields are ignored.
type TicketFilter struct {
	CreatorID *int64
	HashTagID *int64
}

// CreateTicket inserts a new ticket and fills in its ID.
func (r *Repository) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	ticket.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tickets (creator_id, hashtag_id, question, is_archived, created_at) VALUES (?, ?, ?, ?, ?)`,
		ticket.CreatorID, ticket.HashTagID, ticket.Question, ticket.IsArchived, ticket.CreatedAt)
	if err != nil {
		return err
	}

	ticket.ID, err = res.LastInsertId()
	return err
}

// GetTicketByID retrieves a ticket with its hashtag name.
func (r *Repository) GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.GetContext(ctx, &ticket,
		`SELECT `+ticketColumns+` FROM tickets
		 JOIN hashtags ON hashtags.id = tickets.hashtag_id
		 WHERE tickets.id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &ticket, nil
}

// ListTickets returns tickets matching the filter, newest first.
func (r *Repository) ListTickets(ctx context.Context, filter TicketFilter) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
		 JOIN hashtags ON hashtags.id = tickets.hashtag_id
		 WHERE 1 = 1`
	args := []any{}

	if filter.HashTagID != nil {
		query += ` AND tickets.hashtag_id = ?`
		args = append(args, *filter.HashTagID)
	}
	if filter.CreatorID != nil {
		query += ` AND tickets.creator_id = ?`
		args = append(args, *filter.CreatorID)
	}
	query += ` ORDER BY tickets.created_at DESC, tickets.id DESC`

	tickets := []models.Ticket{}
	if err := r.db.SelectContext(ctx, &tickets, query, args...); err != nil {
		return nil, err
	}
	return tickets, nil
}

// ArchiveTicket marks a ticket as archived.
func (r *Repository) ArchiveTicket(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tickets SET is_archived = 1 WHERE id = ?`, id)
	return err
}
