// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/qna-service/backend/internal/models"
)

// CreateToken inserts a new single-use token row.
func (r *Repository) CreateToken(ctx context.Context, token *models.Token) error {
	token.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tokens (user_id, token_hash, kind, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		token.UserID, token.TokenHash, token.Kind, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return err
	}

	token.ID, err = res.LastInsertId()
	return err
}

// GetValidToken retrieves a token by hash and kind that has not expired at
// the given instant. A miss on any of the three predicates yields ErrNotFound.
func (r *Repository) GetValidToken(ctx context.Context, tokenHash string, kind models.TokenKind, now time.Time) (*models.Token, error) {
	var token models.Token
	err := r.db.GetContext(ctx, &token,
		`SELECT * FROM tokens WHERE token_hash = ? AND kind = ? AND expires_at > ?`,
		tokenHash, kind, now)
	if err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

// DeleteToken deletes a token by ID.
func (r *Repository) DeleteToken(ctx context.Context, tokenID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE id = ?`, tokenID)
	return err
}

// CountUserTokens returns how many tokens of the given kind a user holds.
func (r *Repository) CountUserTokens(ctx context.Context, userID int64, kind models.TokenKind) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM tokens WHERE user_id = ? AND kind = ?`, userID, kind)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteExpiredTokens deletes all tokens past their expiry.
func (r *Repository) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
