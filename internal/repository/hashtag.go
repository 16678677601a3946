// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/qna-service/backend/internal/models"
)

// CreateHashTag inserts a new hashtag and fills in its ID.
func (r *Repository) CreateHashTag(ctx context.Context, tag *models.HashTag) error {
	tag.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO hashtags (name, description, created_at) VALUES (?, ?, ?)`,
		tag.Name, tag.Description, tag.CreatedAt)
	if err != nil {
		return err
	}

	tag.ID, err = res.LastInsertId()
	return err
}

// GetHashTagByID retrieves a hashtag by ID.
func (r *Repository) GetHashTagByID(ctx context.Context, id int64) (*models.HashTag, error) {
	var tag models.HashTag
	if err := r.db.GetContext(ctx, &tag, `SELECT * FROM hashtags WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &tag, nil
}

// GetHashTagByName retrieves a hashtag by its unique name.
func (r *Repository) GetHashTagByName(ctx context.Context, name string) (*models.HashTag, error) {
	var tag models.HashTag
	if err := r.db.GetContext(ctx, &tag, `SELECT * FROM hashtags WHERE name = ?`, name); err != nil {
		return nil, wrapError(err)
	}
	return &tag, nil
}

// ListHashTags returns all hashtags ordered by name.
func (r *Repository) ListHashTags(ctx context.Context) ([]models.HashTag, error) {
	tags := []models.HashTag{}
	if err := r.db.SelectContext(ctx, &tags, `SELECT * FROM hashtags ORDER BY name`); err != nil {
		return nil, err
	}
	return tags, nil
}

// UpdateHashTag updates a hashtag's name and description.
func (r *Repository) UpdateHashTag(ctx context.Context, tag *models.HashTag) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE hashtags SET name = ?, description = ? WHERE id = ?`,
		tag.Name, tag.Description, tag.ID)
	return err
}

// DeleteHashTag deletes a hashtag by ID.
func (r *Repository) DeleteHashTag(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM hashtags WHERE id = ?`, id)
	return err
}
