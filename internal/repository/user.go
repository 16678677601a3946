// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/qna-service/backend/internal/models"
)

// CreateUser inserts a new user and fills in its ID and timestamps.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, first_name, last_name, password_hash, is_email_verified, is_staff, telegram_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email, user.FirstName, user.LastName, user.PasswordHash,
		user.IsEmailVerified, user.IsStaff, user.TelegramID, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return err
	}

	user.ID, err = res.LastInsertId()
	return err
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = ?`, email); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// EmailExists checks if a user with the given email exists.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE email = ?`, email); err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkEmailVerified sets the verified flag for a user.
func (r *Repository) MarkEmailVerified(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_email_verified = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	return err
}

// UpdateUserPassword updates a user's password hash.
func (r *Repository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id)
	return err
}

// SetUserTelegramID links a Telegram account to a user.
func (r *Repository) SetUserTelegramID(ctx context.Context, id, telegramID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET telegram_id = ?, updated_at = ? WHERE id = ?`,
		telegramID, time.Now().UTC(), id)
	return err
}

// SetUserStaff sets or removes staff status for a user.
func (r *Repository) SetUserStaff(ctx context.Context, id int64, isStaff bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_staff = ?, updated_at = ? WHERE id = ?`,
		isStaff, time.Now().UTC(), id)
	return err
}

// CountStaff returns the number of staff users.
func (r *Repository) CountStaff(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE is_staff = 1`); err != nil {
		return 0, err
	}
	return count, nil
}
