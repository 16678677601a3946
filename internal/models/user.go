// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// User is an account identified by its email address. TelegramID links the
// account to the support bot and is nil until the user connects it.
type User struct { //nolint:govet // fieldalignment: readability over optimization
	ID              int64     `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	FirstName       string    `db:"first_name" json:"first_name"`
	LastName        string    `db:"last_name" json:"last_name"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	IsEmailVerified bool      `db:"is_email_verified" json:"is_email_verified"`
	IsStaff         bool      `db:"is_staff" json:"is_staff"`
	TelegramID      *int64    `db:"telegram_id" json:"telegram_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
