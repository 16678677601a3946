// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// TokenKind restricts a token to a single workflow.
type TokenKind string

const (
	TokenKindEmailVerification TokenKind = "email_verification"
	TokenKindResetPassword     TokenKind = "reset_password"
)

// Token is a single-use, time-limited secret tied to one user. Only the
// SHA256 hash of the value is stored. Issuing a new token never touches
// earlier ones, so a user may hold several outstanding tokens at once.
type Token struct { //nolint:govet // fieldalignment: readability over optimization
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	TokenHash string    `db:"token_hash" json:"-"`
	Kind      TokenKind `db:"kind" json:"kind"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
