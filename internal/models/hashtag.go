// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// HashTag is a ticket category. Names are unique and managed by staff.
type HashTag struct { //nolint:govet // fieldalignment: readability over optimization
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Length limits enforced on hashtag fields.
const (
	HashTagNameMaxLen        = 25
	HashTagDescriptionMaxLen = 255
)
