// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// QuestionMaxLen caps the question text. 4000 characters because answers
// are relayed through Telegram.
const QuestionMaxLen = 4000

// Ticket is a question asked by a user, filed under one hashtag.
// Archiving is terminal; tickets are never deleted or reopened.
type Ticket struct { //nolint:govet // fieldalignment: readability over optimization
	ID          int64     `db:"id" json:"id"`
	CreatorID   int64     `db:"creator_id" json:"creator_id"`
	HashTagID   int64     `db:"hashtag_id" json:"hashtag_id"`
	HashTagName string    `db:"hashtag_name" json:"hashtag_name"`
	Question    string    `db:"question" json:"question"`
	IsArchived  bool      `db:"is_archived" json:"is_archived"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
