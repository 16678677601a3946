// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"

	"codeberg.org/qna-service/backend/internal/config"
	"codeberg.org/qna-service/backend/internal/database"
	"codeberg.org/qna-service/backend/internal/i18n"
	"codeberg.org/qna-service/backend/internal/mailer"
	"codeberg.org/qna-service/backend/internal/models"
	"codeberg.org/qna-service/backend/internal/repository"
)

var i18nOnce sync.Once

// InitI18n initializes the translation bundle once for all tests.
func InitI18n(t *testing.T) {
	t.Helper()
	i18nOnce.Do(func() {
		if err := i18n.Init(); err != nil {
			t.Fatalf("i18n init: %v", err)
		}
	})
}

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// TestPassword is the plaintext behind every fixture user's hash.
const TestPassword = "correct-horse-battery"

// NewTestUser creates a verified, non-staff test user.
func NewTestUser(t *testing.T, repo *repository.Repository, email string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Email:           email,
		FirstName:       "Test",
		LastName:        "User",
		PasswordHash:    string(hash),
		IsEmailVerified: true,
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

// NewTestStaff creates a staff test user.
func NewTestStaff(t *testing.T, repo *repository.Repository, email string) *models.User {
	t.Helper()
	user := NewTestUser(t, repo, email)
	require.NoError(t, repo.SetUserStaff(context.Background(), user.ID, true))
	user.IsStaff = true
	return user
}

// NewTestHashTag creates a hashtag.
func NewTestHashTag(t *testing.T, repo *repository.Repository, name string) *models.HashTag {
	t.Helper()
	tag := &models.HashTag{Name: name, Description: name + " questions"}
	require.NoError(t, repo.CreateHashTag(context.Background(), tag))
	return tag
}

// NewTestTicket creates a ticket for the given creator and hashtag.
func NewTestTicket(t *testing.T, repo *repository.Repository, creator *models.User, tag *models.HashTag, question string) *models.Ticket {
	t.Helper()
	ticket := &models.Ticket{
		CreatorID:   creator.ID,
		HashTagID:   tag.ID,
		HashTagName: tag.Name,
		Question:    question,
	}
	require.NoError(t, repo.CreateTicket(context.Background(), ticket))
	return ticket
}

// CaptureQueue records enqueued email instead of delivering it.
type CaptureQueue struct {
	mu       sync.Mutex
	Messages []mailer.Message
}

// Enqueue implements auth.MailQueue.
func (q *CaptureQueue) Enqueue(msg mailer.Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Messages = append(q.Messages, msg)
}

// Len returns how many messages were captured.
func (q *CaptureQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.Messages)
}

// Last returns the most recently captured message.
func (q *CaptureQueue) Last(t *testing.T) mailer.Message {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	require.NotEmpty(t, q.Messages)
	return q.Messages[len(q.Messages)-1]
}

// TestSMTPConfig returns an SMTP config good enough for rendering.
func TestSMTPConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host: "localhost",
		Port: 25,
		From: "noreply@example.com",
	}
}

// TestAuthConfig returns an auth config with a 24h token TTL.
func TestAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{TokenTTL: int((24 * time.Hour).Seconds())}
}
