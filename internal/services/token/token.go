// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package token issues and validates the single-use secrets behind the
// email verification and password reset flows.
package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"codeberg.org/qna-service/backend/internal/models"
	"codeberg.org/qna-service/backend/internal/repository"
)

// ErrInvalidToken is returned for an unknown value, a value of the wrong
// kind, and an expired value alike. Callers cannot tell the three apart.
var ErrInvalidToken = errors.New("invalid or expired token")

// Service issues and validates single-use tokens.
type Service struct {
	repo *repository.Repository
	ttl  time.Duration
}

// NewService creates a token service. All kinds share the same ttl.
func NewService(repo *repository.Repository, ttl time.Duration) *Service {
	return &Service{repo: repo, ttl: ttl}
}

// HashToken computes the SHA256 hash of a token value for storage.
func HashToken(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:])
}

// Issue generates a fresh token for the user, persists its hash and
// returns the plaintext value. Earlier tokens of the same kind stay
// valid; every issuance is a new row.
func (s *Service) Issue(ctx context.Context, userID int64, kind models.TokenKind) (string, error) {
	value := uuid.NewString()

	tok := &models.Token{
		UserID:    userID,
		TokenHash: HashToken(value),
		Kind:      kind,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}
	if err := s.repo.CreateToken(ctx, tok); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	return value, nil
}

// Validate looks up a token by value and kind, requiring it to be
// unexpired, and returns the owning user together with the token row.
// The token is NOT consumed; the caller deletes it via Consume only
// after the associated state transition has been persisted, so a
// downstream failure leaves the token valid for a retry.
func (s *Service) Validate(ctx context.Context, value string, kind models.TokenKind) (*models.User, *models.Token, error) {
	tok, err := s.repo.GetValidToken(ctx, HashToken(value), kind, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("failed to look up token: %w", err)
	}

	user, err := s.repo.GetUserByID(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("failed to load token owner: %w", err)
	}

	return user, tok, nil
}

// Consume deletes the token row. Consumption is best-effort: a race
// between two callers of the same value is not guarded here.
func (s *Service) Consume(ctx context.Context, tok *models.Token) error {
	return s.repo.DeleteToken(ctx, tok.ID)
}

// SweepExpired deletes all expired tokens and reports how many went.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredTokens(ctx)
}
