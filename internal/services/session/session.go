// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session issues and verifies the bearer credential returned by
// the authentication endpoints.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"codeberg.org/qna-service/backend/internal/models"
)

// ErrInvalidSession is returned when a credential cannot be verified.
var ErrInvalidSession = errors.New("invalid session credential")

// Claims carried by a session credential.
type Claims struct {
	Email   string `json:"email"`
	IsStaff bool   `json:"is_staff"`
	jwt.RegisteredClaims
}

// UserID returns the user id from the subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidSession
	}
	return id, nil
}

// Service signs and parses HS256 session tokens.
type Service struct {
	secret   []byte
	duration time.Duration
}

// NewService creates a session service. The secret must not be empty.
func NewService(secret string, duration time.Duration) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	return &Service{secret: []byte(secret), duration: duration}, nil
}

// Issue creates a fresh signed credential for the user.
func (s *Service) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:   user.Email,
		IsStaff: user.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Parse verifies a credential and returns its claims.
func (s *Service) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
