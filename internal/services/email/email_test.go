// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"codeberg.org/qna-service/backend/internal/i18n"
	"codeberg.org/qna-service/backend/internal/models"
	"codeberg.org/qna-service/backend/internal/services/email"
	"codeberg.org/qna-service/backend/internal/testutil"
)

func newEmailService(t *testing.T) *email.Service {
	t.Helper()
	testutil.InitI18n(t)
	svc, err := email.NewService(testutil.TestSMTPConfig(), "http://localhost:8080/")
	require.NoError(t, err)
	return svc
}

func TestNewService_Validation(t *testing.T) {
	cfg := testutil.TestSMTPConfig()
	cfg.Host = ""
	_, err := email.NewService(cfg, "http://localhost:8080")
	assert.Error(t, err)

	cfg = testutil.TestSMTPConfig()
	cfg.From = ""
	_, err = email.NewService(cfg, "http://localhost:8080")
	assert.Error(t, err)
}

func TestVerificationMessage(t *testing.T) {
	svc := newEmailService(t)
	user := &models.User{Email: "ada@example.com"}

	msg, err := svc.VerificationMessage(context.Background(), user, "token-value")

	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", msg.To)
	assert.NotEmpty(t, msg.Subject)
	// The trailing slash of the base URL must not double up.
	assert.Contains(t, msg.HTML, "http://localhost:8080/auth/confirm_email?token=token-value")
	assert.Contains(t, msg.HTML, "token-value")
}

func TestPasswordResetMessage(t *testing.T) {
	svc := newEmailService(t)
	user := &models.User{Email: "ada@example.com"}

	msg, err := svc.PasswordResetMessage(context.Background(), user, "token-value")

	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", msg.To)
	assert.NotEmpty(t, msg.Subject)
	assert.Contains(t, msg.HTML, "http://localhost:8080/auth/reset_password?token=token-value")
}

func TestVerificationMessage_Localized(t *testing.T) {
	svc := newEmailService(t)
	user := &models.User{Email: "ada@example.com"}

	enCtx := i18n.WithLocale(context.Background(), language.English)
	ruCtx := i18n.WithLocale(context.Background(), language.Russian)

	enMsg, err := svc.VerificationMessage(enCtx, user, "token-value")
	require.NoError(t, err)
	ruMsg, err := svc.VerificationMessage(ruCtx, user, "token-value")
	require.NoError(t, err)

	assert.NotEqual(t, enMsg.Subject, ruMsg.Subject)
}
