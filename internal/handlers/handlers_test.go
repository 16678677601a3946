// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/qna-service/backend/internal/handlers"
	"codeberg.org/qna-service/backend/internal/models"
	"codeberg.org/qna-service/backend/internal/repository"
	"codeberg.org/qna-service/backend/internal/server"
	"codeberg.org/qna-service/backend/internal/services/auth"
	"codeberg.org/qna-service/backend/internal/services/email"
	"codeberg.org/qna-service/backend/internal/services/session"
	"codeberg.org/qna-service/backend/internal/services/ticket"
	"codeberg.org/qna-service/backend/internal/services/token"
	"codeberg.org/qna-service/backend/internal/testutil"
)

const strongPassword = "mulberry-otter-91"

type api struct {
	e        *echo.Echo
	repo     *repository.Repository
	tokens   *token.Service
	sessions *session.Service
	queue    *testutil.CaptureQueue
}

func newAPI(t *testing.T) *api {
	t.Helper()
	testutil.InitI18n(t)

	_, repo := testutil.NewTestDB(t)
	cfg := testutil.TestAuthConfig()
	tokens := token.NewService(repo, cfg.TokenTTLDuration())
	emails, err := email.NewService(testutil.TestSMTPConfig(), "http://localhost:8080")
	require.NoError(t, err)
	queue := &testutil.CaptureQueue{}

	sessions, err := session.NewService("test-secret", cfg.TokenTTLDuration())
	require.NoError(t, err)

	authSvc := auth.NewService(repo, tokens, emails, queue, cfg)
	ticketSvc := ticket.NewService(repo)

	h := handlers.New(authSvc, ticketSvc, sessions)
	return &api{
		e:        server.NewRouter(h, sessions, repo, 1),
		repo:     repo,
		tokens:   tokens,
		sessions: sessions,
		queue:    queue,
	}
}

// do performs a JSON request against the router. A non-empty bearer is
// sent as the Authorization header.
func (a *api) do(t *testing.T, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *api) bearerFor(t *testing.T, user *models.User) string {
	t.Helper()
	credential, err := a.sessions.Issue(user)
	require.NoError(t, err)
	return credential
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var tokenPattern = regexp.MustCompile(`token=([0-9a-f-]+)`)

// lastEmailToken pulls the token value out of the most recently queued
// email's link.
func (a *api) lastEmailToken(t *testing.T) string {
	t.Helper()
	match := tokenPattern.FindStringSubmatch(a.queue.Last(t).HTML)
	require.Len(t, match, 2)
	return match[1]
}

func TestHealth(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestSignUpFlow(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/auth/sign_up", map[string]string{
		"email":      "ada@example.com",
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"password":   strongPassword,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "ada@example.com", body["email"])
	assert.Equal(t, false, body["is_email_verified"])
	assert.NotEmpty(t, body["token"])
	assert.NotContains(t, body, "password_hash")

	// The verification link from the email confirms the address.
	value := a.lastEmailToken(t)
	rec = a.do(t, http.MethodGet, "/auth/confirm_email?token="+value, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	user, err := a.repo.GetUserByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsEmailVerified)

	// The link is single-use.
	rec = a.do(t, http.MethodGet, "/auth/confirm_email?token="+value, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_token", decodeBody(t, rec)["error"])
}

func TestSignUp_Duplicate(t *testing.T) {
	a := newAPI(t)

	testutil.NewTestUser(t, a.repo, "ada@example.com")

	rec := a.do(t, http.MethodPost, "/auth/sign_up", map[string]string{
		"email":      "ada@example.com",
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"password":   strongPassword,
	}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "duplicate_email", decodeBody(t, rec)["error"])
}

func TestSignUp_WeakPasswordListsRules(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/auth/sign_up", map[string]string{
		"email":      "ada@example.com",
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"password":   "12345678",
	}, "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "weak_password", body["error"])
	assert.Contains(t, body["rules"], "entirely_numeric")
}

func TestSignUp_MissingFields(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/auth/sign_up", map[string]string{
		"email": "ada@example.com",
	}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeBody(t, rec)["error"])
}

func TestSignIn(t *testing.T) {
	a := newAPI(t)

	testutil.NewTestUser(t, a.repo, "ada@example.com")

	rec := a.do(t, http.MethodPost, "/auth/sign_in", map[string]string{
		"email":    "ada@example.com",
		"password": testutil.TestPassword,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	// The returned credential opens authenticated routes.
	credential, _ := decodeBody(t, rec)["token"].(string)
	require.NotEmpty(t, credential)
	rec = a.do(t, http.MethodGet, "/tickets", nil, credential)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignIn_BadCredentials(t *testing.T) {
	a := newAPI(t)

	testutil.NewTestUser(t, a.repo, "ada@example.com")

	rec := a.do(t, http.MethodPost, "/auth/sign_in", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeBody(t, rec)["error"])

	// Unknown email is indistinguishable from a wrong password.
	rec = a.do(t, http.MethodPost, "/auth/sign_in", map[string]string{
		"email":    "nobody@example.com",
		"password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeBody(t, rec)["error"])
}

func TestConfirmEmail_PostReturnsSession(t *testing.T) {
	a := newAPI(t)
	ctx := context.Background()

	user := &models.User{Email: "ada@example.com", PasswordHash: "hash"}
	require.NoError(t, a.repo.CreateUser(ctx, user))
	value, err := a.tokens.Issue(ctx, user.ID, models.TokenKindEmailVerification)
	require.NoError(t, err)

	rec := a.do(t, http.MethodPost, "/auth/confirm_email", map[string]string{"token": value}, "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["is_email_verified"])
	assert.NotEmpty(t, body["token"])
}

func TestSendConfirmationEmail(t *testing.T) {
	a := newAPI(t)
	ctx := context.Background()

	user := &models.User{Email: "ada@example.com", PasswordHash: "hash"}
	require.NoError(t, a.repo.CreateUser(ctx, user))

	// Requires authentication.
	rec := a.do(t, http.MethodPost, "/auth/send_confirmation_email", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/auth/send_confirmation_email", nil, a.bearerFor(t, user))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, a.queue.Len())

	// Verified accounts cannot request another one.
	verified := testutil.NewTestUser(t, a.repo, "verified@example.com")
	rec = a.do(t, http.MethodPost, "/auth/send_confirmation_email", nil, a.bearerFor(t, verified))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "already_verified", decodeBody(t, rec)["error"])
}

func TestPasswordResetFlow(t *testing.T) {
	a := newAPI(t)

	testutil.NewTestUser(t, a.repo, "ada@example.com")

	rec := a.do(t, http.MethodPost, "/auth/forgot_password", map[string]string{
		"email": "ada@example.com",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	value := a.lastEmailToken(t)
	const newPassword = "juniper-causeway-17"
	rec = a.do(t, http.MethodPost, "/auth/reset_password", map[string]string{
		"token":    value,
		"password": newPassword,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["token"])

	rec = a.do(t, http.MethodPost, "/auth/sign_in", map[string]string{
		"email":    "ada@example.com",
		"password": newPassword,
	}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/auth/forgot_password", map[string]string{
		"email": "nobody@example.com",
	}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_email", decodeBody(t, rec)["error"])
}

func TestSetTelegramID(t *testing.T) {
	a := newAPI(t)

	user := testutil.NewTestUser(t, a.repo, "ada@example.com")

	rec := a.do(t, http.MethodPost, "/auth/set_telegram_id", map[string]int64{
		"telegram_id": 4242,
	}, a.bearerFor(t, user))
	require.Equal(t, http.StatusOK, rec.Code)

	updated, err := a.repo.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.TelegramID)
	assert.Equal(t, int64(4242), *updated.TelegramID)
}

func TestAuthenticate_RejectsBadCredential(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodGet, "/tickets", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A valid credential passes.
	user := testutil.NewTestUser(t, a.repo, "ada@example.com")
	rec = a.do(t, http.MethodGet, "/tickets", nil, a.bearerFor(t, user))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTicketFlow(t *testing.T) {
	a := newAPI(t)

	alice := testutil.NewTestUser(t, a.repo, "alice@example.com")
	bob := testutil.NewTestUser(t, a.repo, "bob@example.com")
	staff := testutil.NewTestStaff(t, a.repo, "staff@example.com")
	testutil.NewTestHashTag(t, a.repo, "billing")

	// Anonymous requests are rejected.
	rec := a.do(t, http.MethodPost, "/tickets", map[string]string{
		"hash_tag": "billing",
		"question": "How do I pay?",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/tickets", map[string]string{
		"hash_tag": "billing",
		"question": "How do I pay?",
	}, a.bearerFor(t, alice))
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "billing", body["hashtag_name"])
	ticketID := int64(body["id"].(float64))

	// Only the creator and staff may read it.
	rec = a.do(t, http.MethodGet, "/tickets/"+itoa(ticketID), nil, a.bearerFor(t, bob))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodGet, "/tickets/"+itoa(ticketID), nil, a.bearerFor(t, staff))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Closing is terminal.
	rec = a.do(t, http.MethodPost, "/tickets/close", map[string]int64{"id": ticketID}, a.bearerFor(t, alice))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodPost, "/tickets/close", map[string]int64{"id": ticketID}, a.bearerFor(t, alice))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "already_archived", decodeBody(t, rec)["error"])
}

func TestTicket_UnknownTag(t *testing.T) {
	a := newAPI(t)

	alice := testutil.NewTestUser(t, a.repo, "alice@example.com")

	rec := a.do(t, http.MethodPost, "/tickets", map[string]string{
		"hash_tag": "missing",
		"question": "Anyone there?",
	}, a.bearerFor(t, alice))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_tag", decodeBody(t, rec)["error"])
}

func TestListTickets_FilterAndOwnership(t *testing.T) {
	a := newAPI(t)

	alice := testutil.NewTestUser(t, a.repo, "alice@example.com")
	bob := testutil.NewTestUser(t, a.repo, "bob@example.com")
	billing := testutil.NewTestHashTag(t, a.repo, "billing")
	shipping := testutil.NewTestHashTag(t, a.repo, "shipping")
	testutil.NewTestTicket(t, a.repo, alice, billing, "Alice billing")
	testutil.NewTestTicket(t, a.repo, alice, shipping, "Alice shipping")
	testutil.NewTestTicket(t, a.repo, bob, billing, "Bob billing")

	rec := a.do(t, http.MethodGet, "/tickets?filter=billing", nil, a.bearerFor(t, alice))
	require.Equal(t, http.StatusOK, rec.Code)

	var tickets []models.Ticket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tickets))
	require.Len(t, tickets, 1)
	assert.Equal(t, "Alice billing", tickets[0].Question)

	// A filter naming no hashtag restricts nothing.
	rec = a.do(t, http.MethodGet, "/tickets?filter=nonsense", nil, a.bearerFor(t, alice))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tickets))
	assert.Len(t, tickets, 2)
}

func TestGetTicket_BadID(t *testing.T) {
	a := newAPI(t)

	alice := testutil.NewTestUser(t, a.repo, "alice@example.com")

	rec := a.do(t, http.MethodGet, "/tickets/not-a-number", nil, a.bearerFor(t, alice))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHashTags_StaffOnly(t *testing.T) {
	a := newAPI(t)

	alice := testutil.NewTestUser(t, a.repo, "alice@example.com")
	staff := testutil.NewTestStaff(t, a.repo, "staff@example.com")

	rec := a.do(t, http.MethodGet, "/hashtags", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodGet, "/hashtags", nil, a.bearerFor(t, alice))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPost, "/hashtags", map[string]string{
		"name":        "billing",
		"description": "Payment questions",
	}, a.bearerFor(t, staff))
	require.Equal(t, http.StatusCreated, rec.Code)
	tagID := int64(decodeBody(t, rec)["id"].(float64))

	rec = a.do(t, http.MethodPut, "/hashtags/"+itoa(tagID), map[string]string{
		"name":        "payments",
		"description": "Renamed",
	}, a.bearerFor(t, staff))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "payments", decodeBody(t, rec)["name"])

	rec = a.do(t, http.MethodDelete, "/hashtags/"+itoa(tagID), nil, a.bearerFor(t, staff))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/hashtags/"+itoa(tagID), nil, a.bearerFor(t, staff))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
