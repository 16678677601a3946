// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package mailer_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/qna-service/backend/internal/mailer"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *fakeSender) Send(msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestQueue_DeliversMessages(t *testing.T) {
	sender := &fakeSender{}
	q := mailer.New(sender, 2, 16)

	for i := 0; i < 5; i++ {
		q.Enqueue(mailer.Message{To: "test@example.com", Subject: "hi"})
	}
	q.Close()

	assert.Equal(t, 5, sender.count())
}

func TestQueue_CloseDrains(t *testing.T) {
	sender := &fakeSender{}
	q := mailer.New(sender, 1, 16)

	q.Enqueue(mailer.Message{To: "a@example.com"})
	q.Enqueue(mailer.Message{To: "b@example.com"})
	q.Close()

	require.Equal(t, 2, sender.count())
}

func TestQueue_EnqueueAfterCloseDrops(t *testing.T) {
	sender := &fakeSender{}
	q := mailer.New(sender, 1, 16)
	q.Close()

	// Must not panic or block.
	q.Enqueue(mailer.Message{To: "late@example.com"})

	assert.Zero(t, sender.count())
}

func TestQueue_CloseIsIdempotent(t *testing.T) {
	q := mailer.New(&fakeSender{}, 1, 16)
	q.Close()
	q.Close()
}

func TestQueue_SendFailureDoesNotStopWorkers(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	q := mailer.New(sender, 1, 16)

	q.Enqueue(mailer.Message{To: "a@example.com"})
	q.Close()
	assert.Zero(t, sender.count())

	// A fresh queue with a healthy sender still works.
	sender2 := &fakeSender{}
	q2 := mailer.New(sender2, 1, 16)
	q2.Enqueue(mailer.Message{To: "b@example.com"})
	q2.Close()
	assert.Equal(t, 1, sender2.count())
}

func TestNew_ClampsArguments(t *testing.T) {
	sender := &fakeSender{}
	q := mailer.New(sender, 0, 0)

	q.Enqueue(mailer.Message{To: "a@example.com"})
	q.Close()

	assert.Equal(t, 1, sender.count())
}
