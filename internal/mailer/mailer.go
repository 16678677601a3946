// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package mailer decouples email delivery from the request cycle.
// Messages are submitted to a buffered channel and sent by a small pool
// of workers; a failed or dropped send is logged and never reaches the
// operation that triggered it.
package mailer

import (
	"log/slog"
	"sync"
)

// Message is a fully rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a single message.
type Sender interface {
	Send(msg Message) error
}

// Queue is a background email dispatcher backed by a worker pool.
type Queue struct {
	ch     chan Message
	sender Sender
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New creates a queue and starts its workers.
func New(sender Sender, workers, capacity int) *Queue {
	if workers < 1 {
		workers = 1
	}
	if capacity < 1 {
		capacity = 16
	}

	q := &Queue{
		ch:     make(chan Message, capacity),
		sender: sender,
	}

	q.wg.Add(workers)
	for range workers {
		go q.worker()
	}

	return q
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for msg := range q.ch {
		if err := q.sender.Send(msg); err != nil {
			slog.Warn("email_send_failed", "to", msg.To, "subject", msg.Subject, "error", err)
			continue
		}
		slog.Debug("email_sent", "to", msg.To, "subject", msg.Subject)
	}
}

// Enqueue submits a message for delivery. It never blocks: when the
// queue is full or already closed the message is dropped with a warning.
func (q *Queue) Enqueue(msg Message) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		slog.Warn("email_dropped", "to", msg.To, "reason", "queue_closed")
		return
	}

	select {
	case q.ch <- msg:
	default:
		slog.Warn("email_dropped", "to", msg.To, "reason", "queue_full")
	}
}

// Close stops accepting messages, drains the queue and waits for the
// workers to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	q.wg.Wait()
}
