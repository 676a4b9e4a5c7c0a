// Package outbox_repo is the register for notification messages written in
// the same transaction as the state change they announce. A separate sender
// drains pending rows to Kafka, so a notification is enqueued if and only if
// the order write committed.
package outbox_repo

import (
	"context"
	"time"
)

type OutboxStatus string

const (
	StatusPending OutboxStatus = "PENDING"
	StatusSent    OutboxStatus = "SENT"
)

// OutboxMessage is one notification envelope bound for Kafka. Payload is the
// marshaled notify envelope; ID doubles as the Kafka message key so a replay
// of the same row is deduplicatable downstream.
type OutboxMessage struct {
	ID        string
	Topic     string
	Payload   []byte
	Status    OutboxStatus
	CreatedAt time.Time
	SentAt    *time.Time
}

type OutboxRepository interface {
	// Enqueue records a pending message. Callers that need atomicity with an
	// order write go through OrderRepository.CreateOrderAndOutboxMessage
	// instead.
	Enqueue(ctx context.Context, msg *OutboxMessage) error
	// ListPending returns up to limit pending messages, oldest first.
	ListPending(ctx context.Context, limit int) ([]*OutboxMessage, error)
	// MarkSent flips a pending message to sent. Marking an already-sent
	// message is a no-op.
	MarkSent(ctx context.Context, id string) error
}
