package outbox

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/infrastructure/kafka"
	"storefront/internal/repository/outbox_repo"
)

// batchSize caps one drain pass; leftover messages are picked up on the next
// tick.
const batchSize = 100

// Sender drains pending outbox messages to Kafka. It is run on a ticker from
// main; a message that fails to produce stays pending and is retried on the
// next pass.
type Sender struct {
	outboxRepo outbox_repo.OutboxRepository
	producer   kafka.Producer
	logger     *zap.Logger
}

func NewSender(outboxRepo outbox_repo.OutboxRepository, producer kafka.Producer, logger *zap.Logger) *Sender {
	return &Sender{outboxRepo: outboxRepo, producer: producer, logger: logger}
}

func (s *Sender) Process(ctx context.Context) error {
	messages, err := s.outboxRepo.ListPending(ctx, batchSize)
	if err != nil {
		s.logger.Error("Failed to list pending outbox messages", zap.Error(err))
		return fmt.Errorf("failed to list pending outbox messages: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}

	s.logger.Debug("Draining pending outbox messages", zap.Int("count", len(messages)))
	for _, msg := range messages {
		if err := s.producer.Produce(ctx, msg.Topic, msg.ID, msg.Payload); err != nil {
			s.logger.Error("Failed to produce outbox message to Kafka",
				zap.String("message_id", msg.ID),
				zap.String("topic", msg.Topic),
				zap.Error(err))
			continue
		}
		if err := s.outboxRepo.MarkSent(ctx, msg.ID); err != nil {
			s.logger.Error("Failed to mark outbox message as sent",
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
	}
	return nil
}
