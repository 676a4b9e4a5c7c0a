package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageHandler func(ctx context.Context, message []byte) error

// StartConsumer runs a consumer loop for the given topic in a background
// goroutine. Handler errors skip the offset commit so delivery is
// at-least-once; handlers must tolerate redelivery.
func StartConsumer(brokers []string, topic, groupID string, handler MessageHandler, l *zap.Logger) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		Logger:         zap.NewStdLog(l.With(zap.String("kafka_component", "consumer"))),
	})

	l.Info("Kafka consumer started",
		zap.String("topic", topic),
		zap.String("group_id", groupID),
		zap.Strings("brokers", brokers))

	go func() {
		for {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			m, err := reader.FetchMessage(ctx)
			cancel()

			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					continue
				}
				l.Error("Error fetching message from Kafka", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			if err := handler(context.Background(), m.Value); err != nil {
				l.Error("Error handling Kafka message",
					zap.String("topic", m.Topic),
					zap.Int("partition", m.Partition),
					zap.Int64("offset", m.Offset),
					zap.Error(err))
				continue
			}

			commitCtx, commitCancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := reader.CommitMessages(commitCtx, m); err != nil {
				l.Error("Failed to commit offset for message",
					zap.String("topic", m.Topic),
					zap.Int("partition", m.Partition),
					zap.Int64("offset", m.Offset),
					zap.Error(err))
			}
			commitCancel()
		}
	}()
	return nil
}
