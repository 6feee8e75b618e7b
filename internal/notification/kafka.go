package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaSink publishes alerts as JSON messages keyed by topic name.
type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(brokers []string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					zap.L().Error("notification publish failed", zap.Error(err), zap.Int("count", len(messages)))
				}
			},
		},
	}
}

func (s *KafkaSink) Publish(ctx context.Context, topic string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(topic),
		Value: value,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish notification to %s: %w", topic, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
