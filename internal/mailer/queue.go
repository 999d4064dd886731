package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"skintracker/pkg/rabbitmq"
)

// Publisher is the part of the RabbitMQ client QueueSender needs.
type Publisher interface {
	Publish(v any) error
}

// QueueSender hands messages to the mail queue; a Consumer delivers them.
type QueueSender struct {
	publisher Publisher
}

// NewQueueSender creates a QueueSender.
func NewQueueSender(publisher Publisher) *QueueSender {
	return &QueueSender{publisher: publisher}
}

func (s *QueueSender) Send(_ context.Context, msg Message) error {
	if err := s.publisher.Publish(msg); err != nil {
		return fmt.Errorf("failed to queue email: %w", err)
	}
	return nil
}

// Handler decodes queued messages and delivers them through next. Malformed
// payloads are reported as permanent so they are not redelivered.
func Handler(ctx context.Context, next Sender) func(body []byte) error {
	return func(body []byte) error {
		var msg Message
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("failed to decode queued email: %v: %w", err, rabbitmq.ErrPermanent)
		}
		if msg.To == "" {
			return fmt.Errorf("queued email has no recipient: %w", rabbitmq.ErrPermanent)
		}
		return next.Send(ctx, msg)
	}
}
