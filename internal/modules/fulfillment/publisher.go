package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher announces fulfillment events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// MessageSender writes one keyed message. *kafka.Producer satisfies it.
type MessageSender interface {
	SendMessage(ctx context.Context, key, value []byte) error
}

// KafkaPublisher writes events as JSON keyed by order id, so events for one order stay ordered.
type KafkaPublisher struct {
	sender MessageSender
}

func NewKafkaPublisher(sender MessageSender) *KafkaPublisher {
	return &KafkaPublisher{sender: sender}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.sender.SendMessage(ctx, []byte(e.OrderID.String()), value)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
