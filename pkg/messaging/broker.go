package messaging

import "context"

// Broker fans events out to interested consumers. Delivery is
// fire-and-forget; the outbox gives the at-least-once guarantee.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
