package queue

import (
	"context"
	"time"

	"github.com/LiWinston/DeepFake-Forensic/internal/infra/sqlite"
)

// ─── SQLite Broker ──────────────────────────────────────────────────────────

// Broker is a durable queue over the node's SQLite store. It satisfies both
// Publisher and Consumer.
type Broker struct {
	db           *sqlite.DB
	topics       []string
	visibility   time.Duration
	pollInterval time.Duration
}

// Option adjusts broker behavior.
type Option func(*Broker)

// WithVisibility overrides the redelivery window.
func WithVisibility(d time.Duration) Option {
	return func(b *Broker) { b.visibility = d }
}

// WithPollInterval overrides the idle polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(b *Broker) { b.pollInterval = d }
}

// NewBroker creates a broker consuming from the given topics.
func NewBroker(db *sqlite.DB, topics []string, opts ...Option) *Broker {
	b := &Broker{
		db:           db,
		topics:       topics,
		visibility:   DefaultVisibility,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish appends a message to a topic.
func (b *Broker) Publish(ctx context.Context, topic, key string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Enqueue(topic, key, payload)
}

// Receive polls the subscribed topics round-robin until a message turns up
// or the context is done.
func (b *Broker) Receive(ctx context.Context) (*Message, error) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		for _, topic := range b.topics {
			m, err := b.db.Dequeue(topic, b.visibility)
			if err != nil {
				return nil, err
			}
			if m != nil {
				return &Message{
					ID:         m.ID,
					Topic:      m.Topic,
					Key:        m.Key,
					Payload:    m.Payload,
					Deliveries: m.Deliveries,
				}, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Ack marks a delivered message as processed.
func (b *Broker) Ack(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.AckMessage(id)
}
