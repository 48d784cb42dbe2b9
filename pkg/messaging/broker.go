package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Message is the envelope published for catalog changes.
type Message struct {
	Type   string `json:"type"`
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Origin string `json:"origin,omitempty"`
}

type nopBroker struct{}

// NewNopBroker returns a broker that drops everything. Used when Redis is not
// configured; a single instance needs no cross-instance invalidation.
func NewNopBroker() Broker {
	return nopBroker{}
}

func (nopBroker) Publish(context.Context, string, interface{}) error { return nil }

func (nopBroker) Subscribe(ctx context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (nopBroker) Close() error { return nil }
