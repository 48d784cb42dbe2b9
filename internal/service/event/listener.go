package event

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/internal/store"
	"github.com/epi-platform/admin-api/pkg/messaging"
)

// Listener applies other instances' changes to the local entity store.
type Listener struct {
	broker  messaging.Broker
	channel string
	origin  string
	store   *store.Store
	logger  zerolog.Logger
}

func NewListener(broker messaging.Broker, pub *Publisher, s *store.Store, logger zerolog.Logger) *Listener {
	return &Listener{
		broker:  broker,
		channel: pub.Channel(),
		origin:  pub.Origin(),
		store:   s,
		logger:  logger.With().Str("component", "event_listener").Logger(),
	}
}

// Run blocks until ctx is cancelled or the subscription closes.
func (l *Listener) Run(ctx context.Context) error {
	msgs, err := l.broker.Subscribe(ctx, l.channel)
	if err != nil {
		return err
	}

	l.logger.Info().Str("channel", l.channel).Msg("Listening for catalog events")
	for payload := range msgs {
		var msg messaging.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			l.logger.Warn().Err(err).Msg("Dropping malformed catalog event")
			continue
		}
		l.Apply(msg)
	}
	return ctx.Err()
}

// Apply handles one decoded message. Messages from this instance are ignored.
func (l *Listener) Apply(msg messaging.Message) {
	if msg.Origin == l.origin {
		return
	}

	switch msg.Type {
	case model.EventProductDeleted:
		l.store.Products.Delete(msg.ID)
	case model.EventCategoryDeleted:
		l.store.Categories.Delete(msg.ID)
	}
	// the next read reloads the listing from the backend
	l.store.Invalidate(msg.Entity)

	l.logger.Debug().
		Str("type", msg.Type).
		Str("id", msg.ID).
		Str("origin", msg.Origin).
		Msg("Applied catalog event")
}
