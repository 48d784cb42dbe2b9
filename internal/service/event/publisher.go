// Package event carries catalog change notifications between admin instances.
package event

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/epi-platform/admin-api/pkg/messaging"
	"github.com/epi-platform/admin-api/pkg/metrics"
)

const DefaultChannel = "catalog.events"

// Publisher announces saved and deleted entities. Every message carries the
// instance origin so the listener on the same instance can skip it.
type Publisher struct {
	broker  messaging.Broker
	channel string
	origin  string
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewPublisher(broker messaging.Broker, channel string, m *metrics.Metrics, logger zerolog.Logger) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{
		broker:  broker,
		channel: channel,
		origin:  uuid.NewString(),
		metrics: m,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *Publisher) Origin() string {
	return p.origin
}

func (p *Publisher) Channel() string {
	return p.channel
}

// Emit publishes one change. Failures are logged and counted; the admin
// action that caused the change has already succeeded at the backend.
func (p *Publisher) Emit(ctx context.Context, eventType, entity, id string) {
	msg := messaging.Message{
		Type:   eventType,
		Entity: entity,
		ID:     id,
		Origin: p.origin,
	}

	status := "ok"
	if err := p.broker.Publish(ctx, p.channel, msg); err != nil {
		status = "error"
		p.logger.Warn().Err(err).
			Str("type", eventType).
			Str("id", id).
			Msg("Failed to publish catalog event")
	}

	if p.metrics != nil {
		p.metrics.EventsPublished.WithLabelValues(eventType, status).Inc()
	}
}
