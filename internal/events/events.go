// Package events announces processed exchanges to downstream subscribers.
// Each exchange is wrapped in a versioned Envelope and published to Redis
// Pub/Sub or an AMQP topic exchange. Publishing is best effort: callers log
// failures and move on.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/manachat72/line-ai-chatbot/internal/config"
	"github.com/manachat72/line-ai-chatbot/internal/domain"
)

// TypeExchangeCompleted is the envelope type of every published exchange.
const TypeExchangeCompleted = "exchange.completed.v1"

// Meta describes an envelope.
type Meta struct {
	ID            string    `json:"id"`
	CorrelationID *string   `json:"correlation_id,omitempty"`
	Producer      *string   `json:"producer,omitempty"`
	Time          time.Time `json:"time"`
	Type          string    `json:"type"`
}

// Envelope is the wire format of a published event.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// NewEnvelope wraps ex. The webhook event ID, when present, becomes the
// correlation ID.
func NewEnvelope(ex domain.Exchange, producer string) Envelope {
	m := Meta{
		ID:   uuid.NewString(),
		Time: time.Now().UTC(),
		Type: TypeExchangeCompleted,
	}
	if ex.WebhookEventID != "" {
		cid := ex.WebhookEventID
		m.CorrelationID = &cid
	}
	if producer != "" {
		m.Producer = &producer
	}
	return Envelope{Meta: m, Data: ex}
}

// Publisher sends exchanges to a broker.
type Publisher interface {
	Publish(ctx context.Context, ex domain.Exchange) error
	Close() error
}

// Noop discards every exchange.
type Noop struct{}

func (Noop) Publish(context.Context, domain.Exchange) error { return nil }

func (Noop) Close() error { return nil }

// New builds the Publisher selected by cfg.Backend.
func New(ctx context.Context, cfg config.EventsConfig, producer string) (Publisher, error) {
	switch cfg.Backend {
	case "", "none":
		return Noop{}, nil
	case "redis":
		return NewRedisPublisher(ctx, cfg.RedisURL, cfg.Channel, producer, cfg.PublishTimeout)
	case "amqp":
		return NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, producer, cfg.PublishTimeout)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

func bounded(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
