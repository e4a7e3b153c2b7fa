package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/manachat72/line-ai-chatbot/internal/domain"
)

// amqpChannel is the subset of *amqp.Channel used for publishing.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes envelopes to a durable topic exchange. A channel
// is opened per publish; channels are not safe for concurrent use.
type AMQPPublisher struct {
	openChannel func() (amqpChannel, error)
	closeConn   func() error

	exchange   string
	routingKey string
	producer   string
	timeout    time.Duration
}

// NewAMQPPublisher dials url and declares exchange as a durable topic
// exchange.
func NewAMQPPublisher(url, exchange, routingKey, producer string, timeout time.Duration) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{
		openChannel: func() (amqpChannel, error) { return conn.Channel() },
		closeConn:   conn.Close,
		exchange:    exchange,
		routingKey:  routingKey,
		producer:    producer,
		timeout:     timeout,
	}, nil
}

// Publish sends ex as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, ex domain.Exchange) error {
	env := NewEnvelope(ex, p.producer)
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	ch, err := p.openChannel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()

	cid := ""
	if env.Meta.CorrelationID != nil {
		cid = *env.Meta.CorrelationID
	}

	ctx, cancel := bounded(ctx, p.timeout)
	defer cancel()
	err = ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     env.Meta.ID,
		CorrelationId: cid,
		Type:          env.Meta.Type,
		Timestamp:     env.Meta.Time,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("amqp publish %s/%s: %w", p.exchange, p.routingKey, err)
	}
	return nil
}

// Close closes the connection.
func (p *AMQPPublisher) Close() error {
	if p.closeConn == nil {
		return nil
	}
	return p.closeConn()
}
