package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/manachat72/line-ai-chatbot/internal/domain"
)

// redisClient is the subset of *redis.Client used for publishing.
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisPublisher publishes envelopes on a Redis Pub/Sub channel.
type RedisPublisher struct {
	client   redisClient
	channel  string
	producer string
	timeout  time.Duration
}

// NewRedisPublisher connects to url (redis://…) and pings it once.
func NewRedisPublisher(ctx context.Context, url, channel, producer string, timeout time.Duration) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pctx, cancel := bounded(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisPublisher{client: rdb, channel: channel, producer: producer, timeout: timeout}, nil
}

// Publish sends ex as a JSON envelope.
func (p *RedisPublisher) Publish(ctx context.Context, ex domain.Exchange) error {
	body, err := json.Marshal(NewEnvelope(ex, p.producer))
	if err != nil {
		return err
	}
	ctx, cancel := bounded(ctx, p.timeout)
	defer cancel()
	if err := p.client.Publish(ctx, p.channel, string(body)).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.channel, err)
	}
	return nil
}

// Close closes the underlying client.
func (p *RedisPublisher) Close() error { return p.client.Close() }
