package broadcast

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"crm-server/internal/domain/chat"
	"crm-server/internal/infrastructure/metrics"
	"crm-server/internal/utils/platformerrors"
)

// envelope is the wire format carried on every topic: the event name plus
// its JSON payload. Subscribers dispatch on Event.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// RedisPublisher implements chat.Publisher on Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
	log    zerolog.Logger
}

var _ chat.Publisher = (*RedisPublisher)(nil)

// NewRedisPublisher connects to Redis and verifies the connection before
// returning.
func NewRedisPublisher(redisURL string, log zerolog.Logger) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, platformerrors.NewError(context.Background(), platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal, "invalid redis url", err, "9e5c2a7f-4d8b-4e1c-9a6d-3f7b9e2c5a84")
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "failed to connect to redis", err, "2d7f4b9e-8a1c-4d5f-b3e9-6c2a8d4f7b15")
	}

	return &RedisPublisher{
		client: client,
		log:    log.With().Str("component", "broadcast").Logger(),
	}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, topic, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		metrics.RecordBroadcast(event, "error")
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal, "failed to encode broadcast payload", err, "5b8e1d4a-7c3f-4a9e-8d6b-2f9c5e8a1d47")
	}

	msg, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		metrics.RecordBroadcast(event, "error")
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal, "failed to encode broadcast envelope", err, "8c4a7e2d-9f6b-4c1a-8e3d-5a7f2c9e4b68")
	}

	if err := p.client.Publish(ctx, topic, msg).Err(); err != nil {
		metrics.RecordBroadcast(event, "error")
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "failed to publish broadcast", err, "b1f6d3a8-2e9c-4b7f-9d4a-8c5e1f6b3d29")
	}

	metrics.RecordBroadcast(event, "success")
	return nil
}

// Close releases the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
