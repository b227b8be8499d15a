package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/redis/go-redis/v9"
)

const defaultStreamMaxLen = 100000

// RedisStreamSink appends audit events to a Redis stream. The stream is trimmed
// approximately to MaxLen entries.
type RedisStreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

var _ portsrepo.AuditSink = (*RedisStreamSink)(nil)

// NewRedisStreamSink creates a sink on an existing client. The caller keeps ownership
// of the client.
func NewRedisStreamSink(client *redis.Client, stream string) *RedisStreamSink {
	return &RedisStreamSink{client: client, stream: stream, maxLen: defaultStreamMaxLen}
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (s *RedisStreamSink) Publish(ctx context.Context, event domain.AuditEvent) error {
	attrs, err := json.Marshal(event.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal audit attributes: %w", err)
	}
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"action":      event.Action,
			"entity_type": event.EntityType,
			"entity_id":   event.EntityID,
			"actor":       event.Actor,
			"occurred_at": event.OccurredAt.UTC().Format(time.RFC3339Nano),
			"attributes":  string(attrs),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to append audit event to %s: %w", s.stream, err)
	}
	return nil
}
