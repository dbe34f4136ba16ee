package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore deduplicates email events across redeliveries and
// competing consumers.
type IdempotencyStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewIdempotencyStore creates a store with a 24 hour deduplication window.
func NewIdempotencyStore(redisClient *redis.Client, logger *slog.Logger) *IdempotencyStore {
	return &IdempotencyStore{
		redis:  redisClient,
		ttl:    24 * time.Hour,
		logger: logger,
	}
}

func (s *IdempotencyStore) key(messageID string) string {
	return "email:sent:" + messageID
}

// IsProcessed reports whether the event was already handled.
func (s *IdempotencyStore) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	exists, err := s.redis.Exists(ctx, s.key(messageID)).Result()
	if err != nil {
		return false, fmt.Errorf("check processed: %w", err)
	}
	return exists > 0, nil
}

// MarkAsProcessed records the event atomically with SET NX. Returns false
// when another consumer got there first.
func (s *IdempotencyStore) MarkAsProcessed(ctx context.Context, event Event) (bool, error) {
	metadata := Metadata{
		SentAt:    time.Now(),
		Recipient: event.Recipient,
		EventType: event.EventType,
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return false, fmt.Errorf("marshal metadata: %w", err)
	}

	success, err := s.redis.SetNX(ctx, s.key(event.MessageID), metadataJSON, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark processed: %w", err)
	}

	if !success {
		s.logger.Warn("duplicate email event detected",
			"messageID", event.MessageID,
			"recipient", event.Recipient)
	}
	return success, nil
}

// CountRecords scans the deduplication keyspace, for monitoring.
func (s *IdempotencyStore) CountRecords(ctx context.Context) (int64, error) {
	var cursor uint64
	var count int64

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, "email:sent:*", 100).Result()
		if err != nil {
			return count, fmt.Errorf("scan keys: %w", err)
		}
		count += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}
