package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/careerlift/quota/internal/usage/domain"
)

// usageKeyPrefix namespaces usage records in the shared Redis instance.
const usageKeyPrefix = "quota:usage:"

// RedisRepository stores usage records as JSON under a deterministic
// per-user key. This is the primary production backend.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisRepository creates a Redis-backed repository. A zero ttl stores
// records without expiration.
func NewRedisRepository(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRepository{client: client, ttl: ttl, logger: logger}
}

// UsageKey returns the storage key for a user's record.
func UsageKey(userID uuid.UUID) string {
	return usageKeyPrefix + userID.String()
}

// Get returns the stored record, or (nil, nil) when absent. A record that
// fails to decode is treated as absent: a corrupt cache entry must not
// block the user.
func (r *RedisRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.UsageRecord, error) {
	raw, err := r.client.Get(ctx, UsageKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	var rec domain.UsageRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		r.logger.Warn("discarding malformed usage record",
			"user_id", userID.String(),
			"error", err,
		)
		return nil, nil
	}
	return &rec, nil
}

// Put stores the record, refreshing the TTL when one is configured.
func (r *RedisRepository) Put(ctx context.Context, rec *domain.UsageRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal usage record: %w", err)
	}
	if err := r.client.Set(ctx, UsageKey(rec.UserID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}
