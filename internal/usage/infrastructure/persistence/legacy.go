package persistence

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	entitlement "github.com/careerlift/quota/internal/entitlement/domain"
	"github.com/careerlift/quota/internal/usage/domain"
)

// legacyRecord is the v0 storage shape: a flat map of per-feature lifetime
// counts next to the plan, written before period limits and cooldowns
// existed. Counters were always lifetime totals in single units, so the
// conversion is a straight copy, no unit guessing.
type legacyRecord struct {
	Plan           string `json:"plan"`
	ATSScore       int    `json:"ats_score"`
	ResumeFeedback int    `json:"resume_feedback"`
}

// ConvertLegacyRecord upgrades a raw v0 payload to the current schema.
// It reports false when the payload already is (or cannot become) a current
// record.
func ConvertLegacyRecord(userID uuid.UUID, raw []byte, now time.Time) (*domain.UsageRecord, bool) {
	// Current records always carry a features object.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, false
	}
	if _, ok := probe["features"]; ok {
		return nil, false
	}

	var legacy legacyRecord
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, false
	}

	rec := domain.NewUsageRecord(userID, entitlement.PlanID(legacy.Plan), now)
	rec.Features[entitlement.FeatureATSScore].LifetimeUsed = legacy.ATSScore
	rec.Features[entitlement.FeatureResumeFeedback].LifetimeUsed = legacy.ResumeFeedback
	return rec, true
}

// RedisMigrator performs the one-time upgrade of v0 usage records stored in
// Redis. It lives outside the ledger itself: normal reads never interpret
// legacy payloads.
type RedisMigrator struct {
	client *redis.Client
	repo   *RedisRepository
	logger *slog.Logger
}

// NewRedisMigrator creates a migrator over the given client.
func NewRedisMigrator(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisMigrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisMigrator{
		client: client,
		repo:   NewRedisRepository(client, ttl, logger),
		logger: logger,
	}
}

// Run scans every usage key and rewrites records still in the v0 shape.
// It returns the number of records migrated.
func (m *RedisMigrator) Run(ctx context.Context) (int, error) {
	migrated := 0
	iter := m.client.Scan(ctx, 0, usageKeyPrefix+"*", 100).Iterator()

	for iter.Next(ctx) {
		key := iter.Val()

		userID, err := uuid.Parse(key[len(usageKeyPrefix):])
		if err != nil {
			m.logger.Warn("skipping usage key with invalid user id", "key", key)
			continue
		}

		raw, err := m.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue // expired between scan and read
		}
		if err != nil {
			return migrated, err
		}

		rec, ok := ConvertLegacyRecord(userID, raw, time.Now())
		if !ok {
			continue
		}

		if err := m.repo.Put(ctx, rec); err != nil {
			return migrated, err
		}
		migrated++
		m.logger.Info("migrated legacy usage record",
			"user_id", userID.String(),
			"plan", string(rec.Plan),
		)
	}
	if err := iter.Err(); err != nil {
		return migrated, err
	}
	return migrated, nil
}
