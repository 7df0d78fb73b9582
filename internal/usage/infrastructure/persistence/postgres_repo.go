package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careerlift/quota/internal/usage/domain"
)

// PostgresRepository stores usage records as JSONB rows, one per user.
// Used in server mode where the relational store is already provisioned.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresRepository creates a PostgreSQL-backed repository.
func NewPostgresRepository(pool *pgxpool.Pool, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{pool: pool, logger: logger}
}

// Migrate creates the usage_records table if it does not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS usage_records (
			user_id    UUID PRIMARY KEY,
			record     JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Get returns the stored record, or (nil, nil) when absent.
func (r *PostgresRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.UsageRecord, error) {
	var raw []byte
	query := `SELECT record FROM usage_records WHERE user_id = $1`
	err := r.pool.QueryRow(ctx, query, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
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

// Put upserts the record.
func (r *PostgresRepository) Put(ctx context.Context, rec *domain.UsageRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal usage record: %w", err)
	}

	query := `
		INSERT INTO usage_records (user_id, record, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			record = EXCLUDED.record,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.pool.Exec(ctx, query, rec.UserID, raw, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}
