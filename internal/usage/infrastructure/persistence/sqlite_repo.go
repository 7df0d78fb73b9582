package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/careerlift/quota/internal/usage/domain"
)

// SQLiteRepository stores usage records as JSON blobs in a single table.
// It keeps the same KV contract as the Redis backend so local-mode
// deployments need no separate code path.
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteRepository creates a SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB, logger *slog.Logger) *SQLiteRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteRepository{db: db, logger: logger}
}

// Migrate creates the usage_records table if it does not exist.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS usage_records (
			user_id    TEXT PRIMARY KEY,
			record     TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Get returns the stored record, or (nil, nil) when absent. Rows that fail
// to decode are treated as absent rather than surfaced as errors.
func (r *SQLiteRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.UsageRecord, error) {
	var raw string
	query := `SELECT record FROM usage_records WHERE user_id = ?`
	err := r.db.QueryRowContext(ctx, query, userID.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	var rec domain.UsageRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		r.logger.Warn("discarding malformed usage record",
			"user_id", userID.String(),
			"error", err,
		)
		return nil, nil
	}
	return &rec, nil
}

// Put upserts the record.
func (r *SQLiteRepository) Put(ctx context.Context, rec *domain.UsageRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal usage record: %w", err)
	}

	query := `
		INSERT INTO usage_records (user_id, record, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			record = excluded.record,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := r.db.ExecContext(ctx, query, rec.UserID.String(), string(raw), now); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}
