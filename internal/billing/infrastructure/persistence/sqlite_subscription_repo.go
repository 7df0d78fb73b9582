// Package persistence provides storage for synced subscription state.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careerlift/quota/internal/billing/domain"
)

// SQLiteSubscriptionRepository stores the last-synced subscription per user.
// One row per user: the billing sync overwrites in place, history lives in
// Stripe.
type SQLiteSubscriptionRepository struct {
	db *sql.DB
}

// NewSQLiteSubscriptionRepository creates a SQLite-backed repository.
func NewSQLiteSubscriptionRepository(db *sql.DB) *SQLiteSubscriptionRepository {
	return &SQLiteSubscriptionRepository{db: db}
}

// Migrate creates the subscriptions table if it does not exist.
func (r *SQLiteSubscriptionRepository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS subscriptions (
			user_id                TEXT PRIMARY KEY,
			id                     TEXT NOT NULL,
			plan                   TEXT NOT NULL,
			status                 TEXT NOT NULL,
			current_period_end     TEXT,
			stripe_customer_id     TEXT NOT NULL DEFAULT '',
			stripe_subscription_id TEXT NOT NULL DEFAULT '',
			created_at             TEXT NOT NULL,
			updated_at             TEXT NOT NULL
		)
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// Upsert writes the subscription, replacing any previous row for the user.
func (r *SQLiteSubscriptionRepository) Upsert(ctx context.Context, sub *domain.Subscription) error {
	var periodEnd any
	if sub.CurrentPeriodEnd != nil {
		periodEnd = sub.CurrentPeriodEnd.UTC().Format(time.RFC3339)
	}

	query := `
		INSERT INTO subscriptions (
			user_id, id, plan, status, current_period_end,
			stripe_customer_id, stripe_subscription_id, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			id = excluded.id,
			plan = excluded.plan,
			status = excluded.status,
			current_period_end = excluded.current_period_end,
			stripe_customer_id = excluded.stripe_customer_id,
			stripe_subscription_id = excluded.stripe_subscription_id,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		sub.UserID.String(),
		sub.ID.String(),
		sub.Plan,
		string(sub.Status),
		periodEnd,
		sub.StripeCustomerID,
		sub.StripeSubscriptionID,
		sub.CreatedAt.UTC().Format(time.RFC3339),
		sub.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// FindByUserID returns the user's subscription, or (nil, nil) when absent.
func (r *SQLiteSubscriptionRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	query := `
		SELECT id, plan, status, current_period_end,
			stripe_customer_id, stripe_subscription_id, created_at, updated_at
		FROM subscriptions
		WHERE user_id = ?
	`
	var (
		id, plan, status        string
		periodEnd               sql.NullString
		customerID, stripeSubID string
		createdAt, updatedAt    string
	)
	err := r.db.QueryRowContext(ctx, query, userID.String()).Scan(
		&id, &plan, &status, &periodEnd, &customerID, &stripeSubID, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query subscription: %w", err)
	}

	subID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse subscription id: %w", err)
	}

	sub := &domain.Subscription{
		ID:                   subID,
		UserID:               userID,
		Plan:                 plan,
		Status:               domain.SubscriptionStatus(status),
		StripeCustomerID:     customerID,
		StripeSubscriptionID: stripeSubID,
	}
	if periodEnd.Valid {
		t, err := time.Parse(time.RFC3339, periodEnd.String)
		if err != nil {
			return nil, fmt.Errorf("parse current_period_end: %w", err)
		}
		sub.CurrentPeriodEnd = &t
	}
	if sub.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if sub.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return sub, nil
}
