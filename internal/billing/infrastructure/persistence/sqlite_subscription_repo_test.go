package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/careerlift/quota/internal/billing/domain"
)

func newTestSubscriptionRepo(t *testing.T) *SQLiteSubscriptionRepository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSQLiteSubscriptionRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestSQLiteSubscriptionRepository_FindAbsent(t *testing.T) {
	repo := newTestSubscriptionRepo(t)

	sub, err := repo.FindByUserID(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, sub)
}

func TestSQLiteSubscriptionRepository_RoundTrip(t *testing.T) {
	repo := newTestSubscriptionRepo(t)

	periodEnd := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	sub := &domain.Subscription{
		ID:                   uuid.New(),
		UserID:               uuid.New(),
		Plan:                 "essential",
		Status:               domain.SubscriptionActive,
		CurrentPeriodEnd:     &periodEnd,
		StripeCustomerID:     "cus_123",
		StripeSubscriptionID: "sub_456",
		CreatedAt:            time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:            time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Upsert(context.Background(), sub))

	got, err := repo.FindByUserID(context.Background(), sub.UserID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, sub.ID, got.ID)
	require.Equal(t, "essential", got.Plan)
	require.Equal(t, domain.SubscriptionActive, got.Status)
	require.NotNil(t, got.CurrentPeriodEnd)
	require.True(t, got.CurrentPeriodEnd.Equal(periodEnd))
	require.Equal(t, "cus_123", got.StripeCustomerID)
}

func TestSQLiteSubscriptionRepository_UpsertReplacesRow(t *testing.T) {
	repo := newTestSubscriptionRepo(t)
	userID := uuid.New()

	sub := &domain.Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		Plan:      "trial",
		Status:    domain.SubscriptionTrialing,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Upsert(context.Background(), sub))

	sub.Plan = "pro"
	sub.Status = domain.SubscriptionActive
	require.NoError(t, repo.Upsert(context.Background(), sub))

	got, err := repo.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, "pro", got.Plan)
	require.Equal(t, domain.SubscriptionActive, got.Status)
	require.Nil(t, got.CurrentPeriodEnd)
}
