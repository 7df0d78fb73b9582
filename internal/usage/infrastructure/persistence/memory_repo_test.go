package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	entitlement "github.com/careerlift/quota/internal/entitlement/domain"
	"github.com/careerlift/quota/internal/usage/domain"
)

var repoNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestMemoryRepository_GetAbsent(t *testing.T) {
	repo := NewMemoryRepository()

	rec, err := repo.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestMemoryRepository_RoundTrip(t *testing.T) {
	repo := NewMemoryRepository()
	userID := uuid.New()

	rec := domain.NewUsageRecord(userID, entitlement.PlanEssential, repoNow)
	rec.Increment(entitlement.FeatureResumeFeedback, repoNow)
	require.NoError(t, repo.Put(context.Background(), rec))

	got, err := repo.Get(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, entitlement.PlanEssential, got.Plan)

	fb := got.Features[entitlement.FeatureResumeFeedback]
	require.Equal(t, 1, fb.LifetimeUsed)
	require.Equal(t, 1, *fb.PeriodUsed)
	require.True(t, fb.LastUsedAt.Equal(repoNow))
	require.True(t, got.PeriodStart.Equal(*rec.PeriodStart))
}

func TestMemoryRepository_PutOverwrites(t *testing.T) {
	repo := NewMemoryRepository()
	userID := uuid.New()

	rec := domain.NewUsageRecord(userID, entitlement.PlanTrial, repoNow)
	require.NoError(t, repo.Put(context.Background(), rec))

	rec.Increment(entitlement.FeatureResumeFeedback, repoNow)
	require.NoError(t, repo.Put(context.Background(), rec))

	got, err := repo.Get(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Features[entitlement.FeatureResumeFeedback].LifetimeUsed)
	require.Equal(t, 1, repo.Len())
}

func TestMemoryRepository_ReturnsIndependentCopies(t *testing.T) {
	repo := NewMemoryRepository()
	userID := uuid.New()

	rec := domain.NewUsageRecord(userID, entitlement.PlanTrial, repoNow)
	require.NoError(t, repo.Put(context.Background(), rec))

	first, err := repo.Get(context.Background(), userID)
	require.NoError(t, err)
	first.Features[entitlement.FeatureResumeFeedback].LifetimeUsed = 99

	second, err := repo.Get(context.Background(), userID)
	require.NoError(t, err)
	require.Zero(t, second.Features[entitlement.FeatureResumeFeedback].LifetimeUsed)
}
