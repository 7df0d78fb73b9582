package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	entitlement "github.com/careerlift/quota/internal/entitlement/domain"
	"github.com/careerlift/quota/internal/usage/domain"
)

type failingRepo struct {
	err error
}

func (f failingRepo) Get(ctx context.Context, userID uuid.UUID) (*domain.UsageRecord, error) {
	return nil, f.err
}

func (f failingRepo) Put(ctx context.Context, rec *domain.UsageRecord) error {
	return f.err
}

func TestBreakerRepository_PassesThroughOnSuccess(t *testing.T) {
	inner := NewMemoryRepository()
	repo := NewBreakerRepository(inner, nil)
	userID := uuid.New()

	rec := domain.NewUsageRecord(userID, entitlement.PlanTrial, repoNow)
	require.NoError(t, repo.Put(context.Background(), rec))

	got, err := repo.Get(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, entitlement.PlanTrial, got.Plan)
}

func TestBreakerRepository_AbsentRecordIsNotAFailure(t *testing.T) {
	repo := NewBreakerRepository(NewMemoryRepository(), nil)

	// Repeated misses must not trip the breaker.
	for range 10 {
		rec, err := repo.Get(context.Background(), uuid.New())
		require.NoError(t, err)
		require.Nil(t, rec)
	}
}

func TestBreakerRepository_OpensAfterConsecutiveFailures(t *testing.T) {
	storeErr := errors.New("connection refused")
	repo := NewBreakerRepository(failingRepo{err: storeErr}, nil)
	userID := uuid.New()

	for range 5 {
		_, err := repo.Get(context.Background(), userID)
		require.ErrorIs(t, err, storeErr)
	}

	// Breaker is now open; the underlying error is no longer reachable and
	// callers see the storage-unavailable sentinel instead.
	_, err := repo.Get(context.Background(), userID)
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)

	err = repo.Put(context.Background(), domain.NewUsageRecord(userID, entitlement.PlanFree, repoNow))
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}
