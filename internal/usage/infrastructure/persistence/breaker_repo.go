package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/careerlift/quota/internal/usage/domain"
)

// BreakerRepository decorates a repository with a circuit breaker so a
// failing store sheds load quickly instead of holding every request for a
// full timeout. An open circuit surfaces as ErrStorageUnavailable, which
// callers already handle.
type BreakerRepository struct {
	inner   domain.Repository
	breaker *gobreaker.CircuitBreaker[any]
}

// NewBreakerRepository wraps a repository with a circuit breaker.
func NewBreakerRepository(inner domain.Repository, logger *slog.Logger) *BreakerRepository {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:     "usage-records",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &BreakerRepository{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

// Get reads through the breaker.
func (r *BreakerRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.UsageRecord, error) {
	result, err := r.breaker.Execute(func() (any, error) {
		return r.inner.Get(ctx, userID)
	})
	if err != nil {
		return nil, translateBreakerErr(err)
	}
	rec, _ := result.(*domain.UsageRecord)
	return rec, nil
}

// Put writes through the breaker.
func (r *BreakerRepository) Put(ctx context.Context, rec *domain.UsageRecord) error {
	_, err := r.breaker.Execute(func() (any, error) {
		return nil, r.inner.Put(ctx, rec)
	})
	if err != nil {
		return translateBreakerErr(err)
	}
	return nil
}

func translateBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return err
}
