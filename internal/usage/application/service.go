// Package application implements the usage ledger: the stateful service
// that answers allow/deny questions for guarded features, records completed
// invocations, and keeps per-user counters consistent across plan changes
// and monthly period rollovers.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	entitlement "github.com/careerlift/quota/internal/entitlement/domain"
	"github.com/careerlift/quota/internal/shared/infrastructure/eventbus"
	"github.com/careerlift/quota/internal/usage/domain"
)

// Service is the usage ledger. It owns all mutation of usage records and
// consults the plan catalog to interpret its own stored counters.
//
// CheckFeatureAllowed and IncrementFeatureUsage are separate round-trips to
// storage with no compare-and-swap between them; two concurrent requests for
// the same user can both pass the check before either increments. Limits are
// therefore best-effort caps, not linearizable quotas.
type Service struct {
	records domain.Repository
	events  eventbus.Publisher
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithPublisher sets the event publisher.
func WithPublisher(p eventbus.Publisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a usage ledger over a record repository.
func NewService(records domain.Repository, opts ...Option) *Service {
	s := &Service{
		records: records,
		events:  eventbus.NewNoopPublisher(nil),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetUsageForUser returns the user's usage record, normalized against the
// given plan and the current calendar period. A record is created lazily on
// first read; the normalized record is persisted whenever it changed.
func (s *Service) GetUsageForUser(ctx context.Context, userID uuid.UUID, plan entitlement.PlanID) (*domain.UsageRecord, error) {
	rec, created, err := s.load(ctx, userID, plan)
	if err != nil {
		return nil, err
	}

	changed := domain.Normalize(rec, plan, s.now())
	if created || changed {
		if err := s.records.Put(ctx, rec); err != nil {
			return nil, fmt.Errorf("persist usage record: %w", err)
		}
	}
	return rec, nil
}

// CheckFeatureAllowed decides whether the user may invoke a feature right
// now. It trusts the plan stored on the record; callers are expected to
// have called GetUsageForUser recently enough for it to be fresh. The check
// never increments; its only side effect is the normalization write.
func (s *Service) CheckFeatureAllowed(ctx context.Context, userID uuid.UUID, key entitlement.FeatureKey) (domain.CheckResult, error) {
	if !entitlement.KnownFeature(key) {
		return domain.CheckResult{}, fmt.Errorf("%w: %s", domain.ErrUnknownFeature, key)
	}

	rec, created, err := s.load(ctx, userID, "")
	if err != nil {
		return domain.CheckResult{}, err
	}

	changed := domain.Normalize(rec, rec.Plan, s.now())
	if created || changed {
		if err := s.records.Put(ctx, rec); err != nil {
			return domain.CheckResult{}, fmt.Errorf("persist usage record: %w", err)
		}
	}

	result := domain.Evaluate(rec, key)
	if !result.Allowed && result.Reason == domain.ReasonLimit {
		s.publish(ctx, RoutingKeyLimitReached, LimitReachedEvent{
			EventID:    uuid.New(),
			UserID:     userID,
			Feature:    key,
			Plan:       result.Plan,
			Used:       result.Used,
			Limit:      result.Limit,
			OccurredAt: s.now().UTC(),
		})
	}
	return result, nil
}

// IncrementResult is the snapshot returned after recording a use.
type IncrementResult struct {
	Record *domain.UsageRecord    `json:"record"`
	Used   int                    `json:"used"`
	Limit  int                    `json:"limit"`
	Scope  entitlement.LimitScope `json:"scope"`
}

// IncrementFeatureUsage records one completed use of a feature and persists
// the updated record. It does not enforce the limit: callers gate with
// CheckFeatureAllowed first, and only record usage after the guarded action
// actually succeeded.
func (s *Service) IncrementFeatureUsage(ctx context.Context, userID uuid.UUID, plan entitlement.PlanID, key entitlement.FeatureKey) (IncrementResult, error) {
	if !entitlement.KnownFeature(key) {
		return IncrementResult{}, fmt.Errorf("%w: %s", domain.ErrUnknownFeature, key)
	}

	rec, _, err := s.load(ctx, userID, plan)
	if err != nil {
		return IncrementResult{}, err
	}

	now := s.now()
	domain.Normalize(rec, plan, now)
	rec.Increment(key, now)

	if err := s.records.Put(ctx, rec); err != nil {
		return IncrementResult{}, fmt.Errorf("persist usage record: %w", err)
	}

	snapshot := domain.Evaluate(rec, key)
	cfg := entitlement.UsageConfigForPlan(rec.Plan).Features[key]
	_, scope := cfg.Effective()

	s.publish(ctx, RoutingKeyUsageRecorded, UsageRecordedEvent{
		EventID:    uuid.New(),
		UserID:     userID,
		Feature:    key,
		Plan:       rec.Plan,
		Used:       snapshot.Used,
		Limit:      snapshot.Limit,
		Scope:      scope,
		OccurredAt: now.UTC(),
	})

	s.logger.Debug("usage recorded",
		"user_id", userID.String(),
		"feature", string(key),
		"plan", string(rec.Plan),
		"used", snapshot.Used,
		"limit", snapshot.Limit,
	)

	return IncrementResult{Record: rec, Used: snapshot.Used, Limit: snapshot.Limit, Scope: scope}, nil
}

// CooldownStatus reports how long the user must wait before reusing a
// cooldown-throttled feature. Pure read; the record is not modified.
func (s *Service) CooldownStatus(ctx context.Context, userID uuid.UUID, key entitlement.FeatureKey, window time.Duration) (domain.CooldownStatus, error) {
	if !entitlement.KnownFeature(key) {
		return domain.CooldownStatus{}, fmt.Errorf("%w: %s", domain.ErrUnknownFeature, key)
	}

	rec, err := s.records.Get(ctx, userID)
	if err != nil {
		return domain.CooldownStatus{}, err
	}
	if rec == nil {
		return domain.CooldownStatus{}, nil
	}

	var lastUsed *time.Time
	if fu, ok := rec.Features[key]; ok {
		lastUsed = fu.LastUsedAt
	}
	return domain.ComputeCooldown(lastUsed, window, s.now()), nil
}

// TouchCooldown stamps the feature's last-use timestamp without moving
// either usage counter. Used for features throttled by cooldown alone.
func (s *Service) TouchCooldown(ctx context.Context, userID uuid.UUID, plan entitlement.PlanID, key entitlement.FeatureKey) error {
	if !entitlement.KnownFeature(key) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownFeature, key)
	}

	rec, _, err := s.load(ctx, userID, plan)
	if err != nil {
		return err
	}

	now := s.now()
	domain.Normalize(rec, plan, now)
	rec.Touch(key, now)

	if err := s.records.Put(ctx, rec); err != nil {
		return fmt.Errorf("persist usage record: %w", err)
	}
	return nil
}

// load fetches the user's record, synthesizing a zeroed one when absent.
// fallbackPlan seeds new records; an empty fallback means free.
func (s *Service) load(ctx context.Context, userID uuid.UUID, fallbackPlan entitlement.PlanID) (*domain.UsageRecord, bool, error) {
	rec, err := s.records.Get(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if rec == nil {
		return domain.NewUsageRecord(userID, entitlement.NormalizePlan(fallbackPlan), s.now()), true, nil
	}
	return rec, false, nil
}
