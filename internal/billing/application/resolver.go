// Package application maps billing state onto plan identifiers the usage
// ledger understands.
package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/careerlift/quota/internal/billing/domain"
	entitlement "github.com/careerlift/quota/internal/entitlement/domain"
)

// PlanResolver answers "what plan is this user on right now". Callers
// resolve the plan once per request before consulting the usage ledger.
type PlanResolver struct {
	subscriptions domain.SubscriptionRepository
	now           func() time.Time
}

// ResolverOption configures a PlanResolver.
type ResolverOption func(*PlanResolver)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *PlanResolver) {
		r.now = now
	}
}

// NewPlanResolver creates a resolver over the synced subscription store.
func NewPlanResolver(subscriptions domain.SubscriptionRepository, opts ...ResolverOption) *PlanResolver {
	r := &PlanResolver{subscriptions: subscriptions, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolvePlan returns the user's effective plan. Users without a
// subscription, with a lapsed trial, or in a delinquent/canceled state
// resolve to the free plan; unknown plan names from billing do too.
func (r *PlanResolver) ResolvePlan(ctx context.Context, userID uuid.UUID) (entitlement.PlanID, error) {
	sub, err := r.subscriptions.FindByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if sub == nil {
		return entitlement.PlanFree, nil
	}

	switch sub.Status {
	case domain.SubscriptionTrialing:
		if sub.CurrentPeriodEnd != nil && r.now().After(*sub.CurrentPeriodEnd) {
			return entitlement.PlanFree, nil
		}
		return entitlement.PlanTrial, nil

	case domain.SubscriptionActive:
		if sub.CurrentPeriodEnd != nil && r.now().After(*sub.CurrentPeriodEnd) {
			return entitlement.PlanFree, nil
		}
		return entitlement.NormalizePlan(entitlement.PlanID(sub.Plan)), nil

	default:
		// past_due, canceled, anything billing invents later
		return entitlement.PlanFree, nil
	}
}
