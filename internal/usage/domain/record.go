// Package domain contains the usage ledger's core types: the per-user
// usage record, the normalization that reconciles it against the current
// plan and calendar period, and the allow/deny decision logic.
package domain

import (
	"time"

	"github.com/google/uuid"

	entitlement "github.com/careerlift/quota/internal/entitlement/domain"
)

// FeatureUsage tracks consumption of one feature by one user.
//
// PeriodUsed is present only for features capped per calendar month on the
// user's current plan. LastUsedAt feeds cooldown computation and is
// independent of both counters.
type FeatureUsage struct {
	LifetimeUsed int        `json:"lifetime_used"`
	PeriodUsed   *int       `json:"period_used,omitempty"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
}

// UsageRecord is the single source of truth for one user's feature usage.
// It is lazily created on first read and continuously reconciled against
// the plan catalog; there are no terminal states.
type UsageRecord struct {
	UserID      uuid.UUID                                `json:"user_id"`
	Plan        entitlement.PlanID                       `json:"plan"`
	PeriodStart *time.Time                               `json:"period_start,omitempty"`
	PeriodEnd   *time.Time                               `json:"period_end,omitempty"`
	Features    map[entitlement.FeatureKey]*FeatureUsage `json:"features"`
	CreatedAt   time.Time                                `json:"created_at"`
	UpdatedAt   time.Time                                `json:"updated_at"`
}

// NewUsageRecord builds a zeroed record for a user on a plan, with period
// bounds and feature entries shaped by the plan's configuration.
func NewUsageRecord(userID uuid.UUID, plan entitlement.PlanID, now time.Time) *UsageRecord {
	rec := &UsageRecord{
		UserID:    userID,
		Plan:      entitlement.NormalizePlan(plan),
		Features:  make(map[entitlement.FeatureKey]*FeatureUsage),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	Normalize(rec, plan, now)
	return rec
}

// Feature returns the usage entry for a key, initializing it with the shape
// the current plan requires. Features capped per month carry a period
// counter; others track lifetime use only.
func (r *UsageRecord) Feature(key entitlement.FeatureKey) *FeatureUsage {
	fu, ok := r.Features[key]
	if !ok {
		fu = &FeatureUsage{}
		r.Features[key] = fu
	}
	cfg := entitlement.UsageConfigForPlan(r.Plan).Features[key]
	if cfg.HasMonthlyLimit() && fu.PeriodUsed == nil {
		zero := 0
		fu.PeriodUsed = &zero
	}
	return fu
}

// bounds returns the record's stored period window.
func (r *UsageRecord) bounds() entitlement.PeriodBounds {
	return entitlement.PeriodBounds{Start: r.PeriodStart, End: r.PeriodEnd}
}

func (r *UsageRecord) setBounds(b entitlement.PeriodBounds) {
	r.PeriodStart = b.Start
	r.PeriodEnd = b.End
}

// resetPeriodCounters zeroes the period counter of every feature that has
// one. Lifetime counters and cooldown stamps are untouched.
func (r *UsageRecord) resetPeriodCounters() bool {
	changed := false
	for _, fu := range r.Features {
		if fu.PeriodUsed != nil && *fu.PeriodUsed != 0 {
			zero := 0
			fu.PeriodUsed = &zero
			changed = true
		}
	}
	return changed
}

// Normalize reconciles a record with the requested plan and the calendar
// period containing now. It reports whether the record was modified and is
// idempotent: normalizing an already-normalized record is a no-op.
//
// Reconciliation order matters: a plan change resets period counters and
// recomputes bounds first, then stale bounds (period rollover) reset the
// period counters again against the possibly updated plan.
func Normalize(rec *UsageRecord, plan entitlement.PlanID, now time.Time) bool {
	now = now.UTC()
	plan = entitlement.NormalizePlan(plan)
	cfg := entitlement.UsageConfigForPlan(plan)
	changed := false

	// Step 1: plan change. Adopt the new plan and reset period-scoped
	// counters; lifetime counters survive upgrades and downgrades.
	if rec.Plan != plan {
		rec.Plan = plan
		rec.setBounds(entitlement.CurrentPeriodBoundsAt(plan, now))
		rec.resetPeriodCounters()
		changed = true
	}

	// Step 2: period rollover. Fresh bounds are authoritative whenever the
	// stored window no longer matches or now has passed its end.
	fresh := entitlement.CurrentPeriodBoundsAt(plan, now)
	if cfg.HasMonthlyFeature() {
		stale := !rec.bounds().Equal(fresh) ||
			(rec.PeriodEnd != nil && now.After(*rec.PeriodEnd))
		if stale {
			rec.setBounds(fresh)
			rec.resetPeriodCounters()
			changed = true
		}
	} else if !rec.bounds().Empty() {
		// Step 3: the plan has no monthly feature, bounds are cleared.
		rec.setBounds(entitlement.PeriodBounds{})
		changed = true
	}

	// Step 4: backfill feature entries missing from older records, shaped
	// per the current plan's configuration.
	for key, fc := range cfg.Features {
		fu, ok := rec.Features[key]
		if !ok {
			fu = &FeatureUsage{}
			rec.Features[key] = fu
			changed = true
		}
		if fc.HasMonthlyLimit() && fu.PeriodUsed == nil {
			zero := 0
			fu.PeriodUsed = &zero
			changed = true
		}
	}

	if changed {
		rec.UpdatedAt = now
	}
	return changed
}

// Reason explains an allow/deny decision.
type Reason string

const (
	ReasonOK     Reason = "ok"
	ReasonLocked Reason = "locked"
	ReasonLimit  Reason = "limit"
)

// CheckResult is the answer to "may this feature be used right now".
// Limit is entitlement.Unlimited when no cap governs the feature.
type CheckResult struct {
	Allowed bool               `json:"allowed"`
	Reason  Reason             `json:"reason"`
	Used    int                `json:"used"`
	Limit   int                `json:"limit"`
	Plan    entitlement.PlanID `json:"plan"`
}

// usedFor reads the counter governing the given scope.
func (r *UsageRecord) usedFor(key entitlement.FeatureKey, scope entitlement.LimitScope) int {
	fu, ok := r.Features[key]
	if !ok {
		return 0
	}
	if scope == entitlement.ScopeMonthly && fu.PeriodUsed != nil {
		return *fu.PeriodUsed
	}
	return fu.LifetimeUsed
}

// Evaluate decides whether a feature may be used, against a record that has
// already been normalized. It never mutates the record.
func Evaluate(rec *UsageRecord, key entitlement.FeatureKey) CheckResult {
	cfg := entitlement.UsageConfigForPlan(rec.Plan).Features[key]
	limit, scope := cfg.Effective()
	used := rec.usedFor(key, scope)

	result := CheckResult{Used: used, Limit: limit, Plan: rec.Plan}
	switch {
	case limit == 0:
		result.Reason = ReasonLocked
	case limit == entitlement.Unlimited:
		result.Allowed = true
		result.Reason = ReasonOK
	case used >= limit:
		result.Reason = ReasonLimit
	default:
		result.Allowed = true
		result.Reason = ReasonOK
	}
	return result
}

// Increment records one completed use of a feature: the lifetime counter
// always advances; features capped per month on the current plan also
// advance their period counter and stamp the cooldown timestamp.
// It does not enforce the limit: callers gate with Evaluate first.
func (r *UsageRecord) Increment(key entitlement.FeatureKey, now time.Time) {
	now = now.UTC()
	fu := r.Feature(key)
	fu.LifetimeUsed++

	cfg := entitlement.UsageConfigForPlan(r.Plan).Features[key]
	if cfg.HasMonthlyLimit() {
		used := 0
		if fu.PeriodUsed != nil {
			used = *fu.PeriodUsed
		}
		used++
		fu.PeriodUsed = &used
		fu.LastUsedAt = &now
	}
	r.UpdatedAt = now
}

// Touch stamps the cooldown timestamp without moving either counter.
func (r *UsageRecord) Touch(key entitlement.FeatureKey, now time.Time) {
	now = now.UTC()
	fu := r.Feature(key)
	fu.LastUsedAt = &now
	r.UpdatedAt = now
}

// CooldownStatus reports how long a caller must wait before reusing a
// cooldown-throttled feature.
type CooldownStatus struct {
	OnCooldown bool          `json:"on_cooldown"`
	Remaining  time.Duration `json:"remaining"`
}

// ComputeCooldown compares the time since last use against the window.
// Remaining wait is rounded up to a whole second; a feature never used is
// never on cooldown.
func ComputeCooldown(lastUsed *time.Time, window time.Duration, now time.Time) CooldownStatus {
	if lastUsed == nil || window <= 0 {
		return CooldownStatus{}
	}
	elapsed := now.UTC().Sub(*lastUsed)
	if elapsed >= window {
		return CooldownStatus{}
	}
	remaining := window - elapsed
	if rem := remaining % time.Second; rem != 0 {
		remaining += time.Second - rem
	}
	return CooldownStatus{OnCooldown: true, Remaining: remaining}
}
