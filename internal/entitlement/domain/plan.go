// Package domain defines the plan catalog: the static entitlement
// configuration that maps subscription plans to per-feature usage limits.
// It is pure configuration: no I/O, safe to share between goroutines.
package domain

// PlanID identifies a subscription plan.
type PlanID string

const (
	PlanFree      PlanID = "free"
	PlanTrial     PlanID = "trial"
	PlanEssential PlanID = "essential"
	PlanPro       PlanID = "pro"
	PlanPremium   PlanID = "premium"
)

// FeatureKey identifies a guarded action subject to usage limits.
type FeatureKey string

const (
	FeatureATSScore       FeatureKey = "ats_score"
	FeatureResumeFeedback FeatureKey = "resume_feedback"
)

// Unlimited marks a limit field as not governing.
const Unlimited = -1

// Period is the recurring window a limit applies to.
type Period string

const (
	PeriodMonthly Period = "month"
	PeriodNone    Period = "none"
)

// FeatureLimitConfig describes the limits for one feature on one plan.
//
// LifetimeLimit takes precedence over PeriodLimit: a value of 0 locks the
// feature entirely, a positive value caps total uses ever, and Unlimited
// defers to the period limit. When neither governs the feature is unlimited.
type FeatureLimitConfig struct {
	LifetimeLimit int    `json:"lifetime_limit"`
	Period        Period `json:"period"`
	PeriodLimit   int    `json:"period_limit"`
}

// Locked reports whether the feature is disabled for the plan.
func (c FeatureLimitConfig) Locked() bool {
	return c.LifetimeLimit == 0
}

// HasMonthlyLimit reports whether the feature is capped per calendar month.
func (c FeatureLimitConfig) HasMonthlyLimit() bool {
	return !c.Locked() && c.LifetimeLimit == Unlimited &&
		c.Period == PeriodMonthly && c.PeriodLimit > 0
}

// LimitScope names the counter that governs a feature.
type LimitScope string

const (
	ScopeLifetime  LimitScope = "lifetime"
	ScopeMonthly   LimitScope = "month"
	ScopeUnlimited LimitScope = "unlimited"
)

// Effective returns the governing limit and its scope.
// Limit is 0 for locked features and Unlimited when no cap applies.
func (c FeatureLimitConfig) Effective() (limit int, scope LimitScope) {
	switch {
	case c.Locked():
		return 0, ScopeLifetime
	case c.LifetimeLimit > 0:
		return c.LifetimeLimit, ScopeLifetime
	case c.HasMonthlyLimit():
		return c.PeriodLimit, ScopeMonthly
	default:
		return Unlimited, ScopeUnlimited
	}
}

// PlanUsageConfig is the full entitlement table for one plan.
type PlanUsageConfig struct {
	Plan     PlanID                            `json:"plan"`
	Features map[FeatureKey]FeatureLimitConfig `json:"features"`
}

// HasMonthlyFeature reports whether any feature of the plan is capped per
// calendar month, i.e. whether usage records for the plan carry period bounds.
func (p PlanUsageConfig) HasMonthlyFeature() bool {
	for _, cfg := range p.Features {
		if cfg.HasMonthlyLimit() {
			return true
		}
	}
	return false
}

// AllPlans lists every known plan.
var AllPlans = []PlanID{PlanFree, PlanTrial, PlanEssential, PlanPro, PlanPremium}

// AllFeatures lists every guarded feature.
var AllFeatures = []FeatureKey{FeatureATSScore, FeatureResumeFeedback}

// planCatalog is the source of truth for per-plan feature limits. Values are
// copied out by UsageConfigForPlan; the table itself is never mutated.
var planCatalog = map[PlanID]map[FeatureKey]FeatureLimitConfig{
	PlanFree: {
		FeatureATSScore:       {LifetimeLimit: 5, Period: PeriodNone},
		FeatureResumeFeedback: {LifetimeLimit: 0, Period: PeriodNone}, // locked
	},
	PlanTrial: {
		FeatureATSScore:       {LifetimeLimit: 10, Period: PeriodNone},
		FeatureResumeFeedback: {LifetimeLimit: 3, Period: PeriodNone},
	},
	PlanEssential: {
		FeatureATSScore:       {LifetimeLimit: Unlimited, Period: PeriodMonthly, PeriodLimit: 25},
		FeatureResumeFeedback: {LifetimeLimit: Unlimited, Period: PeriodMonthly, PeriodLimit: 3},
	},
	PlanPro: {
		FeatureATSScore:       {LifetimeLimit: Unlimited, Period: PeriodNone},
		FeatureResumeFeedback: {LifetimeLimit: Unlimited, Period: PeriodNone},
	},
	PlanPremium: {
		FeatureATSScore:       {LifetimeLimit: Unlimited, Period: PeriodNone},
		FeatureResumeFeedback: {LifetimeLimit: Unlimited, Period: PeriodNone},
	},
}

// NormalizePlan coerces unknown plan identifiers to the free plan.
func NormalizePlan(plan PlanID) PlanID {
	if _, ok := planCatalog[plan]; ok {
		return plan
	}
	return PlanFree
}

// KnownFeature reports whether key is part of the closed feature enumeration.
func KnownFeature(key FeatureKey) bool {
	_, ok := planCatalog[PlanFree][key]
	return ok
}

// UsageConfigForPlan returns the entitlement table for a plan. Unknown plans
// resolve to the free plan; the function is total over all inputs.
func UsageConfigForPlan(plan PlanID) PlanUsageConfig {
	plan = NormalizePlan(plan)

	features := make(map[FeatureKey]FeatureLimitConfig, len(planCatalog[plan]))
	for key, cfg := range planCatalog[plan] {
		features[key] = cfg
	}

	return PlanUsageConfig{Plan: plan, Features: features}
}
