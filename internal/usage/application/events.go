package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	entitlement "github.com/careerlift/quota/internal/entitlement/domain"
)

// Routing keys on the usage event exchange.
const (
	RoutingKeyUsageRecorded = "quota.usage.recorded"
	RoutingKeyLimitReached  = "quota.limit.reached"
)

// UsageRecordedEvent is emitted after a completed feature invocation has
// been counted.
type UsageRecordedEvent struct {
	EventID    uuid.UUID              `json:"event_id"`
	UserID     uuid.UUID              `json:"user_id"`
	Feature    entitlement.FeatureKey `json:"feature"`
	Plan       entitlement.PlanID     `json:"plan"`
	Used       int                    `json:"used"`
	Limit      int                    `json:"limit"`
	Scope      entitlement.LimitScope `json:"scope"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// LimitReachedEvent is emitted when an allow-check denies a request because
// the governing limit is exhausted.
type LimitReachedEvent struct {
	EventID    uuid.UUID              `json:"event_id"`
	UserID     uuid.UUID              `json:"user_id"`
	Feature    entitlement.FeatureKey `json:"feature"`
	Plan       entitlement.PlanID     `json:"plan"`
	Used       int                    `json:"used"`
	Limit      int                    `json:"limit"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// publish serializes and sends an event best-effort. Event delivery never
// fails a ledger operation.
func (s *Service) publish(ctx context.Context, routingKey string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal usage event",
			"routing_key", routingKey,
			"error", err,
		)
		return
	}
	if err := s.events.Publish(ctx, routingKey, payload); err != nil {
		s.logger.Warn("failed to publish usage event",
			"routing_key", routingKey,
			"error", err,
		)
	}
}
