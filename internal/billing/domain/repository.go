package domain

import (
	"context"

	"github.com/google/uuid"
)

// SubscriptionRepository defines access for subscription persistence.
// Writes come from the external billing sync; the ledger side only reads.
type SubscriptionRepository interface {
	Upsert(ctx context.Context, subscription *Subscription) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Subscription, error)
}
