package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines access for usage record persistence.
//
// Get returns (nil, nil) when no record exists for the user; a stored
// record that cannot be decoded is treated the same way, since a corrupt
// entry must never block the user. Infrastructure failures wrap
// ErrStorageUnavailable.
type Repository interface {
	Get(ctx context.Context, userID uuid.UUID) (*UsageRecord, error)
	Put(ctx context.Context, rec *UsageRecord) error
}
