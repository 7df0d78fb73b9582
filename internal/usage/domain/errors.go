package domain

import "errors"

var (
	// ErrStorageUnavailable wraps any failure of the backing store. It is
	// always propagated; the ledger never degrades silently, because a
	// guessed answer would under- or over-report usage.
	ErrStorageUnavailable = errors.New("quota: usage storage unavailable")

	// ErrUnknownFeature indicates a feature key outside the closed
	// enumeration. This is a caller programming error, not a runtime
	// condition the ledger recovers from.
	ErrUnknownFeature = errors.New("quota: unknown feature key")
)
