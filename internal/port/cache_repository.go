package port

import "context"

// CacheRepository mirrors current quantities into an external cache so
// other processes can read them cheaply. The in-memory store stays
// authoritative; mirror failures must not fail the mutation.
type CacheRepository interface {
	// SetQuantity overwrites the mirrored quantity for an item
	SetQuantity(ctx context.Context, itemID string, quantity int) error

	// AdjustQuantity atomically applies a signed delta, returns false if
	// the result would go below zero
	AdjustQuantity(ctx context.Context, itemID string, delta int) (bool, error)

	// GetQuantity reads the mirrored quantity; second result is false
	// when the item is not mirrored
	GetQuantity(ctx context.Context, itemID string) (int, bool, error)

	// DeleteQuantity drops an item from the mirror
	DeleteQuantity(ctx context.Context, itemID string) error
}
