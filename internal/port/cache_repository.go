package port

import "context"

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// SetStock writes the display mirror of a product's stock
	SetStock(ctx context.Context, productID string, quantity int) error

	// AdjustStock shifts the mirrored stock by delta, clamped at zero
	AdjustStock(ctx context.Context, productID string, delta int) error

	// GetStock reads the mirrored stock; ok is false when no mirror exists
	GetStock(ctx context.Context, productID string) (int, bool, error)
}
