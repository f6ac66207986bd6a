package blockedip

import (
	"context"
	"time"
)

type Repository interface {
	// Upsert inserts the block or replaces reason/expiry for an existing row.
	Upsert(ctx context.Context, block *BlockedIP) error
	// Delete removes the row, reporting whether it existed.
	Delete(ctx context.Context, ip string) (bool, error)
	ExistsActive(ctx context.Context, ip string, now time.Time) (bool, error)
	ListActive(ctx context.Context, now time.Time) ([]BlockedIP, error)
}
