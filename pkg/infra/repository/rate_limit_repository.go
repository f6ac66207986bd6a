package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/terrizoaguimor/kore-shield/pkg/domain"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/ratelimit"
)

type rateLimitRepository struct {
	db *gorm.DB
}

// NewRateLimitRepository returns the durable CounterStore. The hot path
// normally runs against Redis; this implementation backs deployments that
// run without one, and keeps the same atomicity guarantee through a single
// conditional upsert.
func NewRateLimitRepository(db *gorm.DB) ratelimit.CounterStore {
	return &rateLimitRepository{
		db: db,
	}
}

const incrSQL = `
INSERT INTO security_rate_limits (ip_address, endpoint, window_start, request_count)
VALUES (?, ?, ?, 1)
ON CONFLICT (ip_address, endpoint, window_start)
DO UPDATE SET request_count = security_rate_limits.request_count + 1
WHERE security_rate_limits.request_count < ?
RETURNING request_count`

func (r *rateLimitRepository) Incr(ctx context.Context, key ratelimit.Key, limit int) (int64, bool, error) {
	// One statement: insert the window row, or bump the counter only while
	// it is below the quota. No row back means the quota was already spent.
	var count int64
	result := r.db.WithContext(ctx).
		Raw(incrSQL, key.IP, key.Endpoint, key.WindowStart, limit).
		Scan(&count)
	if result.Error != nil {
		return 0, false, fmt.Errorf("rate limit upsert (%w): %v", domain.ErrStoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return int64(limit), false, nil
	}
	return count, true, nil
}
