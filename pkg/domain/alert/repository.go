package alert

import "context"

type Repository interface {
	Create(ctx context.Context, alert *Alert) error
	ListRecent(ctx context.Context, limit int) ([]Alert, error)
}
