package visit

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, visit *Visit) error
	CountSince(ctx context.Context, ip, path string, since time.Time) (int64, error)
	ListSince(ctx context.Context, since time.Time) ([]Visit, error)
}
