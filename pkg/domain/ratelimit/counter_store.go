package ratelimit

import "context"

// CounterStore is the atomic read-check-increment primitive the limiter
// relies on. Incr must behave as a single conditional operation against
// concurrent callers: when the counter is already at limit it reports
// allowed=false without incrementing.
//
//go:generate mockery --name=CounterStore --dir=. --output=./mocks --filename=counter_store_mock.go --case=underscore --with-expecter
type CounterStore interface {
	Incr(ctx context.Context, key Key, limit int) (count int64, allowed bool, err error)
}
