package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/terrizoaguimor/kore-shield/pkg/domain/ratelimit"
)

// Quota is one endpoint's admission budget per fixed window.
type Quota struct {
	Limit         int `json:"limit" mapstructure:"limit"`
	WindowSeconds int `json:"window_seconds" mapstructure:"window_seconds"`
}

func (q Quota) window() time.Duration {
	return time.Duration(q.WindowSeconds) * time.Second
}

// Config maps endpoints to quotas, with a default for unlisted endpoints.
type Config struct {
	Default   Quota            `json:"default" mapstructure:"default"`
	Endpoints map[string]Quota `json:"endpoints" mapstructure:"endpoints"`
}

// Result is the limiter's answer for one request. ResetAfter is the time
// remaining until the current window boundary.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int64
	ResetAfter time.Duration
}

type Limiter struct {
	store        ratelimit.CounterStore
	config       Config
	logger       *logrus.Logger
	timeProvider func() time.Time
}

type Opts struct {
	TimeProvider func() time.Time
}

func NewLimiter(store ratelimit.CounterStore, config Config, logger *logrus.Logger, opts *Opts) *Limiter {
	timeProvider := time.Now
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	if config.Default.Limit <= 0 {
		config.Default = Quota{Limit: 100, WindowSeconds: 60}
	}
	return &Limiter{
		store:        store,
		config:       config,
		logger:       logger,
		timeProvider: timeProvider,
	}
}

// Check performs the atomic read-check-increment for (ip, endpoint) in the
// current fixed window. A denied request does not consume quota.
func (l *Limiter) Check(ctx context.Context, ip, endpoint string) (Result, error) {
	quota := l.quotaFor(endpoint)
	window := quota.window()
	now := l.timeProvider()
	windowStart := ratelimit.WindowStartAt(now, window)

	key := ratelimit.Key{
		IP:          ip,
		Endpoint:    endpoint,
		WindowStart: windowStart,
		Window:      window,
	}

	count, allowed, err := l.store.Incr(ctx, key, quota.Limit)
	if err != nil {
		return Result{}, fmt.Errorf("rate limit check for %s %s: %w", ip, endpoint, err)
	}

	remaining := int64(quota.Limit) - count
	if remaining < 0 {
		remaining = 0
	}

	result := Result{
		Allowed:    allowed,
		Limit:      quota.Limit,
		Remaining:  remaining,
		ResetAfter: windowStart.Add(window).Sub(now),
	}

	if !allowed {
		l.logger.WithFields(logrus.Fields{
			"ip":       ip,
			"endpoint": endpoint,
			"limit":    quota.Limit,
			"window":   window.String(),
		}).Debug("rate limit exceeded")
	}

	return result, nil
}

func (l *Limiter) quotaFor(endpoint string) Quota {
	if quota, ok := l.config.Endpoints[endpoint]; ok && quota.Limit > 0 && quota.WindowSeconds > 0 {
		return quota
	}
	return l.config.Default
}
