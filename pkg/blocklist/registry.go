package blocklist

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/terrizoaguimor/kore-shield/pkg/alerting"
	"github.com/terrizoaguimor/kore-shield/pkg/domain"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/alert"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/blockedip"
)

// Registry manages the blocked-caller set. All durable state lives in the
// repository; expiry is a read-time filter.
type Registry struct {
	repo         blockedip.Repository
	alerts       alerting.Emitter
	logger       *logrus.Logger
	timeProvider func() time.Time
}

type Opts struct {
	TimeProvider func() time.Time
}

func NewRegistry(repo blockedip.Repository, alerts alerting.Emitter, logger *logrus.Logger, opts *Opts) *Registry {
	timeProvider := time.Now
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	return &Registry{
		repo:         repo,
		alerts:       alerts,
		logger:       logger,
		timeProvider: timeProvider,
	}
}

func (r *Registry) IsBlocked(ctx context.Context, ip string) (bool, error) {
	blocked, err := r.repo.ExistsActive(ctx, ip, r.timeProvider())
	if err != nil {
		return false, fmt.Errorf("block check for %s: %w", ip, err)
	}
	return blocked, nil
}

// Block upserts a block row; a repeated call for the same caller replaces
// reason and expiry. A nil ttl makes the block permanent. Every call emits
// an ip_blocked alert.
func (r *Registry) Block(ctx context.Context, ip, reason string, ttl *time.Duration, actor string) error {
	now := r.timeProvider()

	block := &blockedip.BlockedIP{
		IPAddress: ip,
		Reason:    reason,
		BlockedAt: now,
		BlockedBy: actor,
	}
	if ttl != nil {
		expiresAt := now.Add(*ttl)
		block.ExpiresAt = &expiresAt
	} else {
		block.IsPermanent = true
	}

	if err := r.repo.Upsert(ctx, block); err != nil {
		return fmt.Errorf("block %s: %w", ip, err)
	}

	r.logger.WithFields(logrus.Fields{
		"ip":        ip,
		"reason":    reason,
		"permanent": block.IsPermanent,
		"actor":     actor,
	}).Info("ip blocked")

	metadata := domain.JSONMap{"blocked_by": actor}
	if block.ExpiresAt != nil {
		metadata["expires_at"] = block.ExpiresAt.Format(time.RFC3339)
	}
	r.alerts.Emit(ctx, alert.Alert{
		Type:        alert.TypeIPBlocked,
		Severity:    alert.SeverityWarning,
		IPAddress:   &ip,
		Description: fmt.Sprintf("IP %s blocked: %s", ip, reason),
		Metadata:    metadata,
	})

	return nil
}

// Unblock removes the block row. A missing row is not an error: it
// returns false and emits nothing.
func (r *Registry) Unblock(ctx context.Context, ip, actor string) (bool, error) {
	deleted, err := r.repo.Delete(ctx, ip)
	if err != nil {
		return false, fmt.Errorf("unblock %s: %w", ip, err)
	}
	if !deleted {
		return false, nil
	}

	r.logger.WithFields(logrus.Fields{
		"ip":    ip,
		"actor": actor,
	}).Info("ip unblocked")

	r.alerts.Emit(ctx, alert.Alert{
		Type:        alert.TypeIPUnblocked,
		Severity:    alert.SeverityInfo,
		IPAddress:   &ip,
		Description: fmt.Sprintf("IP %s unblocked", ip),
		Metadata:    domain.JSONMap{"unblocked_by": actor},
	})

	return true, nil
}

func (r *Registry) ListActive(ctx context.Context) ([]blockedip.BlockedIP, error) {
	blocks, err := r.repo.ListActive(ctx, r.timeProvider())
	if err != nil {
		return nil, fmt.Errorf("list active blocks: %w", err)
	}
	return blocks, nil
}
