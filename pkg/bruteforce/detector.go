package bruteforce

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/terrizoaguimor/kore-shield/pkg/alerting"
	"github.com/terrizoaguimor/kore-shield/pkg/blocklist"
	"github.com/terrizoaguimor/kore-shield/pkg/common"
	"github.com/terrizoaguimor/kore-shield/pkg/domain"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/alert"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/visit"
	"github.com/terrizoaguimor/kore-shield/pkg/infra/prometheus"
)

// Config bounds the rolling window the detector inspects.
type Config struct {
	Window    time.Duration
	Threshold int
	BlockTTL  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Window:    common.DefaultBruteForceSpan,
		Threshold: common.DefaultBruteForceLimit,
		BlockTTL:  common.DefaultBlockTTL,
	}
}

// Detector scans durable visit history for a caller hammering one
// endpoint. It keeps no counters of its own: the visit log is the single
// source of truth, so horizontally scaled instances agree on caller state.
type Detector struct {
	visits       visit.Repository
	registry     *blocklist.Registry
	alerts       alerting.Emitter
	config       Config
	logger       *logrus.Logger
	timeProvider func() time.Time
}

type Opts struct {
	TimeProvider func() time.Time
}

func NewDetector(
	visits visit.Repository,
	registry *blocklist.Registry,
	alerts alerting.Emitter,
	config Config,
	logger *logrus.Logger,
	opts *Opts,
) *Detector {
	timeProvider := time.Now
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	if config.Window <= 0 {
		config.Window = common.DefaultBruteForceSpan
	}
	if config.Threshold <= 0 {
		config.Threshold = common.DefaultBruteForceLimit
	}
	if config.BlockTTL <= 0 {
		config.BlockTTL = common.DefaultBlockTTL
	}
	return &Detector{
		visits:       visits,
		registry:     registry,
		alerts:       alerts,
		config:       config,
		logger:       logger,
		timeProvider: timeProvider,
	}
}

// Check reports whether (ip, endpoint) crossed the threshold within the
// window, and on detection emits one brute_force_attempt alert and inserts
// a time-bounded block.
func (d *Detector) Check(ctx context.Context, ip, endpoint string) (bool, error) {
	now := d.timeProvider()
	since := now.Add(-d.config.Window)

	count, err := d.visits.CountSince(ctx, ip, endpoint, since)
	if err != nil {
		return false, fmt.Errorf("brute force history scan for %s %s: %w", ip, endpoint, err)
	}
	if count < int64(d.config.Threshold) {
		return false, nil
	}

	d.logger.WithFields(logrus.Fields{
		"ip":       ip,
		"endpoint": endpoint,
		"attempts": count,
		"window":   d.config.Window.String(),
	}).Warn("brute force attack detected")

	d.alerts.Emit(ctx, alert.Alert{
		Type:        alert.TypeBruteForceAttempt,
		Severity:    alert.SeverityHigh,
		IPAddress:   &ip,
		Description: fmt.Sprintf("Brute force attempt on %s: %d requests in %s", endpoint, count, d.config.Window),
		Metadata: domain.JSONMap{
			"endpoint": endpoint,
			"attempts": count,
			"window":   d.config.Window.String(),
		},
	})

	ttl := d.config.BlockTTL
	reason := fmt.Sprintf("brute force attack on %s", endpoint)
	if err := d.registry.Block(ctx, ip, reason, &ttl, common.SystemActor); err != nil {
		return true, fmt.Errorf("brute force block for %s: %w", ip, err)
	}
	prometheus.BruteForceBlocks.Inc()

	return true, nil
}
