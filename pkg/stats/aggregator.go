package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/terrizoaguimor/kore-shield/pkg/detection"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/alert"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/blockedip"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/visit"
)

type PathCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

type IPCount struct {
	IPAddress  string `json:"ip_address"`
	Count      int    `json:"count"`
	Suspicious bool   `json:"suspicious"`
}

type CountryCount struct {
	Country    string `json:"country"`
	Visits     int    `json:"visits"`
	Suspicious int    `json:"suspicious"`
}

// SecurityStats is the dashboard-facing reduction over one time window.
type SecurityStats struct {
	Window             string         `json:"window"`
	TotalVisits        int            `json:"total_visits"`
	UniqueIPs          int            `json:"unique_ips"`
	SuspiciousRequests int            `json:"suspicious_requests"`
	ThreatLevels       map[string]int `json:"threat_levels"`
	TopPaths           []PathCount    `json:"top_paths"`
	TopIPs             []IPCount      `json:"top_ips"`
	BotVisits          int            `json:"bot_visits"`
	AIAgentVisits      int            `json:"ai_agent_visits"`
	ActiveBlocks       int            `json:"active_blocks"`
	Countries          []CountryCount `json:"countries"`
	RecentAlerts       []alert.Alert  `json:"recent_alerts"`
}

// Aggregator is a read-only reducer over the visit log, block registry and
// alert stream. Summarize never mutates anything, so it can run at any
// cadence without affecting the request path.
type Aggregator struct {
	visits       visit.Repository
	blocks       blockedip.Repository
	alerts       alert.Repository
	bots         *detection.BotClassifier
	topN         int
	alertLimit   int
	timeProvider func() time.Time
}

type Opts struct {
	TopN         int
	AlertLimit   int
	TimeProvider func() time.Time
}

func NewAggregator(
	visits visit.Repository,
	blocks blockedip.Repository,
	alerts alert.Repository,
	bots *detection.BotClassifier,
	opts *Opts,
) *Aggregator {
	a := &Aggregator{
		visits:       visits,
		blocks:       blocks,
		alerts:       alerts,
		bots:         bots,
		topN:         10,
		alertLimit:   50,
		timeProvider: time.Now,
	}
	if opts != nil {
		if opts.TopN > 0 {
			a.topN = opts.TopN
		}
		if opts.AlertLimit > 0 {
			a.alertLimit = opts.AlertLimit
		}
		if opts.TimeProvider != nil {
			a.timeProvider = opts.TimeProvider
		}
	}
	return a
}

func (a *Aggregator) Summarize(ctx context.Context, window time.Duration) (SecurityStats, error) {
	now := a.timeProvider()
	since := now.Add(-window)

	var (
		visits       []visit.Visit
		activeBlocks []blockedip.BlockedIP
		recentAlerts []alert.Alert
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		visits, err = a.visits.ListSince(gctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		activeBlocks, err = a.blocks.ListActive(gctx, now)
		return err
	})
	g.Go(func() error {
		var err error
		recentAlerts, err = a.alerts.ListRecent(gctx, a.alertLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return SecurityStats{}, fmt.Errorf("stats aggregation: %w", err)
	}

	stats := SecurityStats{
		Window:       window.String(),
		TotalVisits:  len(visits),
		ThreatLevels: make(map[string]int),
		ActiveBlocks: len(activeBlocks),
		RecentAlerts: recentAlerts,
	}

	pathCounts := make(map[string]int)
	ipCounts := make(map[string]int)
	ipSuspicious := make(map[string]bool)
	countryVisits := make(map[string]int)
	countrySuspicious := make(map[string]int)
	namedBots := 0

	for _, v := range visits {
		pathCounts[v.Path]++
		ipCounts[v.IPAddress]++

		level := v.ThreatLevel
		if level == "" {
			level = visit.LevelNone
		}
		stats.ThreatLevels[string(level)]++

		if v.IsSuspicious {
			stats.SuspiciousRequests++
			ipSuspicious[v.IPAddress] = true
		}
		if v.IsBot {
			stats.BotVisits++
			if name, ok := v.Detection["bot_name"].(string); ok {
				namedBots++
				if a.bots.IsAIAgent(name) {
					stats.AIAgentVisits++
				}
			}
		}
		if v.Country != nil {
			countryVisits[*v.Country]++
			if v.IsSuspicious {
				countrySuspicious[*v.Country]++
			}
		}
	}

	// When visits carry no classifier detail the finer bot/AI split is
	// unknowable; approximate with a proportional half split.
	if stats.BotVisits > 0 && namedBots == 0 {
		stats.AIAgentVisits = stats.BotVisits / 2
	}

	stats.UniqueIPs = len(ipCounts)
	stats.TopPaths = topPaths(pathCounts, a.topN)
	stats.TopIPs = topIPs(ipCounts, ipSuspicious, a.topN)
	stats.Countries = countries(countryVisits, countrySuspicious)

	return stats, nil
}

func topPaths(counts map[string]int, n int) []PathCount {
	out := make([]PathCount, 0, len(counts))
	for path, count := range counts {
		out = append(out, PathCount{Path: path, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Path < out[j].Path
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func topIPs(counts map[string]int, suspicious map[string]bool, n int) []IPCount {
	out := make([]IPCount, 0, len(counts))
	for ip, count := range counts {
		out = append(out, IPCount{IPAddress: ip, Count: count, Suspicious: suspicious[ip]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].IPAddress < out[j].IPAddress
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func countries(visits map[string]int, suspicious map[string]int) []CountryCount {
	out := make([]CountryCount, 0, len(visits))
	for country, count := range visits {
		out = append(out, CountryCount{
			Country:    country,
			Visits:     count,
			Suspicious: suspicious[country],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Visits != out[j].Visits {
			return out[i].Visits > out[j].Visits
		}
		return out[i].Country < out[j].Country
	})
	return out
}
