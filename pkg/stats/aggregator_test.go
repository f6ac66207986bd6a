package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrizoaguimor/kore-shield/pkg/detection"
	"github.com/terrizoaguimor/kore-shield/pkg/domain"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/alert"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/blockedip"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/visit"
	"github.com/terrizoaguimor/kore-shield/pkg/infra/repository/memory"
)

func strPtr(s string) *string { return &s }

func seedVisit(t *testing.T, repo *memory.VisitRepository, v visit.Visit) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &v))
}

func newAggregatorFixture(now time.Time) (*Aggregator, *memory.VisitRepository, *memory.BlockedIPRepository, *memory.AlertRepository) {
	visits := memory.NewVisitRepository()
	blocks := memory.NewBlockedIPRepository()
	alerts := memory.NewAlertRepository()
	bots := detection.NewBotClassifier(detection.DefaultRuleSet())
	agg := NewAggregator(visits, blocks, alerts, bots, &Opts{
		TopN:         3,
		TimeProvider: func() time.Time { return now },
	})
	return agg, visits, blocks, alerts
}

func TestAggregator_Summarize(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	agg, visits, blocks, alerts := newAggregatorFixture(now)

	for i := 0; i < 5; i++ {
		seedVisit(t, visits, visit.Visit{
			IPAddress:   "10.0.0.1",
			Path:        "/api/users",
			Method:      "GET",
			Country:     strPtr("DE"),
			ThreatLevel: visit.LevelNone,
			CreatedAt:   now.Add(-10 * time.Minute),
		})
	}
	seedVisit(t, visits, visit.Visit{
		IPAddress:    "10.0.0.2",
		Path:         "/admin",
		Method:       "GET",
		Country:      strPtr("DE"),
		IsSuspicious: true,
		ThreatLevel:  visit.LevelHigh,
		CreatedAt:    now.Add(-5 * time.Minute),
	})
	seedVisit(t, visits, visit.Visit{
		IPAddress:   "10.0.0.3",
		Path:        "/",
		Method:      "GET",
		Country:     strPtr("US"),
		IsBot:       true,
		ThreatLevel: visit.LevelNone,
		Detection:   domain.JSONMap{"bot_name": "GPTBot"},
		CreatedAt:   now.Add(-time.Minute),
	})
	seedVisit(t, visits, visit.Visit{
		IPAddress:   "10.0.0.4",
		Path:        "/",
		Method:      "GET",
		IsBot:       true,
		ThreatLevel: visit.LevelNone,
		Detection:   domain.JSONMap{"bot_name": "Googlebot"},
		CreatedAt:   now.Add(-time.Minute),
	})
	// Outside the window, must not be counted.
	seedVisit(t, visits, visit.Visit{
		IPAddress:   "10.0.0.9",
		Path:        "/old",
		Method:      "GET",
		ThreatLevel: visit.LevelNone,
		CreatedAt:   now.Add(-2 * time.Hour),
	})

	require.NoError(t, blocks.Upsert(context.Background(), &blockedip.BlockedIP{
		IPAddress:   "10.0.0.2",
		Reason:      "test block",
		BlockedAt:   now.Add(-time.Minute),
		IsPermanent: true,
	}))
	require.NoError(t, alerts.Create(context.Background(), &alert.Alert{
		Type:        alert.TypeIPBlocked,
		Severity:    alert.SeverityHigh,
		Description: "blocked 10.0.0.2",
	}))

	stats, err := agg.Summarize(context.Background(), time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 8, stats.TotalVisits)
	assert.Equal(t, 4, stats.UniqueIPs)
	assert.Equal(t, 1, stats.SuspiciousRequests)
	assert.Equal(t, 2, stats.BotVisits)
	assert.Equal(t, 1, stats.AIAgentVisits)
	assert.Equal(t, 1, stats.ActiveBlocks)
	assert.Len(t, stats.RecentAlerts, 1)

	assert.Equal(t, 7, stats.ThreatLevels["none"])
	assert.Equal(t, 1, stats.ThreatLevels["high"])

	require.NotEmpty(t, stats.TopPaths)
	assert.Equal(t, PathCount{Path: "/api/users", Count: 5}, stats.TopPaths[0])

	require.NotEmpty(t, stats.TopIPs)
	assert.Equal(t, IPCount{IPAddress: "10.0.0.1", Count: 5}, stats.TopIPs[0])
	var suspiciousCaller *IPCount
	for i := range stats.TopIPs {
		if stats.TopIPs[i].IPAddress == "10.0.0.2" {
			suspiciousCaller = &stats.TopIPs[i]
		}
	}
	require.NotNil(t, suspiciousCaller)
	assert.True(t, suspiciousCaller.Suspicious)

	require.Len(t, stats.Countries, 2)
	assert.Equal(t, CountryCount{Country: "DE", Visits: 6, Suspicious: 1}, stats.Countries[0])
	assert.Equal(t, CountryCount{Country: "US", Visits: 1, Suspicious: 0}, stats.Countries[1])
}

func TestAggregator_TopNClamp(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	agg, visits, _, _ := newAggregatorFixture(now)

	paths := []string{"/a", "/b", "/c", "/d", "/e"}
	for i, path := range paths {
		for j := 0; j <= i; j++ {
			seedVisit(t, visits, visit.Visit{
				IPAddress:   "10.0.0.1",
				Path:        path,
				Method:      "GET",
				ThreatLevel: visit.LevelNone,
				CreatedAt:   now.Add(-time.Minute),
			})
		}
	}

	stats, err := agg.Summarize(context.Background(), time.Hour)
	require.NoError(t, err)

	require.Len(t, stats.TopPaths, 3)
	assert.Equal(t, "/e", stats.TopPaths[0].Path)
	assert.Equal(t, "/d", stats.TopPaths[1].Path)
	assert.Equal(t, "/c", stats.TopPaths[2].Path)
}

func TestAggregator_ProportionalBotSplitWithoutDetail(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	agg, visits, _, _ := newAggregatorFixture(now)

	for i := 0; i < 4; i++ {
		seedVisit(t, visits, visit.Visit{
			IPAddress:   "10.0.0.1",
			Path:        "/",
			Method:      "GET",
			IsBot:       true,
			ThreatLevel: visit.LevelNone,
			CreatedAt:   now.Add(-time.Minute),
		})
	}

	stats, err := agg.Summarize(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.BotVisits)
	assert.Equal(t, 2, stats.AIAgentVisits)
}

func TestAggregator_EmptyWindow(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	agg, _, _, _ := newAggregatorFixture(now)

	stats, err := agg.Summarize(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalVisits)
	assert.Equal(t, 0, stats.UniqueIPs)
	assert.Empty(t, stats.TopPaths)
	assert.Empty(t, stats.TopIPs)
	assert.Empty(t, stats.Countries)
}

func TestAggregator_SummarizeIsIdempotent(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	agg, visits, _, alerts := newAggregatorFixture(now)

	seedVisit(t, visits, visit.Visit{
		IPAddress:   "10.0.0.1",
		Path:        "/",
		Method:      "GET",
		ThreatLevel: visit.LevelNone,
		CreatedAt:   now.Add(-time.Minute),
	})

	first, err := agg.Summarize(context.Background(), time.Hour)
	require.NoError(t, err)
	second, err := agg.Summarize(context.Background(), time.Hour)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, visits.All(), 1)
	assert.Empty(t, alerts.All())
}

func TestAggregator_PropagatesStoreError(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	agg, _, blocks, _ := newAggregatorFixture(now)
	blocks.FailOps = assert.AnError

	_, err := agg.Summarize(context.Background(), time.Hour)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
