package shield

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrizoaguimor/kore-shield/pkg/alerting"
	"github.com/terrizoaguimor/kore-shield/pkg/blocklist"
	"github.com/terrizoaguimor/kore-shield/pkg/bruteforce"
	"github.com/terrizoaguimor/kore-shield/pkg/detection"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/alert"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/blockedip"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/visit"
	"github.com/terrizoaguimor/kore-shield/pkg/infra/geo"
	"github.com/terrizoaguimor/kore-shield/pkg/infra/repository/memory"
	"github.com/terrizoaguimor/kore-shield/pkg/ratelimiter"
	"github.com/terrizoaguimor/kore-shield/pkg/visitlog"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(new(strings.Builder))
	return logger
}

type engineFixture struct {
	engine   *Engine
	visits   *memory.VisitRepository
	blocks   *memory.BlockedIPRepository
	alerts   *memory.AlertRepository
	recorder *visitlog.Recorder
	now      time.Time
}

func newEngineFixture(t *testing.T, failClosed bool, quota ratelimiter.Quota) *engineFixture {
	t.Helper()

	logger := testLogger()
	visits := memory.NewVisitRepository()
	blocks := memory.NewBlockedIPRepository()
	alertRepo := memory.NewAlertRepository()
	rules := detection.DefaultRuleSet()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	emitter := alerting.NewEmitter(alertRepo, logger)
	registry := blocklist.NewRegistry(blocks, emitter, logger, &blocklist.Opts{TimeProvider: clock})
	limiter := ratelimiter.NewLimiter(
		ratelimiter.NewMemoryStore(),
		ratelimiter.Config{Default: quota},
		logger,
		&ratelimiter.Opts{TimeProvider: clock},
	)
	detector := bruteforce.NewDetector(
		visits, registry, emitter, bruteforce.DefaultConfig(), logger,
		&bruteforce.Opts{TimeProvider: clock},
	)
	recorder := visitlog.NewRecorder(visits, logger, 64)
	t.Cleanup(recorder.Close)

	engine := NewEngine(
		detection.NewThreatClassifier(rules, logger),
		detection.NewBotClassifier(rules),
		registry,
		limiter,
		detector,
		recorder,
		geo.NewNoopResolver(),
		emitter,
		logger,
		&Opts{FailClosed: failClosed, TimeProvider: clock},
	)
	t.Cleanup(engine.Close)

	return &engineFixture{
		engine:   engine,
		visits:   visits,
		blocks:   blocks,
		alerts:   alertRepo,
		recorder: recorder,
		now:      now,
	}
}

func defaultQuota() ratelimiter.Quota {
	return ratelimiter.Quota{Limit: 100, WindowSeconds: 60}
}

func TestEngine_AllowsCleanRequest(t *testing.T) {
	f := newEngineFixture(t, false, defaultQuota())

	verdict := f.engine.Evaluate(context.Background(), Request{
		IP:        "203.0.113.7",
		Path:      "/api/users",
		Method:    "GET",
		UserAgent: "Mozilla/5.0",
	})

	assert.True(t, verdict.Allowed)
	assert.False(t, verdict.Blocked)
	assert.False(t, verdict.RateLimited)
	assert.False(t, verdict.Degraded)
	assert.False(t, verdict.Analysis.IsThreat)
	require.NotNil(t, verdict.RateLimit)
	assert.Equal(t, int64(99), verdict.RateLimit.Remaining)
}

func TestEngine_BlocksOnThreatSignature(t *testing.T) {
	f := newEngineFixture(t, false, defaultQuota())

	verdict := f.engine.Evaluate(context.Background(), Request{
		IP:        "203.0.113.7",
		Path:      "/files/../../etc/passwd",
		Method:    "GET",
		UserAgent: "Mozilla/5.0",
	})

	assert.True(t, verdict.Blocked)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, ReasonThreatSignature, verdict.Reason)
	assert.Equal(t, visit.LevelCritical, verdict.Analysis.ThreatLevel)
	assert.Equal(t, 1, f.alerts.CountByType(alert.TypeThreatDetected))
}

func TestEngine_NoAlertOnHighSeverityThreat(t *testing.T) {
	f := newEngineFixture(t, false, defaultQuota())

	verdict := f.engine.Evaluate(context.Background(), Request{
		IP:        "203.0.113.7",
		Path:      "/api/users",
		Method:    "GET",
		UserAgent: "sqlmap/1.7",
	})

	assert.True(t, verdict.Blocked)
	assert.Equal(t, ReasonThreatSignature, verdict.Reason)
	assert.Equal(t, 0, f.alerts.CountByType(alert.TypeThreatDetected))
}

func TestEngine_DeniesBlockedCaller(t *testing.T) {
	f := newEngineFixture(t, false, defaultQuota())
	require.NoError(t, f.blocks.Upsert(context.Background(), &blockedip.BlockedIP{
		IPAddress:   "203.0.113.66",
		Reason:      "abuse report",
		BlockedAt:   f.now.Add(-time.Minute),
		IsPermanent: true,
	}))

	verdict := f.engine.Evaluate(context.Background(), Request{
		IP:        "203.0.113.66",
		Path:      "/api/users",
		Method:    "GET",
		UserAgent: "Mozilla/5.0",
	})

	assert.True(t, verdict.Blocked)
	assert.Equal(t, ReasonIPBlocked, verdict.Reason)
	assert.Nil(t, verdict.RateLimit)
}

func TestEngine_RateLimitsOverQuota(t *testing.T) {
	f := newEngineFixture(t, false, ratelimiter.Quota{Limit: 2, WindowSeconds: 60})
	req := Request{IP: "203.0.113.7", Path: "/api/users", Method: "GET", UserAgent: "Mozilla/5.0"}

	assert.True(t, f.engine.Evaluate(context.Background(), req).Allowed)
	assert.True(t, f.engine.Evaluate(context.Background(), req).Allowed)

	verdict := f.engine.Evaluate(context.Background(), req)
	assert.True(t, verdict.RateLimited)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, ReasonRateLimited, verdict.Reason)
	require.NotNil(t, verdict.RateLimit)
	assert.Equal(t, int64(0), verdict.RateLimit.Remaining)
}

func TestEngine_RateLimitIgnoresQueryString(t *testing.T) {
	f := newEngineFixture(t, false, ratelimiter.Quota{Limit: 2, WindowSeconds: 3600})

	// Varying the query must not mint a fresh counter per request.
	for i, path := range []string{"/api/users?r=1", "/api/users?r=2", "/api/users?r=3"} {
		verdict := f.engine.Evaluate(context.Background(), Request{
			IP:        "203.0.113.7",
			Path:      path,
			Method:    "GET",
			UserAgent: "Mozilla/5.0",
		})
		if i < 2 {
			assert.True(t, verdict.Allowed, path)
		} else {
			assert.True(t, verdict.RateLimited, path)
			assert.Equal(t, ReasonRateLimited, verdict.Reason)
		}
	}
}

func TestEngine_ObserveStoresEndpointPath(t *testing.T) {
	f := newEngineFixture(t, false, defaultQuota())
	req := Request{IP: "203.0.113.7", Path: "/api/users?page=2&sort=name", Method: "GET", UserAgent: "Mozilla/5.0"}

	verdict := f.engine.Evaluate(context.Background(), req)
	f.engine.Observe(req, verdict, 200, time.Millisecond)
	f.recorder.Close()

	visits := f.visits.All()
	require.Len(t, visits, 1)
	assert.Equal(t, "/api/users", visits[0].Path)
}

func TestEngine_FailOpenOnStoreError(t *testing.T) {
	f := newEngineFixture(t, false, defaultQuota())
	f.blocks.FailOps = assert.AnError

	verdict := f.engine.Evaluate(context.Background(), Request{
		IP:        "203.0.113.7",
		Path:      "/api/users",
		Method:    "GET",
		UserAgent: "Mozilla/5.0",
	})

	assert.True(t, verdict.Allowed)
	assert.True(t, verdict.Degraded)
	assert.False(t, verdict.Blocked)
}

func TestEngine_FailClosedOnStoreError(t *testing.T) {
	f := newEngineFixture(t, true, defaultQuota())
	f.blocks.FailOps = assert.AnError

	verdict := f.engine.Evaluate(context.Background(), Request{
		IP:        "203.0.113.7",
		Path:      "/api/users",
		Method:    "GET",
		UserAgent: "Mozilla/5.0",
	})

	assert.False(t, verdict.Allowed)
	assert.True(t, verdict.Degraded)
	assert.True(t, verdict.Blocked)
	assert.Equal(t, ReasonStoreUnavailable, verdict.Reason)
}

func TestEngine_ObserveRecordsVisit(t *testing.T) {
	f := newEngineFixture(t, false, defaultQuota())
	req := Request{IP: "203.0.113.7", Path: "/api/users", Method: "GET", UserAgent: "GPTBot/1.0"}

	verdict := f.engine.Evaluate(context.Background(), req)
	f.engine.Observe(req, verdict, 200, 12*time.Millisecond)
	f.recorder.Close()

	visits := f.visits.All()
	require.Len(t, visits, 1)
	v := visits[0]
	assert.Equal(t, "203.0.113.7", v.IPAddress)
	assert.Equal(t, "/api/users", v.Path)
	assert.True(t, v.IsBot)
	assert.Equal(t, visit.LevelNone, v.ThreatLevel)
	require.NotNil(t, v.StatusCode)
	assert.Equal(t, 200, *v.StatusCode)
	require.NotNil(t, v.ResponseTimeMs)
	assert.Equal(t, int64(12), *v.ResponseTimeMs)
	assert.Equal(t, "GPTBot", v.Detection["bot_name"])
	assert.Equal(t, true, v.Detection["is_ai_agent"])
}

func TestEngine_ObserveTriggersBruteForceBlock(t *testing.T) {
	f := newEngineFixture(t, false, defaultQuota())
	req := Request{IP: "203.0.113.7", Path: "/wp-login.php", Method: "POST", UserAgent: "Mozilla/5.0"}

	// Seed history right at the threshold; the next observed request trips it.
	for i := 0; i < 20; i++ {
		seedLoginVisit(t, f, req)
	}

	verdict := f.engine.Evaluate(context.Background(), req)
	f.engine.Observe(req, verdict, 401, time.Millisecond)
	f.engine.Close()

	blocked, err := f.engine.registry.IsBlocked(context.Background(), req.IP)
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Equal(t, 1, f.alerts.CountByType(alert.TypeBruteForceAttempt))
}

func seedLoginVisit(t *testing.T, f *engineFixture, req Request) {
	t.Helper()
	require.NoError(t, f.visits.Create(context.Background(), &visit.Visit{
		IPAddress:   req.IP,
		Path:        req.Path,
		Method:      req.Method,
		ThreatLevel: visit.LevelNone,
		CreatedAt:   f.now.Add(-time.Minute),
	}))
}
