package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrizoaguimor/kore-shield/pkg/detection"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/visit"
	"github.com/terrizoaguimor/kore-shield/pkg/infra/repository/memory"
	"github.com/terrizoaguimor/kore-shield/pkg/stats"
)

func TestStatsHandler(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(new(strings.Builder))

	visits := memory.NewVisitRepository()
	blocks := memory.NewBlockedIPRepository()
	alerts := memory.NewAlertRepository()
	require.NoError(t, visits.Create(context.Background(), &visit.Visit{
		IPAddress:   "203.0.113.9",
		Path:        "/api/users",
		Method:      "GET",
		ThreatLevel: visit.LevelNone,
		CreatedAt:   time.Now().Add(-time.Minute),
	}))

	aggregator := stats.NewAggregator(
		visits, blocks, alerts,
		detection.NewBotClassifier(detection.DefaultRuleSet()),
		nil,
	)
	handler := NewStatsHandler(logger, aggregator)

	app := fiber.New()
	app.Get("/api/v1/security/stats", handler.Handle)

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/security/stats?hours=1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var summary stats.SecurityStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 1, summary.TotalVisits)
	assert.Equal(t, 1, summary.UniqueIPs)
	assert.Equal(t, "1h0m0s", summary.Window)
}

func TestStatsHandler_RejectsInvalidWindow(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(new(strings.Builder))

	aggregator := stats.NewAggregator(
		memory.NewVisitRepository(),
		memory.NewBlockedIPRepository(),
		memory.NewAlertRepository(),
		detection.NewBotClassifier(detection.DefaultRuleSet()),
		nil,
	)
	handler := NewStatsHandler(logger, aggregator)

	app := fiber.New()
	app.Get("/api/v1/security/stats", handler.Handle)

	for _, hours := range []string{"0", "-3", "abc", "100000"} {
		req := httptest.NewRequest(fiber.MethodGet, "/api/v1/security/stats?hours="+hours, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	}
}
