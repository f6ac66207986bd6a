package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/terrizoaguimor/kore-shield/pkg/stats"
)

const maxStatsWindowHours = 24 * 30

type statsHandler struct {
	logger     *logrus.Logger
	aggregator *stats.Aggregator
}

func NewStatsHandler(logger *logrus.Logger, aggregator *stats.Aggregator) Handler {
	return &statsHandler{
		logger:     logger,
		aggregator: aggregator,
	}
}

// Handle @Summary Security statistics
// @Description Aggregated traffic and threat telemetry for the requested window
// @Tags Stats
// @Produce json
// @Param hours query int false "Window size in hours (default 24)"
// @Success 200 {object} stats.SecurityStats "Aggregated stats"
// @Failure 400 {object} map[string]interface{} "Invalid window"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/security/stats [get]
func (s *statsHandler) Handle(c *fiber.Ctx) error {
	hours := 24
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxStatsWindowHours {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid hours parameter"})
		}
		hours = parsed
	}

	summary, err := s.aggregator.Summarize(c.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		s.logger.WithError(err).Error("failed to aggregate stats")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to aggregate stats"})
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}
