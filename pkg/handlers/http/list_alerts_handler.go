package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/terrizoaguimor/kore-shield/pkg/domain/alert"
)

const maxAlertLimit = 500

type listAlertsHandler struct {
	logger *logrus.Logger
	repo   alert.Repository
}

func NewListAlertsHandler(logger *logrus.Logger, repo alert.Repository) Handler {
	return &listAlertsHandler{
		logger: logger,
		repo:   repo,
	}
}

// Handle @Summary List recent security alerts
// @Description Returns the most recent alerts, newest first
// @Tags Alerts
// @Produce json
// @Param limit query int false "Maximum number of alerts (default 50, max 500)"
// @Success 200 {array} alert.Alert "Recent alerts"
// @Failure 400 {object} map[string]interface{} "Invalid limit parameter"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/security/alerts [get]
func (s *listAlertsHandler) Handle(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxAlertLimit {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid limit parameter"})
		}
		limit = parsed
	}

	alerts, err := s.repo.ListRecent(c.Context(), limit)
	if err != nil {
		s.logger.WithError(err).Error("failed to list alerts")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list alerts"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count":  len(alerts),
		"alerts": alerts,
	})
}
