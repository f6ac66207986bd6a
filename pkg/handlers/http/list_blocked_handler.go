package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/terrizoaguimor/kore-shield/pkg/blocklist"
)

type listBlockedHandler struct {
	logger   *logrus.Logger
	registry *blocklist.Registry
}

func NewListBlockedHandler(logger *logrus.Logger, registry *blocklist.Registry) Handler {
	return &listBlockedHandler{
		logger:   logger,
		registry: registry,
	}
}

// Handle @Summary List active IP blocks
// @Description Returns every block currently in force, expired entries excluded
// @Tags Blocklist
// @Produce json
// @Success 200 {array} blockedip.BlockedIP "Active blocks"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/security/blocked-ips [get]
func (s *listBlockedHandler) Handle(c *fiber.Ctx) error {
	blocks, err := s.registry.ListActive(c.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list active blocks")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list blocked IPs"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count":   len(blocks),
		"blocked": blocks,
	})
}
