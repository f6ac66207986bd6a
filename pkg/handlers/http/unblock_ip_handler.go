package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/terrizoaguimor/kore-shield/pkg/blocklist"
	"github.com/terrizoaguimor/kore-shield/pkg/common"
)

type unblockIPHandler struct {
	logger   *logrus.Logger
	registry *blocklist.Registry
}

func NewUnblockIPHandler(logger *logrus.Logger, registry *blocklist.Registry) Handler {
	return &unblockIPHandler{
		logger:   logger,
		registry: registry,
	}
}

// Handle @Summary Unblock an IP address
// @Description Removes the block for the given IP if one exists
// @Tags Blocklist
// @Produce json
// @Param ip path string true "IP address"
// @Success 204 "IP unblocked"
// @Failure 404 {object} map[string]interface{} "IP was not blocked"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/security/blocked-ips/{ip} [delete]
func (s *unblockIPHandler) Handle(c *fiber.Ctx) error {
	ip := c.Params("ip")
	if ip == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ip is required"})
	}

	actor := c.Query("actor", common.SystemActor)

	removed, err := s.registry.Unblock(c.Context(), ip, actor)
	if err != nil {
		s.logger.WithError(err).Error("failed to unblock IP")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to unblock IP"})
	}
	if !removed {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "IP is not blocked"})
	}

	return c.SendStatus(http.StatusNoContent)
}
