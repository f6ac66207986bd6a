package http

import (
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/terrizoaguimor/kore-shield/pkg/blocklist"
	"github.com/terrizoaguimor/kore-shield/pkg/common"
)

type blockIPRequest struct {
	IP        string `json:"ip"`
	Reason    string `json:"reason"`
	TTLHours  int    `json:"ttl_hours"`
	Permanent bool   `json:"permanent"`
	Actor     string `json:"actor"`
}

type blockIPHandler struct {
	logger   *logrus.Logger
	registry *blocklist.Registry
}

func NewBlockIPHandler(logger *logrus.Logger, registry *blocklist.Registry) Handler {
	return &blockIPHandler{
		logger:   logger,
		registry: registry,
	}
}

// Handle @Summary Block an IP address
// @Description Inserts or replaces a block for the given IP, time-bounded unless permanent is set
// @Tags Blocklist
// @Accept json
// @Produce json
// @Param block body blockIPRequest true "Block request body"
// @Success 201 {object} map[string]interface{} "IP blocked"
// @Failure 400 {object} map[string]interface{} "Invalid request data"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/security/blocked-ips [post]
func (s *blockIPHandler) Handle(c *fiber.Ctx) error {
	var req blockIPRequest
	if err := c.BodyParser(&req); err != nil {
		s.logger.WithError(err).Error("failed to bind block request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidJsonPayload})
	}

	if net.ParseIP(req.IP) == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid IP address"})
	}
	if req.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reason is required"})
	}

	actor := req.Actor
	if actor == "" {
		actor = common.SystemActor
	}

	var ttl *time.Duration
	if !req.Permanent {
		hours := req.TTLHours
		if hours <= 0 {
			hours = int(common.DefaultBlockTTL.Hours())
		}
		d := time.Duration(hours) * time.Hour
		ttl = &d
	}

	if err := s.registry.Block(c.Context(), req.IP, req.Reason, ttl, actor); err != nil {
		s.logger.WithError(err).Error("failed to block IP")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to block IP"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ip":        req.IP,
		"permanent": req.Permanent,
	})
}
