package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

type HandlerTransport struct {
	BlockIPHandler     Handler
	UnblockIPHandler   Handler
	ListBlockedHandler Handler
	StatsHandler       Handler
	ListAlertsHandler  Handler
}

const ErrInvalidJsonPayload = "invalid JSON payload"
