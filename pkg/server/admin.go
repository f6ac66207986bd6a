package server

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/terrizoaguimor/kore-shield/pkg/config"
	handlers "github.com/terrizoaguimor/kore-shield/pkg/handlers/http"
	"github.com/terrizoaguimor/kore-shield/pkg/middleware"
)

type (
	AdminServerDI struct {
		SecurityMiddleware middleware.Middleware
		HandlerTransport   handlers.HandlerTransport
		Config             *config.Config
		Logger             *logrus.Logger
	}
	// AdminServer hosts the operator API. The decision engine fronts its
	// own admin surface, so abusive callers hit the same controls as
	// everyone else.
	AdminServer struct {
		*BaseServer
		securityMiddleware middleware.Middleware
		handlerTransport   handlers.HandlerTransport
	}
)

func NewAdminServer(di AdminServerDI) *AdminServer {
	return &AdminServer{
		BaseServer:         NewBaseServer(di.Config, di.Logger),
		securityMiddleware: di.SecurityMiddleware,
		handlerTransport:   di.HandlerTransport,
	}
}

func (s *AdminServer) Run() error {
	s.setupRoutes()
	s.setupHealthCheck()
	s.setupMetricsEndpoint()

	addr := fmt.Sprintf(":%d", s.Config.Server.AdminPort)
	s.Logger.WithField("addr", addr).Info("starting admin server")
	return s.Router.Listen(addr)
}

func (s *AdminServer) setupRoutes() {
	v1 := s.Router.Group("/api/v1", s.securityMiddleware.Middleware())
	{
		security := v1.Group("/security")
		{
			blocked := security.Group("/blocked-ips")
			{
				blocked.Post("", s.handlerTransport.BlockIPHandler.Handle)
				blocked.Get("", s.handlerTransport.ListBlockedHandler.Handle)
				blocked.Delete("/:ip", s.handlerTransport.UnblockIPHandler.Handle)
			}

			security.Get("/stats", s.handlerTransport.StatsHandler.Handle)
			security.Get("/alerts", s.handlerTransport.ListAlertsHandler.Handle)
		}
	}
}

func (s *AdminServer) Shutdown() error {
	return s.Router.Shutdown()
}
