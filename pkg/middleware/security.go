package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/terrizoaguimor/kore-shield/pkg/common"
	"github.com/terrizoaguimor/kore-shield/pkg/shield"
)

type securityMiddleware struct {
	engine     *shield.Engine
	logger     *logrus.Logger
	trustProxy bool
}

// NewSecurityMiddleware wires the decision engine in front of every
// request: denied callers get 403, over-quota callers get 429 with the
// standard rate headers, everything else proceeds and is observed on the
// way out. Proxy-set IP headers are honored only when trustProxy is on.
func NewSecurityMiddleware(engine *shield.Engine, logger *logrus.Logger, trustProxy bool) Middleware {
	return &securityMiddleware{
		engine:     engine,
		logger:     logger,
		trustProxy: trustProxy,
	}
}

func (m *securityMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := shield.Request{
			IP:             m.clientIP(c),
			Path:           c.OriginalURL(),
			Endpoint:       c.Path(),
			Method:         c.Method(),
			UserAgent:      c.Get(fiber.HeaderUserAgent),
			AcceptLanguage: c.Get(fiber.HeaderAcceptLanguage),
			Body:           c.Body(),
		}

		start := time.Now()
		verdict := m.engine.Evaluate(c.UserContext(), req)

		if verdict.RateLimit != nil {
			c.Set("X-RateLimit-Limit", strconv.Itoa(verdict.RateLimit.Limit))
			c.Set("X-RateLimit-Remaining", strconv.FormatInt(verdict.RateLimit.Remaining, 10))
			c.Set("X-RateLimit-Reset", strconv.FormatInt(int64(verdict.RateLimit.ResetAfter.Seconds()), 10))
		}

		if verdict.RateLimited {
			if verdict.RateLimit != nil {
				c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(retryAfterSeconds(verdict.RateLimit.ResetAfter), 10))
			}
			m.engine.Observe(req, verdict, fiber.StatusTooManyRequests, time.Since(start))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}

		if !verdict.Allowed {
			m.engine.Observe(req, verdict, fiber.StatusForbidden, time.Since(start))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "request denied",
			})
		}

		c.Locals(common.ClientIPKey.String(), req.IP)
		c.Locals(common.VerdictKey.String(), verdict)

		err := c.Next()
		m.engine.Observe(req, verdict, c.Response().StatusCode(), time.Since(start))
		return err
	}
}

// clientIP prefers the proxy-set headers when the proxy is trusted,
// falling back to the socket peer.
func (m *securityMiddleware) clientIP(c *fiber.Ctx) string {
	if !m.trustProxy {
		return c.IP()
	}
	if ip := strings.TrimSpace(c.Get(common.RealIPHeader)); ip != "" {
		return ip
	}
	if forwarded := c.Get(common.ForwardedForHeader); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	return c.IP()
}

func retryAfterSeconds(reset time.Duration) int64 {
	secs := int64(reset.Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}
