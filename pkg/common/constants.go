package common

import "time"

const (
	RateLimitKeyPattern = "ratelimit:%s:%s:%d"

	DefaultBlockTTL        = time.Hour
	DefaultBruteForceSpan  = 5 * time.Minute
	DefaultBruteForceLimit = 20

	RealIPHeader       = "X-Real-IP"
	ForwardedForHeader = "X-Forwarded-For"

	SystemActor = "system"
)
