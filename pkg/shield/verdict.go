package shield

import (
	"strings"

	"github.com/terrizoaguimor/kore-shield/pkg/detection"
	"github.com/terrizoaguimor/kore-shield/pkg/ratelimiter"
)

// Request is the minimal view of an inbound request the engine needs.
// Path carries the full original URL including the query string, which
// the signature classifier inspects. Endpoint is the route alone and
// keys the rate limiter, the brute-force buckets and the visit log; if
// empty it is derived by stripping the query from Path. Body is
// optional; pass nil when the transport has not buffered it.
type Request struct {
	IP             string
	Path           string
	Endpoint       string
	Method         string
	UserAgent      string
	AcceptLanguage string
	Body           []byte
}

func (r Request) endpoint() string {
	if r.Endpoint != "" {
		return r.Endpoint
	}
	if idx := strings.IndexByte(r.Path, '?'); idx != -1 {
		return r.Path[:idx]
	}
	return r.Path
}

// Deny reasons, surfaced on the verdict and as metric labels.
const (
	ReasonThreatSignature  = "threat_signature"
	ReasonIPBlocked        = "ip_blocked"
	ReasonRateLimited      = "rate_limited"
	ReasonStoreUnavailable = "store_unavailable"
)

// Verdict is the engine's synchronous answer for one request. Degraded
// marks decisions taken while a backing store was unreachable; whether a
// degraded request is allowed depends on the fail mode.
type Verdict struct {
	Allowed     bool                     `json:"allowed"`
	Blocked     bool                     `json:"blocked"`
	RateLimited bool                     `json:"rate_limited"`
	Degraded    bool                     `json:"degraded"`
	Reason      string                   `json:"reason,omitempty"`
	Analysis    detection.ThreatAnalysis `json:"analysis"`
	Bot         detection.BotMatch       `json:"bot"`
	RateLimit   *ratelimiter.Result      `json:"rate_limit,omitempty"`
}

func (v Verdict) label() string {
	switch {
	case v.Degraded:
		if v.Allowed {
			return "degraded_allowed"
		}
		return "degraded_denied"
	case v.RateLimited:
		return "rate_limited"
	case v.Blocked:
		return "blocked"
	default:
		return "allowed"
	}
}
