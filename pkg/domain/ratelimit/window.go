package ratelimit

import (
	"fmt"
	"time"

	"github.com/terrizoaguimor/kore-shield/pkg/common"
)

// Window is one fixed-window counter row. WindowStart is always the
// quotient of wall-clock time by the window length multiplied back, so
// boundaries are deterministic across instances. Stale rows are shadowed
// by new window keys, never deleted; retention belongs to the store.
type Window struct {
	IPAddress    string    `json:"ip_address" gorm:"primaryKey;size:64"`
	Endpoint     string    `json:"endpoint" gorm:"primaryKey;size:255"`
	WindowStart  time.Time `json:"window_start" gorm:"primaryKey"`
	RequestCount int64     `json:"request_count"`
}

func (Window) TableName() string {
	return "security_rate_limits"
}

// Key identifies a counter for one caller, endpoint and window.
type Key struct {
	IP          string
	Endpoint    string
	WindowStart time.Time
	Window      time.Duration
}

// WindowStartAt truncates now to the deterministic window boundary.
func WindowStartAt(now time.Time, window time.Duration) time.Time {
	secs := int64(window / time.Second)
	if secs <= 0 {
		secs = 1
	}
	return time.Unix(now.Unix()/secs*secs, 0).UTC()
}

func (k Key) String() string {
	return fmt.Sprintf(common.RateLimitKeyPattern, k.IP, k.Endpoint, k.WindowStart.Unix())
}
