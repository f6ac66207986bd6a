package blockedip

import (
	"time"

	"gorm.io/gorm"
)

// BlockedIP is a caller barred from the platform, keyed uniquely by address.
// A row is active while it is permanent or its expiry lies in the future;
// expired rows are filtered at read time, never swept.
type BlockedIP struct {
	IPAddress   string     `json:"ip_address" gorm:"primaryKey;size:64"`
	Reason      string     `json:"reason"`
	BlockedAt   time.Time  `json:"blocked_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IsPermanent bool       `json:"is_permanent"`
	BlockedBy   string     `json:"blocked_by"`
}

func (BlockedIP) TableName() string {
	return "blocked_ips"
}

func (b *BlockedIP) BeforeSave(tx *gorm.DB) error {
	if b.BlockedAt.IsZero() {
		b.BlockedAt = time.Now()
	}
	// permanent and expiry are mutually exclusive
	if b.ExpiresAt == nil {
		b.IsPermanent = true
	}
	return nil
}

// Active reports whether the block still applies at the given instant.
func (b *BlockedIP) Active(now time.Time) bool {
	if b.IsPermanent {
		return true
	}
	return b.ExpiresAt != nil && b.ExpiresAt.After(now)
}
