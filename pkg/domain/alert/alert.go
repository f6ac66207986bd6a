package alert

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/terrizoaguimor/kore-shield/pkg/domain"
)

type Type string

const (
	TypeIPBlocked         Type = "ip_blocked"
	TypeIPUnblocked       Type = "ip_unblocked"
	TypeBruteForceAttempt Type = "brute_force_attempt"
	TypeThreatDetected    Type = "threat_detected"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Alert is an operator-facing security event. Append-only.
type Alert struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Type        Type           `json:"alert_type" gorm:"column:alert_type;size:64;not null"`
	Severity    Severity       `json:"severity" gorm:"size:16;not null"`
	IPAddress   *string        `json:"ip_address"`
	Description string         `json:"description"`
	Metadata    domain.JSONMap `json:"metadata" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"created_at" gorm:"index:idx_security_alerts_created_at"`
}

func (Alert) TableName() string {
	return "security_alerts"
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.Severity == "" {
		a.Severity = SeverityInfo
	}
	return nil
}
