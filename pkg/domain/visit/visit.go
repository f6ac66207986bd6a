package visit

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/terrizoaguimor/kore-shield/pkg/domain"
)

// ThreatLevel classifies how hostile a request looked.
type ThreatLevel string

const (
	LevelNone     ThreatLevel = "none"
	LevelLow      ThreatLevel = "low"
	LevelMedium   ThreatLevel = "medium"
	LevelHigh     ThreatLevel = "high"
	LevelCritical ThreatLevel = "critical"
)

var levelRank = map[ThreatLevel]int{
	LevelNone:     0,
	LevelLow:      1,
	LevelMedium:   2,
	LevelHigh:     3,
	LevelCritical: 4,
}

func (l ThreatLevel) Rank() int {
	return levelRank[l]
}

// Max returns the higher of the two levels.
func (l ThreatLevel) Max(other ThreatLevel) ThreatLevel {
	if other.Rank() > l.Rank() {
		return other
	}
	return l
}

// Visit is one record per processed request. Append-only.
type Visit struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	IPAddress      string         `json:"ip_address" gorm:"index:idx_visits_ip_path,priority:1;not null"`
	UserAgent      *string        `json:"user_agent"`
	Path           string         `json:"path" gorm:"index:idx_visits_ip_path,priority:2;not null"`
	Method         string         `json:"method"`
	StatusCode     *int           `json:"status_code"`
	Country        *string        `json:"country"`
	City           *string        `json:"city"`
	Latitude       *float64       `json:"latitude"`
	Longitude      *float64       `json:"longitude"`
	IsBot          bool           `json:"is_bot"`
	IsSuspicious   bool           `json:"is_suspicious"`
	ThreatLevel    ThreatLevel    `json:"threat_level" gorm:"type:varchar(16);default:'none'"`
	Threats        pq.StringArray `json:"threats" gorm:"type:text[]"`
	ResponseTimeMs *int64         `json:"response_time_ms"`
	Detection      domain.JSONMap `json:"detection" gorm:"type:jsonb"`
	CreatedAt      time.Time      `json:"created_at" gorm:"index:idx_visits_ip_path,priority:3;index:idx_visits_created_at"`
}

func (Visit) TableName() string {
	return "visits"
}

func (v *Visit) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	if v.ThreatLevel == "" {
		v.ThreatLevel = LevelNone
	}
	return nil
}
