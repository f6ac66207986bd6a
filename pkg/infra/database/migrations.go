package database

import (
	"gorm.io/gorm"
)

func init() {
	RegisterMigration(Migration{
		ID:   "20240110_001",
		Name: "create visits table",
		Up: func(db *gorm.DB) error {
			return db.Exec(`
CREATE TABLE IF NOT EXISTS public.visits (
    id UUID PRIMARY KEY,
    ip_address VARCHAR(64) NOT NULL,
    user_agent TEXT,
    path TEXT NOT NULL,
    method VARCHAR(16),
    status_code INT,
    country VARCHAR(64),
    city VARCHAR(128),
    latitude DOUBLE PRECISION,
    longitude DOUBLE PRECISION,
    is_bot BOOLEAN NOT NULL DEFAULT FALSE,
    is_suspicious BOOLEAN NOT NULL DEFAULT FALSE,
    threat_level VARCHAR(16) NOT NULL DEFAULT 'none',
    threats TEXT[],
    response_time_ms BIGINT,
    detection JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_visits_ip_path ON public.visits (ip_address, path, created_at);
CREATE INDEX IF NOT EXISTS idx_visits_created_at ON public.visits (created_at);
`).Error
		},
		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP TABLE IF EXISTS public.visits;`).Error
		},
	})

	RegisterMigration(Migration{
		ID:   "20240110_002",
		Name: "create blocked_ips table",
		Up: func(db *gorm.DB) error {
			return db.Exec(`
CREATE TABLE IF NOT EXISTS public.blocked_ips (
    ip_address VARCHAR(64) PRIMARY KEY,
    reason TEXT NOT NULL DEFAULT '',
    blocked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ,
    is_permanent BOOLEAN NOT NULL DEFAULT FALSE,
    blocked_by VARCHAR(128) NOT NULL DEFAULT 'system'
);
CREATE INDEX IF NOT EXISTS idx_blocked_ips_expires_at ON public.blocked_ips (expires_at);
`).Error
		},
		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP TABLE IF EXISTS public.blocked_ips;`).Error
		},
	})

	RegisterMigration(Migration{
		ID:   "20240110_003",
		Name: "create security_alerts table",
		Up: func(db *gorm.DB) error {
			return db.Exec(`
CREATE TABLE IF NOT EXISTS public.security_alerts (
    id UUID PRIMARY KEY,
    alert_type VARCHAR(64) NOT NULL,
    severity VARCHAR(16) NOT NULL DEFAULT 'info',
    ip_address VARCHAR(64),
    description TEXT NOT NULL DEFAULT '',
    metadata JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_security_alerts_created_at ON public.security_alerts (created_at);
`).Error
		},
		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP TABLE IF EXISTS public.security_alerts;`).Error
		},
	})

	RegisterMigration(Migration{
		ID:   "20240110_004",
		Name: "create security_rate_limits table",
		Up: func(db *gorm.DB) error {
			return db.Exec(`
CREATE TABLE IF NOT EXISTS public.security_rate_limits (
    ip_address VARCHAR(64) NOT NULL,
    endpoint VARCHAR(255) NOT NULL,
    window_start TIMESTAMPTZ NOT NULL,
    request_count BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (ip_address, endpoint, window_start)
);
`).Error
		},
		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP TABLE IF EXISTS public.security_rate_limits;`).Error
		},
	})
}
