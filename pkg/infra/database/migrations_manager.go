package database

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const versionTable = "shield_schema_migrations"

// Migration is one ordered schema step. IDs sort lexically, so the
// registered steps use zero-padded numeric prefixes.
type Migration struct {
	ID   string
	Name string
	Up   func(db *gorm.DB) error
	Down func(db *gorm.DB) error
}

var registry = struct {
	byID  map[string]Migration
	order []string
}{byID: make(map[string]Migration)}

func RegisterMigration(m Migration) {
	if _, dup := registry.byID[m.ID]; dup {
		panic(fmt.Sprintf("duplicate migration id %s", m.ID))
	}
	registry.byID[m.ID] = m
	registry.order = append(registry.order, m.ID)
}

type MigrationsManager struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewMigrationsManager(db *gorm.DB, logger *logrus.Logger) *MigrationsManager {
	return &MigrationsManager{db: db, logger: logger}
}

func (m *MigrationsManager) ensureVersionTable() error {
	return m.db.Exec(`
CREATE TABLE IF NOT EXISTS ` + versionTable + ` (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`).Error
}

func (m *MigrationsManager) appliedIDs() (map[string]struct{}, error) {
	var ids []string
	if err := m.db.Raw("SELECT id FROM " + versionTable).Scan(&ids).Error; err != nil {
		return nil, err
	}
	applied := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		applied[id] = struct{}{}
	}
	return applied, nil
}

// ApplyPending runs every registered migration that has no row in the
// version table, oldest first.
func (m *MigrationsManager) ApplyPending() error {
	if err := m.ensureVersionTable(); err != nil {
		return fmt.Errorf("ensure version table: %w", err)
	}

	applied, err := m.appliedIDs()
	if err != nil {
		return fmt.Errorf("load applied migrations: %w", err)
	}

	pending := make([]string, 0, len(registry.order))
	for _, id := range registry.order {
		if _, ok := applied[id]; !ok {
			pending = append(pending, id)
		}
	}
	sort.Strings(pending)

	for _, id := range pending {
		mig := registry.byID[id]
		if mig.Up == nil {
			return fmt.Errorf("migration %s has no up step", id)
		}
		m.logger.WithFields(logrus.Fields{
			"id":   mig.ID,
			"name": mig.Name,
		}).Info("applying migration")
		if err := mig.Up(m.db); err != nil {
			return fmt.Errorf("apply migration %s (%s): %w", mig.ID, mig.Name, err)
		}
		if err := m.db.Exec(
			"INSERT INTO "+versionTable+" (id, name, applied_at) VALUES (?, ?, ?)",
			mig.ID, mig.Name, time.Now(),
		).Error; err != nil {
			return fmt.Errorf("record migration %s: %w", mig.ID, err)
		}
	}
	return nil
}
