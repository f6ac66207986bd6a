package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/terrizoaguimor/kore-shield/pkg/domain/alert"
)

type alertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) alert.Repository {
	return &alertRepository{
		db: db,
	}
}

func (r *alertRepository) Create(ctx context.Context, a *alert.Alert) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *alertRepository) ListRecent(ctx context.Context, limit int) ([]alert.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	var alerts []alert.Alert
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}
