package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/terrizoaguimor/kore-shield/pkg/domain/visit"
)

type visitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) visit.Repository {
	return &visitRepository{
		db: db,
	}
}

func (r *visitRepository) Create(ctx context.Context, v *visit.Visit) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *visitRepository) CountSince(ctx context.Context, ip, path string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&visit.Visit{}).
		Where("ip_address = ? AND path = ? AND created_at >= ?", ip, path, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *visitRepository) ListSince(ctx context.Context, since time.Time) ([]visit.Visit, error) {
	var visits []visit.Visit
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at desc").
		Find(&visits).Error
	if err != nil {
		return nil, err
	}
	return visits, nil
}
