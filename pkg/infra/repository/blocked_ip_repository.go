package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/terrizoaguimor/kore-shield/pkg/domain/blockedip"
)

type blockedIPRepository struct {
	db *gorm.DB
}

func NewBlockedIPRepository(db *gorm.DB) blockedip.Repository {
	return &blockedIPRepository{
		db: db,
	}
}

func (r *blockedIPRepository) Upsert(ctx context.Context, block *blockedip.BlockedIP) error {
	// A repeated block for the same caller replaces reason and expiry
	// rather than erroring.
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ip_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"reason", "blocked_at", "expires_at", "is_permanent", "blocked_by"}),
	}).Create(block).Error
}

func (r *blockedIPRepository) Delete(ctx context.Context, ip string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("ip_address = ?", ip).
		Delete(&blockedip.BlockedIP{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *blockedIPRepository) ExistsActive(ctx context.Context, ip string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&blockedip.BlockedIP{}).
		Where("ip_address = ? AND (is_permanent OR expires_at > ?)", ip, now).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *blockedIPRepository) ListActive(ctx context.Context, now time.Time) ([]blockedip.BlockedIP, error) {
	var blocks []blockedip.BlockedIP
	err := r.db.WithContext(ctx).
		Where("is_permanent OR expires_at > ?", now).
		Order("blocked_at desc").
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	return blocks, nil
}
