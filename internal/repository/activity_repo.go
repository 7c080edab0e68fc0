package repository

import (
	"context"

	"codecamp/internal/models"

	"gorm.io/gorm"
)

type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) Create(ctx context.Context, log *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *ActivityLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error) {
	var list []models.ActivityLog
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *ActivityLogRepository) CreateAccessLog(ctx context.Context, log *models.AccessLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *ActivityLogRepository) CountAccessLogs(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.AccessLog{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}
