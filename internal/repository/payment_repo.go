package repository

import (
	"context"

	"codecamp/internal/domain"
	"codecamp/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var lockingClause = clause.Locking{Strength: "UPDATE"}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDForUpdate locks the row when the dialect supports it.
func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(lockingClause)
	}
	if err := q.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByTransactionID(ctx context.Context, txnID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).Where("transaction_id = ?", txnID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *models.Payment) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// ListByUser returns a user's payments newest first; limit <= 0 means all.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Payment, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var list []models.Payment
	err := q.Find(&list).Error
	return list, err
}

// List returns payments with an optional status filter.
func (r *PaymentRepository) List(ctx context.Context, status string, page, limit int) ([]models.Payment, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Payment{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, size := Page(page, limit)
	var list []models.Payment
	err := q.Order("created_at DESC").Limit(size).Offset(offset).Find(&list).Error
	return list, total, err
}

// UserTotals summarises a user's completed payments.
type UserTotals struct {
	Count      int64   `json:"count"`
	TotalSpent float64 `json:"totalSpent"`
}

func (r *PaymentRepository) TotalsForUser(ctx context.Context, userID string) (UserTotals, error) {
	var t UserTotals
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total_spent").
		Where("user_id = ? AND status = ?", userID, domain.PaymentStatusCompleted).
		Scan(&t).Error
	return t, err
}

// DeleteByUser removes a user's payments as part of account deletion.
func (r *PaymentRepository) DeleteByUser(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Payment{}).Error
}
