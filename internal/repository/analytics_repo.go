package repository

import (
	"context"

	"codecamp/internal/domain"
	"codecamp/internal/models"

	"gorm.io/gorm"
)

// PortalStats are the raw counts behind the admin analytics view.
type PortalStats struct {
	TotalUsers        int64            `json:"totalUsers"`
	ActiveUsers       int64            `json:"activeUsers"`
	PaidUsers         int64            `json:"paidUsers"`
	UsersByRole       map[string]int64 `json:"usersByRole"`
	TotalPayments     int64            `json:"totalPayments"`
	CompletedPayments int64            `json:"completedPayments"`
	FailedPayments    int64            `json:"failedPayments"`
	RefundedPayments  int64            `json:"refundedPayments"`
	Revenue           float64          `json:"revenue"`
}

type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) PortalStats(ctx context.Context) (*PortalStats, error) {
	db := r.db.WithContext(ctx)
	s := PortalStats{UsersByRole: map[string]int64{}}

	counts := []struct {
		dst   *int64
		model any
		where []any
	}{
		{&s.TotalUsers, &models.User{}, nil},
		{&s.ActiveUsers, &models.User{}, []any{"is_active = ?", true}},
		{&s.PaidUsers, &models.User{}, []any{"payment_status = ?", domain.PaymentStatusCompleted}},
		{&s.TotalPayments, &models.Payment{}, nil},
		{&s.CompletedPayments, &models.Payment{}, []any{"status = ?", domain.PaymentStatusCompleted}},
		{&s.FailedPayments, &models.Payment{}, []any{"status = ?", domain.PaymentStatusFailed}},
		{&s.RefundedPayments, &models.Payment{}, []any{"status = ?", domain.PaymentStatusRefunded}},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if len(c.where) > 0 {
			q = q.Where(c.where[0], c.where[1:]...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	var roles []struct {
		Role  string
		Count int64
	}
	if err := db.Model(&models.User{}).Select("role, COUNT(*) AS count").Group("role").Scan(&roles).Error; err != nil {
		return nil, err
	}
	for _, rc := range roles {
		s.UsersByRole[rc.Role] = rc.Count
	}

	var rev struct{ Total float64 }
	err := db.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("status = ?", domain.PaymentStatusCompleted).
		Scan(&rev).Error
	if err != nil {
		return nil, err
	}
	s.Revenue = rev.Total
	return &s, nil
}
