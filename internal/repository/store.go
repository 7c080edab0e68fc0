package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories over one connection or transaction.
type Store struct {
	db            *gorm.DB
	Users         *UserRepository
	Payments      *PaymentRepository
	Activity      *ActivityLogRepository
	Notifications *NotificationRepository
	Analytics     *AnalyticsRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Payments:      NewPaymentRepository(db),
		Activity:      NewActivityLogRepository(db),
		Notifications: NewNotificationRepository(db),
		Analytics:     NewAnalyticsRepository(db),
	}
}

// Transaction runs fn against a Store bound to a single database transaction.
// Writes made through tx commit together or not at all.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Page converts 1-based page/limit into an offset with sane bounds.
func Page(page, limit int) (offset, size int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit, limit
}
