// Package testutil provides database and record fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"codecamp/internal/database"
	"codecamp/internal/domain"
	"codecamp/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory sqlite database with the schema migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

type UserOption func(*models.User)

func WithRole(role string) UserOption {
	return func(u *models.User) { u.Role = role }
}

func WithPaymentStatus(status string) UserOption {
	return func(u *models.User) { u.PaymentStatus = status }
}

func WithPlan(plan string) UserOption {
	return func(u *models.User) { u.SubscriptionPlan = plan }
}

func Inactive() UserOption {
	return func(u *models.User) { u.IsActive = false }
}

func Verified() UserOption {
	return func(u *models.User) { u.EmailVerified = true }
}

func WithEmail(email string) UserOption {
	return func(u *models.User) { u.Email = email }
}

// CreateUser inserts a pending student on the standard plan.
func CreateUser(t testing.TB, db *gorm.DB, opts ...UserOption) *models.User {
	t.Helper()
	id := uuid.NewString()
	u := &models.User{
		ID:               id,
		Email:            "user-" + id[:8] + "@example.com",
		FirstName:        "Test",
		LastName:         "User",
		Role:             domain.RoleStudent,
		PaymentStatus:    domain.PaymentStatusPending,
		SubscriptionPlan: domain.PlanStandard,
		IsActive:         true,
		EnrollmentDate:   time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(u)
	}
	active := u.IsActive
	require.NoError(t, db.Create(u).Error)
	if !active {
		// Create writes the column default back into the struct
		require.NoError(t, db.Model(u).Update("is_active", false).Error)
	}
	return u
}

type PaymentOption func(*models.Payment)

func WithStatus(status string) PaymentOption {
	return func(p *models.Payment) { p.Status = status }
}

func WithAmount(amount float64) PaymentOption {
	return func(p *models.Payment) { p.Amount = amount }
}

// CreatePayment inserts an 800 GHS card payment for userID.
func CreatePayment(t testing.TB, db *gorm.DB, userID string, opts ...PaymentOption) *models.Payment {
	t.Helper()
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	p := &models.Payment{
		ID:               domain.PaymentIDPrefix + suffix,
		UserID:           userID,
		Amount:           800,
		Currency:         domain.DefaultCurrency,
		Status:           domain.PaymentStatusPending,
		PaymentMethod:    domain.PaymentMethodCard,
		TransactionID:    domain.TransactionIDPrefix + suffix,
		SubscriptionPlan: domain.PlanStandard,
		PaymentDate:      time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}
