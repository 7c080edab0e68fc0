package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codecamp/internal/models"

	"gorm.io/gorm"
)

// Filter is one equality predicate. Field must be one of the searchable columns.
type Filter struct {
	Field string
	Value any
}

// searchableColumns maps filter fields to columns; anything else is rejected.
var searchableColumns = map[string]string{
	"role":             "role",
	"paymentStatus":    "payment_status",
	"subscriptionPlan": "subscription_plan",
	"isActive":         "is_active",
	"emailVerified":    "email_verified",
}

// UserQuery is a conjunction of equality filters plus an optional free-text term.
type UserQuery struct {
	Filters []Filter
	Text    string
	Page    int
	Limit   int
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

// UpdateFields sets columns on one user and reports gorm.ErrRecordNotFound when nothing matched.
func (r *UserRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RecordLogin increments the login counter and stamps the login time.
func (r *UserRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	return r.UpdateFields(ctx, id, map[string]any{
		"login_count":   gorm.Expr("login_count + ?", 1),
		"last_login_at": at,
	})
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns users newest first with the total count.
func (r *UserRepository) List(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	return r.Search(ctx, UserQuery{Page: page, Limit: limit})
}

// Search applies q's filters as an AND of equality predicates.
func (r *UserRepository) Search(ctx context.Context, q UserQuery) ([]models.User, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.User{})
	tx, err := applyFilters(tx, q.Filters)
	if err != nil {
		return nil, 0, err
	}
	if text := strings.TrimSpace(q.Text); text != "" {
		like := "%" + strings.ToLower(text) + "%"
		tx = tx.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}
	tx = tx.Session(&gorm.Session{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, size := Page(q.Page, q.Limit)
	var users []models.User
	err = tx.Order("created_at DESC").Limit(size).Offset(offset).Find(&users).Error
	return users, total, err
}

// Count returns the number of users matching every filter.
func (r *UserRepository) Count(ctx context.Context, filters ...Filter) (int64, error) {
	tx, err := applyFilters(r.db.WithContext(ctx).Model(&models.User{}), filters)
	if err != nil {
		return 0, err
	}
	var n int64
	err = tx.Count(&n).Error
	return n, err
}

func applyFilters(tx *gorm.DB, filters []Filter) (*gorm.DB, error) {
	for _, f := range filters {
		col, ok := searchableColumns[f.Field]
		if !ok {
			return nil, fmt.Errorf("repository: unsupported user filter %q", f.Field)
		}
		tx = tx.Where(col+" = ?", f.Value)
	}
	return tx, nil
}
