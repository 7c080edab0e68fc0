package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"codecamp/internal/domain"
	"codecamp/internal/repository"
	"codecamp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserSearchFilters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	testutil.CreateUser(t, db, testutil.WithEmail("kofi@example.com"))
	testutil.CreateUser(t, db, testutil.WithPaymentStatus(domain.PaymentStatusCompleted), testutil.WithPlan(domain.PlanPremium))
	testutil.CreateUser(t, db, testutil.WithRole(domain.RoleParent), testutil.Inactive())

	users, total, err := repo.Search(ctx, repository.UserQuery{
		Filters: []repository.Filter{
			{Field: "role", Value: domain.RoleStudent},
			{Field: "paymentStatus", Value: domain.PaymentStatusCompleted},
		},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, domain.PlanPremium, users[0].SubscriptionPlan)

	_, total, err = repo.Search(ctx, repository.UserQuery{Filters: []repository.Filter{{Field: "isActive", Value: false}}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	users, total, err = repo.Search(ctx, repository.UserQuery{Text: "KOFI"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "kofi@example.com", users[0].Email)

	_, _, err = repo.Search(ctx, repository.UserQuery{Filters: []repository.Filter{{Field: "password; DROP TABLE users", Value: 1}}})
	assert.Error(t, err)
}

func TestUserListPaginates(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	for i := 0; i < 5; i++ {
		testutil.CreateUser(t, db)
	}

	users, total, err := repo.List(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, users, 2)

	users, _, err = repo.List(context.Background(), 3, 2)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserUpdateFieldsAndLogin(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db)

	require.NoError(t, repo.RecordLogin(ctx, u.ID, time.Now().UTC()))
	require.NoError(t, repo.RecordLogin(ctx, u.ID, time.Now().UTC()))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.LoginCount)
	assert.NotNil(t, got.LastLoginAt)

	err = repo.UpdateFields(ctx, "missing", map[string]any{"first_name": "X"})
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	n, err := repo.Count(ctx, repository.Filter{Field: "role", Value: domain.RoleStudent})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestDuplicateEmailIsTranslated(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, testutil.WithEmail("dup@example.com"))

	u := testutil.CreateUser(t, db)
	u.Email = "dup@example.com"
	err := repository.NewUserRepository(db).Update(context.Background(), u)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestPage(t *testing.T) {
	offset, size := repository.Page(0, 0)
	assert.Equal(t, 0, offset)
	assert.Equal(t, 20, size)

	offset, size = repository.Page(3, 500)
	assert.Equal(t, 200, offset)
	assert.Equal(t, 100, size)
}
