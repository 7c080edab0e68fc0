package repository_test

import (
	"context"
	"errors"
	"testing"

	"codecamp/internal/domain"
	"codecamp/internal/repository"
	"codecamp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentTotalsCountOnlyCompleted(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewPaymentRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db)

	testutil.CreatePayment(t, db, u.ID, testutil.WithStatus(domain.PaymentStatusCompleted))
	testutil.CreatePayment(t, db, u.ID, testutil.WithStatus(domain.PaymentStatusCompleted), testutil.WithAmount(400))
	testutil.CreatePayment(t, db, u.ID, testutil.WithStatus(domain.PaymentStatusFailed))

	totals, err := repo.TotalsForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, totals.Count)
	assert.Equal(t, 1200.0, totals.TotalSpent)

	empty, err := repo.TotalsForUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
	assert.Zero(t, empty.TotalSpent)

	list, err := repo.ListByUser(ctx, u.ID, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	failed, total, err := repo.List(ctx, domain.PaymentStatusFailed, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, domain.PaymentStatusFailed, failed[0].Status)
}

func TestPaymentLookups(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewPaymentRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db)
	p := testutil.CreatePayment(t, db, u.ID)

	got, err := repo.GetByTransactionID(ctx, p.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	locked, err := repo.GetByIDForUpdate(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Amount, locked.Amount)

	require.NoError(t, repo.DeleteByUser(ctx, u.ID))
	_, err = repo.GetByID(ctx, p.ID)
	assert.Error(t, err)
}

func TestStoreTransactionRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db)
	p := testutil.CreatePayment(t, db, u.ID)

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx *repository.Store) error {
		pay, err := tx.Payments.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		pay.Status = domain.PaymentStatusCompleted
		if err := tx.Payments.Update(ctx, pay); err != nil {
			return err
		}
		if err := tx.Users.UpdateFields(ctx, u.ID, map[string]any{"payment_status": domain.PaymentStatusCompleted}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	pay, err := store.Payments.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, pay.Status)
	user, err := store.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, user.PaymentStatus)
}

func TestPortalStats(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewAnalyticsRepository(db)

	paid := testutil.CreateUser(t, db, testutil.WithPaymentStatus(domain.PaymentStatusCompleted))
	testutil.CreateUser(t, db, testutil.Inactive())
	testutil.CreateUser(t, db, testutil.WithRole(domain.RoleAdmin))
	testutil.CreatePayment(t, db, paid.ID, testutil.WithStatus(domain.PaymentStatusCompleted))
	testutil.CreatePayment(t, db, paid.ID, testutil.WithStatus(domain.PaymentStatusFailed))
	testutil.CreatePayment(t, db, paid.ID, testutil.WithStatus(domain.PaymentStatusRefunded))

	stats, err := repo.PortalStats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalUsers)
	assert.EqualValues(t, 2, stats.ActiveUsers)
	assert.EqualValues(t, 1, stats.PaidUsers)
	assert.EqualValues(t, 2, stats.UsersByRole[domain.RoleStudent])
	assert.EqualValues(t, 1, stats.UsersByRole[domain.RoleAdmin])
	assert.EqualValues(t, 3, stats.TotalPayments)
	assert.EqualValues(t, 1, stats.CompletedPayments)
	assert.EqualValues(t, 1, stats.FailedPayments)
	assert.EqualValues(t, 1, stats.RefundedPayments)
	assert.Equal(t, 800.0, stats.Revenue)
}
