package repository_test

import (
	"context"
	"testing"

	"codecamp/internal/models"
	"codecamp/internal/repository"
	"codecamp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityAndAccessLogs(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewActivityLogRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db)

	for _, action := range []string{"enroll", "login", "payment_created"} {
		require.NoError(t, repo.Create(ctx, &models.ActivityLog{UserID: &u.ID, Action: action}))
	}
	list, err := repo.ListByUser(ctx, u.ID, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "payment_created", list[0].Action)

	require.NoError(t, repo.CreateAccessLog(ctx, &models.AccessLog{
		UserID:      u.ID,
		HasAccess:   true,
		Permissions: []string{"view_courses"},
		Features:    []string{"live_classes"},
	}))
	n, err := repo.CountAccessLogs(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestNotificationsListNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewNotificationRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db)

	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: &u.ID, Type: "welcome", Recipient: u.Email, Status: models.NotificationSent}))
	list, err := repo.ListByUserID(ctx, u.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "welcome", list[0].Type)
}
