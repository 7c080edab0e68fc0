package testutil

import (
	"testing"

	"codecamp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserInactive(t *testing.T) {
	db := NewDB(t)
	u := CreateUser(t, db, Inactive())
	assert.False(t, u.IsActive)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	assert.False(t, stored.IsActive)

	active := CreateUser(t, db)
	require.NoError(t, db.First(&stored, "id = ?", active.ID).Error)
	assert.True(t, stored.IsActive)
}
