package repository

import (
	"context"
	"fmt"
	"testing"

	"socialpost/internal/models"
	"socialpost/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewTestDB(t)
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Name:     "User " + username,
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "hash",
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}
