package repository

import (
	"context"
	"testing"

	"socialpost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateConflict(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createUser(t, db, "alice")

	err := repo.Create(ctx, &models.User{Name: "Other", Username: "alice", Email: "other@example.com", Password: "x"})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeConflict))
}

func TestUserRepository_Lookups(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice")

	byEmail, err := repo.GetByEmail(ctx, "  ALICE@example.com ")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, alice.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.Password)

	missing, err := repo.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	byID, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = repo.GetByID(ctx, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice")

	alice.Name = "Alice A."
	alice.Bio = ""
	alice.ProfilePic = "data:image/png;base64,AAAA"
	require.NoError(t, repo.UpdateProfile(ctx, alice))

	stored, err := repo.GetByEmail(ctx, alice.Email)
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", stored.Name)
	assert.Equal(t, "hash", stored.Password, "password must survive profile edits")

	err = repo.UpdateProfile(ctx, &models.User{ID: 4242, Name: "ghost"})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_ListAndSearch(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	createUser(t, db, "bob")
	createUser(t, db, "carol_b")

	list, err := repo.List(ctx, alice.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, u := range list {
		assert.NotEqual(t, alice.ID, u.ID)
	}

	found, err := repo.Search(ctx, "B", alice.ID, 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = repo.Search(ctx, "_b", alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "carol_b", found[0].Username)
}
