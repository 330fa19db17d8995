package service

import (
	"context"
	"strings"
	"testing"

	"socialpost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUserService_GetProfileIncludesEdges(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	a, b, c := h.user(t, "alice"), h.user(t, "bob"), h.user(t, "carol")
	h.follow(t, a, b)
	h.follow(t, c, a)

	me, err := h.accounts.GetProfile(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), me.FollowersCount)
	assert.Equal(t, int64(1), me.FollowingCount)
	assert.Equal(t, []uint{c.ID}, ids(me.Followers))
	assert.Equal(t, []uint{b.ID}, ids(me.Following))
	assert.Equal(t, "alice@example.com", me.Email)

	other, err := h.accounts.GetUser(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Empty(t, other.Email, "email is private")

	_, err = h.accounts.GetUser(ctx, a.ID, 999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserService_UpdateProfile(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	a := h.user(t, "alice")
	require.NoError(t, h.db.Model(&models.User{}).Where("id = ?", a.ID).Update("bio", "old bio").Error)

	updated, err := h.accounts.UpdateProfile(ctx, UpdateProfileInput{
		UserID:     a.ID,
		Name:       strPtr("   "),
		Bio:        strPtr("  hello there  "),
		ProfilePic: strPtr("data:image/png;base64,AAAA"),
	})
	require.NoError(t, err)
	assert.Equal(t, "User alice", updated.Name, "a blank name is ignored")
	assert.Equal(t, "hello there", updated.Bio)
	assert.Equal(t, "data:image/png;base64,AAAA", updated.ProfilePic)

	updated, err = h.accounts.UpdateProfile(ctx, UpdateProfileInput{UserID: a.ID, Name: strPtr(" Alice "), Bio: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Empty(t, updated.Bio, "an empty bio clears it")
	assert.Equal(t, "data:image/png;base64,AAAA", updated.ProfilePic)

	_, err = h.accounts.UpdateProfile(ctx, UpdateProfileInput{UserID: a.ID, Bio: strPtr(strings.Repeat("x", 501))})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	var stored models.User
	require.NoError(t, h.db.First(&stored, a.ID).Error)
	assert.Equal(t, "hash", stored.Password, "profile edits never touch the password")
}

func TestUserService_ListAndSearch(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	a := h.user(t, "alice")
	h.user(t, "bob")
	h.user(t, "bobby")

	list, err := h.accounts.ListUsers(ctx, a.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.NotContains(t, ids(list), a.ID)

	found, err := h.accounts.SearchUsers(ctx, a.ID, "BOB", 0)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = h.accounts.SearchUsers(ctx, a.ID, "  ", 0)
	require.NoError(t, err)
	assert.Empty(t, found)
}
