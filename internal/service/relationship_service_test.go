package service

import (
	"context"
	"errors"
	"testing"

	"socialpost/internal/models"
	"socialpost/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(summaries []models.UserSummary) []uint {
	out := make([]uint, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s.ID)
	}
	return out
}

func TestToggleFollow_PureToggleKeepsBothSidesInSync(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	a, b := h.user(t, "alice"), h.user(t, "bob")

	assertEdge := func(want bool) {
		t.Helper()
		following, err := h.relationships.Following(ctx, a.ID)
		require.NoError(t, err)
		followers, err := h.relationships.Followers(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, want, contains(ids(following), b.ID), "b in a.following")
		assert.Equal(t, want, contains(ids(followers), a.ID), "a in b.followers")
	}

	res, err := h.relationships.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, res.Following)
	assertEdge(true)

	res, err = h.relationships.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, res.Following)
	assertEdge(false)
}

func contains(list []uint, id uint) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func TestToggleFollow_RejectsSelfFollow(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	a, b := h.user(t, "alice"), h.user(t, "bob")
	h.follow(t, b, a)

	for i := 0; i < 2; i++ {
		_, err := h.relationships.ToggleFollow(ctx, a.ID, a.ID)
		require.Error(t, err)
		assert.True(t, models.IsCode(err, models.CodeValidation))
	}

	stats, err := h.relationships.Stats(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.FollowersCount)
	assert.Zero(t, stats.FollowingCount)
}

func TestToggleFollow_UnknownTarget(t *testing.T) {
	h := newHarness(t, "")
	a := h.user(t, "alice")

	_, err := h.relationships.ToggleFollow(context.Background(), a.ID, 9999)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestToggleFollow_FollowBackAcceptsPendingRequest(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	a, b := h.user(t, "alice"), h.user(t, "bob")

	h.follow(t, a, b)
	toB := h.notificationsFor(t, b.ID)
	require.Len(t, toB, 1)
	assert.Equal(t, models.NotificationFollow, toB[0].Type)
	assert.Equal(t, a.ID, toB[0].FromID)
	assert.Equal(t, "User alice started following you", toB[0].Message)
	assert.False(t, toB[0].Read)

	h.follow(t, b, a)
	toA := h.notificationsFor(t, a.ID)
	require.Len(t, toA, 1)
	assert.Equal(t, models.NotificationFollowAccepted, toA[0].Type)
	assert.Equal(t, b.ID, toA[0].FromID)
	assert.Equal(t, "User bob accepted your follow request", toA[0].Message)

	original, err := h.notifRepo.GetByID(ctx, toB[0].ID)
	require.NoError(t, err)
	assert.True(t, original.Read, "the pending follow notification is resolved")

	mutual, err := h.relationships.IsMutual(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, mutual)
}

func TestToggleFollow_UnfollowEmitsNothing(t *testing.T) {
	h := newHarness(t, "")
	a, b := h.user(t, "alice"), h.user(t, "bob")

	h.follow(t, a, b)
	_, err := h.relationships.ToggleFollow(context.Background(), a.ID, b.ID)
	require.NoError(t, err)

	assert.Len(t, h.notificationsFor(t, b.ID), 1)
}

func TestToggleFollow_NotificationFailureDoesNotFailFollow(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	a, b := h.user(t, "alice"), h.user(t, "bob")

	broken := NewNotificationService(&notificationRepoStub{
		createFn: func(context.Context, *models.Notification) error {
			return models.NewDependencyError(errors.New("connection refused"))
		},
		markPendingFollowReadFn: func(context.Context, uint, uint) (int64, error) {
			panic("store exploded")
		},
	}, nil)
	rel := NewRelationshipService(h.follows, h.users, broken, notifications.NewInlineDispatcher())

	res, err := rel.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, res.Following)

	res, err = rel.ToggleFollow(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, res.Following)

	mutual, err := rel.IsMutual(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, mutual)
}

func TestToggleFollow_AsyncDispatcher(t *testing.T) {
	h := newHarness(t, "")
	a, b := h.user(t, "alice"), h.user(t, "bob")

	d := notifications.NewDispatcher(0)
	rel := NewRelationshipService(h.follows, h.users, h.notifications, d)
	ctx, cancel := context.WithCancel(context.Background())

	res, err := rel.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, res.Following)
	cancel()
	d.Wait()

	assert.Len(t, h.notificationsFor(t, b.ID), 1)
}

func TestIsMutual_RequiresBothDirections(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	a, b := h.user(t, "alice"), h.user(t, "bob")

	h.follow(t, a, b)
	ok, err := h.relationships.IsMutual(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = h.relationships.IsMutual(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	h.follow(t, b, a)
	ok, err = h.relationships.IsMutual(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.relationships.IsMutual(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRelationship_And_Stats(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	a, b, c := h.user(t, "alice"), h.user(t, "bob"), h.user(t, "carol")
	h.follow(t, a, b)
	h.follow(t, c, b)

	rel, err := h.relationships.Relationship(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Relationship{Following: false, FollowedBy: true, Mutual: false}, *rel)

	stats, err := h.relationships.Stats(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.FollowersCount)
	assert.Zero(t, stats.FollowingCount)
	assert.Equal(t, "bob", stats.Username)

	_, err = h.relationships.Stats(ctx, 4242)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
