package service

import (
	"context"
	"testing"

	"socialpost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func send(t *testing.T, h *harness, from, to *models.User, text string) *models.Message {
	t.Helper()
	msg, err := h.messaging.SendMessage(context.Background(), SendMessageInput{
		SenderID: from.ID, ReceiverID: to.ID, Text: text,
	})
	require.NoError(t, err)
	return msg
}

func TestMessaging_GateRequiresMutualFollow(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	a, b := h.user(t, "alice"), h.user(t, "bob")

	_, err := h.messaging.SendMessage(ctx, SendMessageInput{SenderID: a.ID, ReceiverID: b.ID, Text: "hi"})
	assert.True(t, models.IsCode(err, models.CodeForbidden))

	h.follow(t, a, b)
	_, err = h.messaging.SendMessage(ctx, SendMessageInput{SenderID: a.ID, ReceiverID: b.ID, Text: "hi"})
	assert.True(t, models.IsCode(err, models.CodeForbidden), "one direction is not enough")
	_, err = h.messaging.OpenConversation(ctx, b.ID, a.ID)
	assert.True(t, models.IsCode(err, models.CodeForbidden))

	h.follow(t, b, a)
	msg := send(t, h, a, b, "hi")
	assert.False(t, msg.Read)
	require.NotNil(t, msg.Sender)
	assert.Equal(t, "alice", msg.Sender.Username)

	// Unfollowing closes the gate again.
	_, err = h.relationships.ToggleFollow(ctx, b.ID, a.ID)
	require.NoError(t, err)
	_, err = h.messaging.OpenConversation(ctx, a.ID, b.ID)
	assert.True(t, models.IsCode(err, models.CodeForbidden))

	var convs int64
	require.NoError(t, h.db.Model(&models.Conversation{}).Count(&convs).Error)
	assert.Equal(t, int64(1), convs)
}

func TestMessaging_SendValidation(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	a, b := h.user(t, "alice"), h.user(t, "bob")
	h.mutual(t, a, b)

	for _, in := range []SendMessageInput{
		{SenderID: a.ID, ReceiverID: b.ID, Text: ""},
		{SenderID: a.ID, ReceiverID: b.ID, Text: "  \n "},
		{SenderID: a.ID, Text: "hi"},
	} {
		_, err := h.messaging.SendMessage(ctx, in)
		assert.True(t, models.IsCode(err, models.CodeValidation), "%+v", in)
	}
}

func TestMessaging_OnlySenderDeletes(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	a, b := h.user(t, "alice"), h.user(t, "bob")
	h.mutual(t, a, b)
	msg := send(t, h, a, b, "secret")

	err := h.messaging.DeleteMessage(ctx, b.ID, msg.ID)
	assert.True(t, models.IsCode(err, models.CodeForbidden), "a participant is not the owner")

	require.NoError(t, h.messaging.DeleteMessage(ctx, a.ID, msg.ID))

	err = h.messaging.DeleteMessage(ctx, a.ID, msg.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	convs, err := h.messaging.ListConversations(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Nil(t, convs[0].LastMessageID)
}

func TestMessaging_UnreadAccounting(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	a, b := h.user(t, "alice"), h.user(t, "bob")
	h.mutual(t, a, b)

	for _, text := range []string{"one", "two", "three"} {
		send(t, h, a, b, text)
	}

	convs, err := h.messaging.ListConversations(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, int64(3), convs[0].UnreadCount)
	require.NotNil(t, convs[0].LastMessage)
	assert.Equal(t, "three", convs[0].LastMessage.Text)

	countA, err := h.messaging.UnreadMessageCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, countA)

	// Opening from the sender's side consumes nothing.
	_, err = h.messaging.OpenConversation(ctx, a.ID, b.ID)
	require.NoError(t, err)
	countB, err := h.messaging.UnreadMessageCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), countB)

	view, err := h.messaging.OpenConversation(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, view.Messages, 3)
	assert.Equal(t, "one", view.Messages[0].Text)
	assert.Equal(t, "three", view.Messages[2].Text)
	for _, m := range view.Messages {
		assert.False(t, m.Read, "response shows the state before opening")
	}

	countB, err = h.messaging.UnreadMessageCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, countB)
	countA, err = h.messaging.UnreadMessageCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, countA)

	convs, err = h.messaging.ListConversations(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, convs[0].UnreadCount)
}

func TestMessaging_OneConversationPerPair(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	a, b := h.user(t, "alice"), h.user(t, "bob")
	h.mutual(t, a, b)

	first, err := h.messaging.GetOrCreateConversation(ctx, a.ID, b.ID)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := h.messaging.GetOrCreateConversation(ctx, b.ID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		again, err = h.messaging.GetOrCreateConversation(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	}
	send(t, h, b, a, "hello")
	view, err := h.messaging.OpenConversation(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, view.Conversation.ID)
	assert.Equal(t, a.ID, view.Conversation.SenderID, "the initiator stays the stored sender")

	var count int64
	require.NoError(t, h.db.Model(&models.Conversation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = h.messaging.GetOrCreateConversation(ctx, a.ID, a.ID)
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestUnreadService_Counts(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	a, b := h.user(t, "alice"), h.user(t, "bob")
	h.mutual(t, a, b)
	send(t, h, b, a, "one")
	send(t, h, b, a, "two")

	counts, err := h.unread.Counts(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, &UnreadCounts{Notifications: 1, Messages: 2}, counts)

	counts, err = h.unread.Counts(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, &UnreadCounts{Notifications: 0, Messages: 0}, counts)
}
