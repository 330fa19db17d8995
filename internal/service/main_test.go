package service

import (
	"context"
	"fmt"
	"testing"

	"socialpost/internal/auth"
	"socialpost/internal/featureflags"
	"socialpost/internal/models"
	"socialpost/internal/notifications"
	"socialpost/internal/repository"
	"socialpost/internal/testutil"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// harness wires every service against an in-memory database with inline side effects.
type harness struct {
	db            *gorm.DB
	users         repository.UserRepository
	follows       repository.FollowRepository
	notifRepo     repository.NotificationRepository
	chats         repository.ChatRepository
	notifications *NotificationService
	relationships *RelationshipService
	messaging     *MessagingService
	unread        *UnreadService
	posts         *PostService
	accounts      *UserService
	auth          *AuthService
}

func newHarness(t *testing.T, flags string) *harness {
	t.Helper()
	db := testutil.NewTestDB(t)
	effects := notifications.NewInlineDispatcher()

	h := &harness{
		db:        db,
		users:     repository.NewUserRepository(db),
		follows:   repository.NewFollowRepository(db),
		notifRepo: repository.NewNotificationRepository(db),
		chats:     repository.NewChatRepository(db),
	}
	h.notifications = NewNotificationService(h.notifRepo, nil)
	h.relationships = NewRelationshipService(h.follows, h.users, h.notifications, effects)
	h.messaging = NewMessagingService(h.chats, h.users, h.relationships)
	h.unread = NewUnreadService(h.notifications, h.messaging)
	h.posts = NewPostService(
		repository.NewPostRepository(db),
		repository.NewCommentRepository(db),
		h.follows,
		h.users,
		h.notifications,
		effects,
		featureflags.Parse(flags),
	)
	h.accounts = NewUserService(h.users, h.follows)
	h.auth = NewAuthService(
		h.users,
		auth.NewTokenIssuer("test-secret-that-is-long-enough-0123456789", 0),
		auth.NewRevocations(nil),
	).WithHashCost(bcrypt.MinCost)
	return h
}

func (h *harness) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{
		Name:     "User " + username,
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "hash",
	}
	require.NoError(t, h.users.Create(context.Background(), u))
	return u
}

func (h *harness) follow(t *testing.T, actor, target *models.User) {
	t.Helper()
	res, err := h.relationships.ToggleFollow(context.Background(), actor.ID, target.ID)
	require.NoError(t, err)
	require.True(t, res.Following)
}

func (h *harness) mutual(t *testing.T, a, b *models.User) {
	t.Helper()
	h.follow(t, a, b)
	h.follow(t, b, a)
}

func (h *harness) notificationsFor(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	list, err := h.notifications.List(context.Background(), userID, 0)
	require.NoError(t, err)
	return list
}

type notificationRepoStub struct {
	repository.NotificationRepository
	createFn                func(context.Context, *models.Notification) error
	markPendingFollowReadFn func(context.Context, uint, uint) (int64, error)
	getByIDFn               func(context.Context, uint) (*models.Notification, error)
	markReadFn              func(context.Context, uint) error
	deleteFn                func(context.Context, uint) error
	listForUserFn           func(context.Context, uint, int) ([]models.Notification, error)
}

func (s *notificationRepoStub) Create(ctx context.Context, n *models.Notification) error {
	return s.createFn(ctx, n)
}
func (s *notificationRepoStub) MarkPendingFollowRead(ctx context.Context, fromID, toID uint) (int64, error) {
	return s.markPendingFollowReadFn(ctx, fromID, toID)
}
func (s *notificationRepoStub) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	return s.getByIDFn(ctx, id)
}
func (s *notificationRepoStub) MarkRead(ctx context.Context, id uint) error {
	return s.markReadFn(ctx, id)
}
func (s *notificationRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *notificationRepoStub) ListForUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	return s.listForUserFn(ctx, userID, limit)
}

type publisherStub struct {
	published []*models.Notification
	err       error
}

func (p *publisherStub) NotificationCreated(_ context.Context, n *models.Notification) error {
	p.published = append(p.published, n)
	return p.err
}
