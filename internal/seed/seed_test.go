package seed

import (
	"context"
	"testing"

	"socialpost/internal/auth"
	"socialpost/internal/featureflags"
	"socialpost/internal/models"
	"socialpost/internal/notifications"
	"socialpost/internal/repository"
	"socialpost/internal/service"
	"socialpost/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newServices(t *testing.T) (Services, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	effects := notifications.NewInlineDispatcher()
	users := repository.NewUserRepository(db)
	follows := repository.NewFollowRepository(db)
	notes := service.NewNotificationService(repository.NewNotificationRepository(db), nil)
	rel := service.NewRelationshipService(follows, users, notes, effects)

	return Services{
		Auth: service.NewAuthService(users, auth.NewTokenIssuer("seed-secret-0123456789-0123456789", 0), nil).
			WithHashCost(bcrypt.MinCost),
		Relationships: rel,
		Messaging:     service.NewMessagingService(repository.NewChatRepository(db), users, rel),
		Posts: service.NewPostService(
			repository.NewPostRepository(db),
			repository.NewCommentRepository(db),
			follows, users, notes, effects,
			featureflags.Parse(featureflags.PostNotifications),
		),
	}, db
}

const scenarioYAML = `
users:
  - {name: Alice, email: alice@example.com, username: alice}
  - {name: Bob, email: bob@example.com, username: bob, password: bobsecret}
  - {name: Carol, email: carol@example.com, username: carol}
follows:
  - {from: alice, to: bob}
  - {from: bob, to: alice}
  - {from: carol, to: alice}
  - {from: carol, to: alice}
posts:
  - author: alice
    caption: First light
    likes: [bob, carol]
    comments:
      - {author: bob, text: Gorgeous}
messages:
  - {from: alice, to: bob, text: hey}
  - {from: bob, to: alice, text: hi!}
`

func TestApplyScenario(t *testing.T) {
	svc, db := newServices(t)
	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	sum, err := NewSeeder(svc, 1).ApplyScenario(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, Summary{Users: 3, Follows: 3, Posts: 1, Likes: 2, Comments: 1, Messages: 2}, *sum)

	var edges int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&edges).Error)
	assert.Equal(t, int64(3), edges, "a repeated follow line does not toggle the edge off")

	var convs int64
	require.NoError(t, db.Model(&models.Conversation{}).Count(&convs).Error)
	assert.Equal(t, int64(1), convs)

	_, err = svc.Auth.Login(context.Background(), "bob@example.com", "bobsecret")
	assert.NoError(t, err)
}

func TestApplyScenario_Errors(t *testing.T) {
	_, err := ParseScenario([]byte("users: []"))
	assert.Error(t, err)
	_, err = ParseScenario([]byte("users: [unclosed"))
	assert.Error(t, err)

	svc, _ := newServices(t)
	sc, err := ParseScenario([]byte(`
users:
  - {name: Alice, email: alice@example.com, username: alice}
  - {name: Bob, email: bob@example.com, username: bob}
messages:
  - {from: alice, to: bob, text: not allowed yet}
`))
	require.NoError(t, err)
	_, err = NewSeeder(svc, 1).ApplyScenario(context.Background(), sc)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeForbidden))

	sc, err = ParseScenario([]byte(`
users:
  - {name: Alice, email: alice2@example.com, username: alice2}
follows:
  - {from: alice2, to: ghost}
`))
	require.NoError(t, err)
	_, err = NewSeeder(svc, 1).ApplyScenario(context.Background(), sc)
	assert.ErrorContains(t, err, `unknown user "ghost"`)
}

func TestRandom(t *testing.T) {
	svc, db := newServices(t)

	sum, err := NewSeeder(svc, 42).Random(context.Background(), Options{
		Users: 6, Posts: 4, MutualRatio: 1, MessagesPerPair: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, sum.Users)
	assert.Equal(t, 30, sum.Follows, "every pair follows both ways")
	assert.Equal(t, 4, sum.Posts)
	assert.Equal(t, 30, sum.Messages)

	var convs int64
	require.NoError(t, db.Model(&models.Conversation{}).Count(&convs).Error)
	assert.Equal(t, int64(15), convs)

	_, err = NewSeeder(svc, 1).Random(context.Background(), Options{Users: 1, MutualRatio: 2})
	assert.Error(t, err)
}

func TestSeeder_RollIsUnitInterval(t *testing.T) {
	s := NewSeeder(Services{}, 42)

	hits := 0
	for i := 0; i < 1000; i++ {
		r := s.roll()
		require.GreaterOrEqual(t, r, 0.0)
		require.Less(t, r, 1.0)
		if s.chance(0.5) {
			hits++
		}
		assert.False(t, s.chance(0))
		assert.True(t, s.chance(1))
	}
	assert.InDelta(t, 500, hits, 150)
}

func TestRandom_OneWayFollowsAndInteractions(t *testing.T) {
	svc, db := newServices(t)

	sum, err := NewSeeder(svc, 7).Random(context.Background(), Options{
		Users: 6, Posts: 10, FollowRatio: 1, MessagesPerPair: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, sum.Follows, "every pair gets exactly one edge")
	assert.Zero(t, sum.Messages)
	assert.Positive(t, sum.Likes+sum.Comments)

	var likes int64
	require.NoError(t, db.Model(&models.Like{}).Count(&likes).Error)
	assert.EqualValues(t, sum.Likes, likes)
}
