// Package seed creates demo data for development databases. Every write goes through
// the services, so seeded follows, notifications and conversations obey the same
// rules as live traffic.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"socialpost/internal/middleware"
	"socialpost/internal/models"
	"socialpost/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password of every generated account.
const DefaultPassword = "password123"

// Services are the entry points the seeder writes through.
type Services struct {
	Auth          *service.AuthService
	Relationships *service.RelationshipService
	Messaging     *service.MessagingService
	Posts         *service.PostService
}

// Options controls random seeding.
type Options struct {
	Users int
	Posts int
	// MutualRatio is the share of user pairs that follow each other.
	MutualRatio float64
	// FollowRatio is the share of the remaining pairs with a one-way follow.
	FollowRatio float64
	// MessagesPerPair is how many messages each mutual pair exchanges.
	MessagesPerPair int
}

// Summary counts what a seeding run created.
type Summary struct {
	Users    int `json:"users"`
	Follows  int `json:"follows"`
	Posts    int `json:"posts"`
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Messages int `json:"messages"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d follows, %d posts, %d likes, %d comments, %d messages",
		s.Users, s.Follows, s.Posts, s.Likes, s.Comments, s.Messages)
}

type Seeder struct {
	svc   Services
	faker *gofakeit.Faker
}

// NewSeeder returns a Seeder. A zero seed picks a random one.
func NewSeeder(svc Services, seed int64) *Seeder {
	return &Seeder{svc: svc, faker: gofakeit.New(seed)}
}

// Random builds a random social graph with posts and conversations.
func (s *Seeder) Random(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Users < 0 || opts.Posts < 0 || opts.MutualRatio < 0 || opts.MutualRatio > 1 {
		return nil, fmt.Errorf("invalid seed options: %+v", opts)
	}
	sum := &Summary{}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := s.randomUser(ctx, i)
		if err != nil {
			return sum, err
		}
		users = append(users, u)
		sum.Users++
	}

	var mutualPairs [][2]*models.User
	for i := 0; i < len(users); i++ {
		for j := i + 1; j < len(users); j++ {
			a, b := users[i], users[j]
			switch roll := s.roll(); {
			case roll < opts.MutualRatio:
				if err := s.ensureFollow(ctx, a.ID, b.ID, sum); err != nil {
					return sum, err
				}
				if err := s.ensureFollow(ctx, b.ID, a.ID, sum); err != nil {
					return sum, err
				}
				mutualPairs = append(mutualPairs, [2]*models.User{a, b})
			case roll < opts.MutualRatio+opts.FollowRatio*(1-opts.MutualRatio):
				if s.faker.Bool() {
					a, b = b, a
				}
				if err := s.ensureFollow(ctx, a.ID, b.ID, sum); err != nil {
					return sum, err
				}
			}
		}
	}

	if len(users) > 0 {
		for i := 0; i < opts.Posts; i++ {
			if err := s.randomPost(ctx, users, sum); err != nil {
				return sum, err
			}
		}
	}

	for _, pair := range mutualPairs {
		for k := 0; k < opts.MessagesPerPair; k++ {
			from, to := pair[0], pair[1]
			if k%2 == 1 {
				from, to = to, from
			}
			if _, err := s.svc.Messaging.SendMessage(ctx, service.SendMessageInput{
				SenderID: from.ID, ReceiverID: to.ID, Text: s.faker.Sentence(s.faker.Number(3, 12)),
			}); err != nil {
				return sum, err
			}
			sum.Messages++
		}
	}

	middleware.Logger.InfoContext(ctx, "random seed complete", slog.String("summary", sum.String()))
	return sum, nil
}

func (s *Seeder) randomUser(ctx context.Context, i int) (*models.User, error) {
	first, last := s.faker.FirstName(), s.faker.LastName()
	base := lettersOnly(first) + lettersOnly(last)
	if base == "" {
		base = "user"
	}
	if len(base) > 24 {
		base = base[:24]
	}
	username := fmt.Sprintf("%s%d", base, i)

	res, err := s.svc.Auth.Register(ctx, service.RegisterInput{
		Name:     first + " " + last,
		Email:    fmt.Sprintf("%s@example.com", username),
		Username: username,
		Password: DefaultPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", username, err)
	}
	return res.User, nil
}

func (s *Seeder) randomPost(ctx context.Context, users []*models.User, sum *Summary) error {
	author := users[s.faker.Number(0, len(users)-1)]
	in := service.CreatePostInput{UserID: author.ID, Caption: s.faker.Sentence(s.faker.Number(4, 14))}
	if s.faker.Bool() {
		in.Image = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", s.faker.UUID())
	}
	post, err := s.svc.Posts.Create(ctx, in)
	if err != nil {
		return err
	}
	sum.Posts++

	for _, u := range users {
		if u.ID == author.ID {
			continue
		}
		if s.chance(0.3) {
			if _, err := s.svc.Posts.Like(ctx, u.ID, post.ID); err != nil {
				return err
			}
			sum.Likes++
		}
		if s.chance(0.1) {
			if _, err := s.svc.Posts.AddComment(ctx, u.ID, post.ID, s.faker.Sentence(s.faker.Number(2, 10))); err != nil {
				return err
			}
			sum.Comments++
		}
	}
	return nil
}

// roll draws uniformly from [0, 1). Faker.Float64 spans the whole float64 range.
func (s *Seeder) roll() float64 {
	return s.faker.Float64Range(0, 1)
}

func (s *Seeder) chance(p float64) bool {
	return s.roll() < p
}

// ensureFollow makes follower follow followee without toggling an existing edge off.
func (s *Seeder) ensureFollow(ctx context.Context, followerID, followeeID uint, sum *Summary) error {
	rel, err := s.svc.Relationships.Relationship(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if rel.Following {
		return nil
	}
	if _, err := s.svc.Relationships.ToggleFollow(ctx, followerID, followeeID); err != nil {
		return err
	}
	sum.Follows++
	return nil
}

func lettersOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, strings.ToLower(s))
}
