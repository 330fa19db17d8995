package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"socialpost/internal/middleware"
	"socialpost/internal/models"
	"socialpost/internal/service"

	"gopkg.in/yaml.v3"
)

// Scenario is a deterministic data set described in YAML. Users are referenced by
// username everywhere else in the file.
type Scenario struct {
	Users []struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"users"`
	Follows []struct {
		From string `yaml:"from"`
		To   string `yaml:"to"`
	} `yaml:"follows"`
	Posts []struct {
		Author   string   `yaml:"author"`
		Caption  string   `yaml:"caption"`
		Image    string   `yaml:"image"`
		Likes    []string `yaml:"likes"`
		Comments []struct {
			Author string `yaml:"author"`
			Text   string `yaml:"text"`
		} `yaml:"comments"`
	} `yaml:"posts"`
	Messages []struct {
		From string `yaml:"from"`
		To   string `yaml:"to"`
		Text string `yaml:"text"`
	} `yaml:"messages"`
}

func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(raw)
}

func ParseScenario(raw []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(sc.Users) == 0 {
		return nil, fmt.Errorf("scenario declares no users")
	}
	return &sc, nil
}

// ApplyScenario creates everything sc describes, in file order within each section.
func (s *Seeder) ApplyScenario(ctx context.Context, sc *Scenario) (*Summary, error) {
	sum := &Summary{}
	byName := make(map[string]*models.User, len(sc.Users))

	lookup := func(section, username string) (*models.User, error) {
		u, ok := byName[username]
		if !ok {
			return nil, fmt.Errorf("%s: unknown user %q", section, username)
		}
		return u, nil
	}

	for _, u := range sc.Users {
		password := u.Password
		if password == "" {
			password = DefaultPassword
		}
		res, err := s.svc.Auth.Register(ctx, service.RegisterInput{
			Name: u.Name, Email: u.Email, Username: u.Username, Password: password,
		})
		if err != nil {
			return sum, fmt.Errorf("register %s: %w", u.Username, err)
		}
		byName[res.User.Username] = res.User
		sum.Users++
	}

	for _, f := range sc.Follows {
		from, err := lookup("follows", f.From)
		if err != nil {
			return sum, err
		}
		to, err := lookup("follows", f.To)
		if err != nil {
			return sum, err
		}
		if err := s.ensureFollow(ctx, from.ID, to.ID, sum); err != nil {
			return sum, fmt.Errorf("follow %s -> %s: %w", f.From, f.To, err)
		}
	}

	for _, p := range sc.Posts {
		author, err := lookup("posts", p.Author)
		if err != nil {
			return sum, err
		}
		post, err := s.svc.Posts.Create(ctx, service.CreatePostInput{UserID: author.ID, Caption: p.Caption, Image: p.Image})
		if err != nil {
			return sum, fmt.Errorf("post by %s: %w", p.Author, err)
		}
		sum.Posts++

		for _, name := range p.Likes {
			u, err := lookup("likes", name)
			if err != nil {
				return sum, err
			}
			if _, err := s.svc.Posts.Like(ctx, u.ID, post.ID); err != nil && !models.IsCode(err, models.CodeConflict) {
				return sum, err
			}
			sum.Likes++
		}
		for _, c := range p.Comments {
			u, err := lookup("comments", c.Author)
			if err != nil {
				return sum, err
			}
			if _, err := s.svc.Posts.AddComment(ctx, u.ID, post.ID, c.Text); err != nil {
				return sum, err
			}
			sum.Comments++
		}
	}

	for _, m := range sc.Messages {
		from, err := lookup("messages", m.From)
		if err != nil {
			return sum, err
		}
		to, err := lookup("messages", m.To)
		if err != nil {
			return sum, err
		}
		if _, err := s.svc.Messaging.SendMessage(ctx, service.SendMessageInput{
			SenderID: from.ID, ReceiverID: to.ID, Text: m.Text,
		}); err != nil {
			return sum, fmt.Errorf("message %s -> %s: %w", m.From, m.To, err)
		}
		sum.Messages++
	}

	middleware.Logger.InfoContext(ctx, "scenario seed complete", slog.String("summary", sum.String()))
	return sum, nil
}
