package service

import (
	"context"
	"strings"

	"socialpost/internal/models"
	"socialpost/internal/repository"
	"socialpost/internal/validation"
)

// UpdateProfileInput carries optional profile edits. A nil field is left untouched.
type UpdateProfileInput struct {
	UserID     uint
	Name       *string
	Bio        *string
	ProfilePic *string
}

type UserService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
}

func NewUserService(users repository.UserRepository, follows repository.FollowRepository) *UserService {
	return &UserService{users: users, follows: follows}
}

// GetProfile returns the user with follower and following summaries.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, err := s.follows.Followers(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Followers = models.Summaries(followers)
	user.Following = models.Summaries(following)
	user.FollowersCount = int64(len(followers))
	user.FollowingCount = int64(len(following))
	return user, nil
}

// GetUser returns another user's public profile. The email is only shown to its owner.
func (s *UserService) GetUser(ctx context.Context, viewerID, userID uint) (*models.User, error) {
	if userID == 0 {
		return nil, models.NewValidationError("Invalid user ID")
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if viewerID != userID {
		user.Email = ""
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, viewerID uint, limit, offset int) ([]models.UserSummary, error) {
	users, err := s.users.List(ctx, viewerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return models.Summaries(users), nil
}

func (s *UserService) SearchUsers(ctx context.Context, viewerID uint, query string, limit int) ([]models.UserSummary, error) {
	if strings.TrimSpace(query) == "" {
		return []models.UserSummary{}, nil
	}
	users, err := s.users.Search(ctx, query, viewerID, limit)
	if err != nil {
		return nil, err
	}
	return models.Summaries(users), nil
}

// UpdateProfile applies in. A blank name or picture is ignored; a blank bio clears it.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" {
			if err := validation.ValidateName(name); err != nil {
				return nil, models.NewValidationError(err.Error())
			}
			user.Name = name
		}
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if err := validation.ValidateBio(bio); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Bio = bio
	}
	if in.ProfilePic != nil && strings.TrimSpace(*in.ProfilePic) != "" {
		user.ProfilePic = *in.ProfilePic
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, in.UserID)
}
