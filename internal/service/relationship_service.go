package service

import (
	"context"
	"fmt"
	"log/slog"

	"socialpost/internal/middleware"
	"socialpost/internal/models"
	"socialpost/internal/observability"
	"socialpost/internal/repository"
)

// FollowResult is the outcome of a follow toggle.
type FollowResult struct {
	Following bool `json:"following"`
}

// RelationshipService maintains the follow graph. Every edge lives in one table, so
// A in following(B) and B in followers(A) are the same row read from either side.
type RelationshipService struct {
	follows       repository.FollowRepository
	users         repository.UserRepository
	notifications *NotificationService
	effects       SideEffects
}

func NewRelationshipService(
	follows repository.FollowRepository,
	users repository.UserRepository,
	notifications *NotificationService,
	effects SideEffects,
) *RelationshipService {
	return &RelationshipService{
		follows:       follows,
		users:         users,
		notifications: notifications,
		effects:       effects,
	}
}

// ToggleFollow follows targetID when actorID does not follow it yet and unfollows it
// otherwise. A new follow notifies the target: follow_accepted when the target already
// follows the actor back, plus resolving the target's pending follow notification to
// the actor, or a plain follow notification otherwise. Notification work runs as a side
// effect and cannot fail the toggle.
func (s *RelationshipService) ToggleFollow(ctx context.Context, actorID, targetID uint) (*FollowResult, error) {
	if actorID == targetID {
		return nil, models.NewValidationError("Cannot follow yourself")
	}
	if targetID == 0 {
		return nil, models.NewValidationError("Invalid user ID")
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	following, err := s.follows.Toggle(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if !following {
		observability.FollowToggles.WithLabelValues("unfollowed").Inc()
		return &FollowResult{Following: false}, nil
	}
	observability.FollowToggles.WithLabelValues("followed").Inc()

	reciprocal, err := s.follows.Exists(ctx, targetID, actorID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "reciprocity check failed, skipping follow notification",
			slog.Uint64("actor_id", uint64(actorID)),
			slog.Uint64("target_id", uint64(target.ID)),
			slog.String("error", err.Error()),
		)
		return &FollowResult{Following: true}, nil
	}

	if reciprocal {
		accepted := &models.Notification{
			Type:    models.NotificationFollowAccepted,
			FromID:  actorID,
			ToID:    targetID,
			Message: fmt.Sprintf("%s accepted your follow request", actor.Name),
		}
		s.effects.Go(ctx, "follow_accepted_notification", func(ctx context.Context) error {
			return s.notifications.Emit(ctx, accepted)
		})
		s.effects.Go(ctx, "resolve_follow_request", func(ctx context.Context) error {
			return s.notifications.ResolvePendingFollow(ctx, targetID, actorID)
		})
	} else {
		followed := &models.Notification{
			Type:    models.NotificationFollow,
			FromID:  actorID,
			ToID:    targetID,
			Message: fmt.Sprintf("%s started following you", actor.Name),
		}
		s.effects.Go(ctx, "follow_notification", func(ctx context.Context) error {
			return s.notifications.Emit(ctx, followed)
		})
	}

	return &FollowResult{Following: true}, nil
}

// IsMutual reports whether a and b follow each other. Both edges are read fresh from
// the primary store on every call.
func (s *RelationshipService) IsMutual(ctx context.Context, a, b uint) (bool, error) {
	if a == 0 || b == 0 || a == b {
		return false, nil
	}
	return s.follows.IsMutual(ctx, a, b)
}

// Stats returns follower and following counts with the user's public profile.
func (s *RelationshipService) Stats(ctx context.Context, userID uint) (*models.RelationshipStats, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, err := s.follows.CountFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.CountFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.RelationshipStats{
		UserID:         user.ID,
		Name:           user.Name,
		Username:       user.Username,
		Bio:            user.Bio,
		ProfilePic:     user.ProfilePic,
		FollowersCount: followers,
		FollowingCount: following,
	}, nil
}

func (s *RelationshipService) Followers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.follows.Followers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.Summaries(users), nil
}

func (s *RelationshipService) Following(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.follows.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.Summaries(users), nil
}

// Relationship describes how viewerID and otherID are connected.
func (s *RelationshipService) Relationship(ctx context.Context, viewerID, otherID uint) (*models.Relationship, error) {
	if _, err := s.users.GetByID(ctx, otherID); err != nil {
		return nil, err
	}
	rel := &models.Relationship{}
	if viewerID == otherID {
		return rel, nil
	}
	var err error
	if rel.Following, err = s.follows.Exists(ctx, viewerID, otherID); err != nil {
		return nil, err
	}
	if rel.FollowedBy, err = s.follows.Exists(ctx, otherID, viewerID); err != nil {
		return nil, err
	}
	rel.Mutual = rel.Following && rel.FollowedBy
	return rel, nil
}
