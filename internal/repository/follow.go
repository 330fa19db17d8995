package repository

import (
	"context"
	"errors"

	"socialpost/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errEdgeRaced marks a toggle whose optimistic re-read was invalidated by a concurrent writer.
var errEdgeRaced = errors.New("follow edge changed concurrently")

// FollowRepository stores directed follow edges.
type FollowRepository interface {
	// Toggle flips follower->followee and reports whether the edge now exists.
	Toggle(ctx context.Context, followerID, followeeID uint) (bool, error)
	Exists(ctx context.Context, followerID, followeeID uint) (bool, error)
	IsMutual(ctx context.Context, a, b uint) (bool, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
	Followers(ctx context.Context, userID uint) ([]models.User, error)
	Following(ctx context.Context, userID uint) ([]models.User, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository returns a new FollowRepository implementation.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Toggle reads the current edge and flips it in one transaction. If the write finds
// the row already gone (or already present) another request won the race, and the
// call fails with a Conflict instead of double-applying.
func (r *followRepository) Toggle(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var following bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Follow{}).
			Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
			Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			res := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
				Delete(&models.Follow{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errEdgeRaced
			}
			following = false
			return nil
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errEdgeRaced
		}
		following = true
		return nil
	})

	if errors.Is(err, errEdgeRaced) {
		return false, models.NewConflictError("Follow state changed by another request, please retry")
	}
	if err != nil {
		return false, models.NewDependencyError(err)
	}
	return following, nil
}

// Exists always reads the primary so authorization never sees replica lag.
func (r *followRepository) Exists(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error; err != nil {
		return false, models.NewDependencyError(err)
	}
	return count > 0, nil
}

// IsMutual reports whether both directed edges exist, reading the primary.
func (r *followRepository) IsMutual(ctx context.Context, a, b uint) (bool, error) {
	if a == b {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("(follower_id = ? AND followee_id = ?) OR (follower_id = ? AND followee_id = ?)", a, b, b, a).
		Count(&count).Error; err != nil {
		return false, models.NewDependencyError(err)
	}
	return count == 2, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "followee_id = ?", userID)
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "follower_id = ?", userID)
}

func (r *followRepository) count(ctx context.Context, where string, userID uint) (int64, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).Where(where, userID).Count(&count).Error; err != nil {
		return 0, models.NewDependencyError(err)
	}
	return count, nil
}

// Followers returns the users following userID, most recent first.
func (r *followRepository) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	return r.edgeUsers(ctx, "follows.follower_id", "follows.followee_id = ?", userID)
}

// Following returns the users userID follows, most recent first.
func (r *followRepository) Following(ctx context.Context, userID uint) ([]models.User, error) {
	return r.edgeUsers(ctx, "follows.followee_id", "follows.follower_id = ?", userID)
}

func (r *followRepository) edgeUsers(ctx context.Context, joinCol, where string, userID uint) ([]models.User, error) {
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Model(&models.User{}).
		Select("users.id", "users.name", "users.username", "users.profile_pic").
		Joins("JOIN follows ON users.id = "+joinCol).
		Where(where, userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewDependencyError(err)
	}
	return users, nil
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &ids).Error; err != nil {
		return nil, models.NewDependencyError(err)
	}
	return ids, nil
}
