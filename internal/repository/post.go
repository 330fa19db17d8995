package repository

import (
	"context"

	"socialpost/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines persistence operations for posts and likes.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListByAuthors(ctx context.Context, authorIDs []uint, limit, offset int) ([]models.Post, error)
	Delete(ctx context.Context, id uint) error
	AddLike(ctx context.Context, postID, userID uint) (bool, error)
	RemoveLike(ctx context.Context, postID, userID uint) error
	LikesFor(ctx context.Context, postIDs []uint) (map[uint][]uint, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func preloadPostRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User", summaryColumns).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Comments.User", summaryColumns)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return models.NewDependencyError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := preloadPostRelations(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, storeError(err, "Post", id)
	}
	return &post, nil
}

// ListByAuthors returns posts written by any of authorIDs, newest first.
func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []uint, limit, offset int) ([]models.Post, error) {
	if len(authorIDs) == 0 {
		return []models.Post{}, nil
	}
	var posts []models.Post
	err := preloadPostRelations(readDB(r.db).WithContext(ctx)).
		Where("user_id IN ?", authorIDs).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit, 50, 100)).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewDependencyError(err)
	}
	return posts, nil
}

// Delete removes the post with its likes, comments and the notifications that reference it.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return storeError(err, "Post", id)
}

// AddLike reports false when userID already liked the post.
func (r *postRepository) AddLike(ctx context.Context, postID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Like{PostID: postID, UserID: userID})
	if res.Error != nil {
		return false, models.NewDependencyError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *postRepository) RemoveLike(ctx context.Context, postID, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Like{}).Error; err != nil {
		return models.NewDependencyError(err)
	}
	return nil
}

// LikesFor maps each post to the IDs of the users who liked it.
func (r *postRepository) LikesFor(ctx context.Context, postIDs []uint) (map[uint][]uint, error) {
	out := make(map[uint][]uint, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var likes []models.Like
	if err := r.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("created_at ASC").
		Find(&likes).Error; err != nil {
		return nil, models.NewDependencyError(err)
	}
	for _, l := range likes {
		out[l.PostID] = append(out[l.PostID], l.UserID)
	}
	return out, nil
}
