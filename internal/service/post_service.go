package service

import (
	"context"
	"fmt"

	"socialpost/internal/featureflags"
	"socialpost/internal/models"
	"socialpost/internal/repository"
	"socialpost/internal/validation"
)

// CreatePostInput is the payload of a new post. Image is an opaque URL or data URI.
type CreatePostInput struct {
	UserID  uint
	Caption string
	Image   string
}

// PostService manages posts, likes and comments. Like and comment notifications are
// sent when the post_notifications flag is on for the acting user.
type PostService struct {
	posts         repository.PostRepository
	comments      repository.CommentRepository
	follows       repository.FollowRepository
	users         repository.UserRepository
	notifications *NotificationService
	effects       SideEffects
	flags         *featureflags.Flags
}

func NewPostService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	follows repository.FollowRepository,
	users repository.UserRepository,
	notifications *NotificationService,
	effects SideEffects,
	flags *featureflags.Flags,
) *PostService {
	return &PostService{
		posts:         posts,
		comments:      comments,
		follows:       follows,
		users:         users,
		notifications: notifications,
		effects:       effects,
		flags:         flags,
	}
}

// Feed returns posts by the users viewerID follows, newest first.
func (s *PostService) Feed(ctx context.Context, viewerID uint, limit, offset int) ([]models.Post, error) {
	ids, err := s.follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, viewerID, ids, limit, offset)
}

func (s *PostService) UserPosts(ctx context.Context, viewerID, authorID uint, limit, offset int) ([]models.Post, error) {
	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		return nil, err
	}
	return s.list(ctx, viewerID, []uint{authorID}, limit, offset)
}

func (s *PostService) list(ctx context.Context, viewerID uint, authorIDs []uint, limit, offset int) ([]models.Post, error) {
	posts, err := s.posts.ListByAuthors(ctx, authorIDs, limit, offset)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return []models.Post{}, nil
	}

	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	likes, err := s.posts.LikesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		decorateLikes(&posts[i], likes[posts[i].ID], viewerID)
	}
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, viewerID, postID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	likes, err := s.posts.LikesFor(ctx, []uint{postID})
	if err != nil {
		return nil, err
	}
	decorateLikes(post, likes[postID], viewerID)
	return post, nil
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	caption, err := validation.RequireText("Caption", in.Caption)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	post := &models.Post{UserID: in.UserID, Caption: caption, Image: in.Image}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.Get(ctx, in.UserID, post.ID)
}

// Delete removes a post together with its likes, comments and notifications.
func (s *PostService) Delete(ctx context.Context, userID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewForbiddenError("Not authorized to delete post")
	}
	return s.posts.Delete(ctx, postID)
}

func (s *PostService) Like(ctx context.Context, userID, postID uint) (*models.LikeResult, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	added, err := s.posts.AddLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, models.NewConflictError("Already liked")
	}
	s.notifyOwner(ctx, post, userID, models.NotificationLike, "%s liked your post")
	return s.likeResult(ctx, userID, postID)
}

// Unlike is idempotent.
func (s *PostService) Unlike(ctx context.Context, userID, postID uint) (*models.LikeResult, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	if err := s.posts.RemoveLike(ctx, postID, userID); err != nil {
		return nil, err
	}
	return s.likeResult(ctx, userID, postID)
}

func (s *PostService) likeResult(ctx context.Context, userID, postID uint) (*models.LikeResult, error) {
	likes, err := s.posts.LikesFor(ctx, []uint{postID})
	if err != nil {
		return nil, err
	}
	var post models.Post
	decorateLikes(&post, likes[postID], userID)
	return &models.LikeResult{Likes: post.Likes, LikesCount: post.LikesCount, Liked: post.Liked}, nil
}

// AddComment appends a comment and returns the updated post.
func (s *PostService) AddComment(ctx context.Context, userID, postID uint, text string) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	text, err = validation.RequireText("Comment text", text)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.comments.Create(ctx, &models.Comment{PostID: postID, UserID: userID, Text: text}); err != nil {
		return nil, err
	}
	s.notifyOwner(ctx, post, userID, models.NotificationComment, "%s commented on your post")
	return s.Get(ctx, userID, postID)
}

// DeleteComment removes a comment written by userID and returns the updated post.
func (s *PostService) DeleteComment(ctx context.Context, userID, postID, commentID uint) (*models.Post, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != postID {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	if comment.UserID != userID {
		return nil, models.NewForbiddenError("Not authorized to delete comment")
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, postID)
}

func (s *PostService) notifyOwner(ctx context.Context, post *models.Post, actorID uint, kind models.NotificationType, format string) {
	if post.UserID == actorID || !s.flags.Enabled(featureflags.PostNotifications, actorID) {
		return
	}
	postID := post.ID
	ownerID := post.UserID
	s.effects.Go(ctx, string(kind)+"_notification", func(ctx context.Context) error {
		actor, err := s.users.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		return s.notifications.Emit(ctx, &models.Notification{
			Type:    kind,
			FromID:  actorID,
			ToID:    ownerID,
			PostID:  &postID,
			Message: fmt.Sprintf(format, actor.Name),
		})
	})
}

func decorateLikes(post *models.Post, likes []uint, viewerID uint) {
	if likes == nil {
		likes = []uint{}
	}
	post.Likes = likes
	post.LikesCount = int64(len(likes))
	post.Liked = false
	for _, id := range likes {
		if id == viewerID {
			post.Liked = true
			break
		}
	}
}
