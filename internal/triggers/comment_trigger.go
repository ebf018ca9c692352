package triggers

import (
	"context"
	"fmt"
	"log"

	"github.com/anonto42/henstagram/backend/internal/repositories"
)

// CommentTrigger keeps posts/{postId}.commentsCount in step with the
// comments sub-collection. Creation uses the atomic increment, deletion a
// transaction that clamps at zero.
type CommentTrigger struct {
	posts  repositories.PostRepository
	logger *log.Logger
}

// NewCommentTrigger creates a new CommentTrigger
func NewCommentTrigger(posts repositories.PostRepository, logger *log.Logger) *CommentTrigger {
	if logger == nil {
		logger = log.Default()
	}
	return &CommentTrigger{posts: posts, logger: logger}
}

// OnCommentCreated runs after a comment document is created under a post
func (t *CommentTrigger) OnCommentCreated(ctx context.Context, postID, commentID string) error {
	if err := t.posts.IncrementCommentsCount(ctx, postID); err != nil {
		return fmt.Errorf("failed to increment comments count of post %s: %w", postID, err)
	}
	t.logger.Printf("[comments] post %s: +1 for comment %s", postID, commentID)
	return nil
}

// OnCommentDeleted runs after a comment document is removed from a post
func (t *CommentTrigger) OnCommentDeleted(ctx context.Context, postID, commentID string) error {
	count, err := t.posts.DecrementCommentsCount(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to decrement comments count of post %s: %w", postID, err)
	}
	t.logger.Printf("[comments] post %s: -1 for comment %s, now %d", postID, commentID, count)
	return nil
}
