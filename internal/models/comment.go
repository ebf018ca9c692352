package models

// CommentEvent identifies a comment document under posts/{postId}/comments/{commentId}.
type CommentEvent struct {
	PostID    string `json:"postId" validate:"required"`
	CommentID string `json:"commentId" validate:"required"`
}
