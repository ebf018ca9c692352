package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/henstagram/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// CommentTrigger reacts to comment lifecycle events
type CommentTrigger interface {
	OnCommentCreated(ctx context.Context, postID, commentID string) error
	OnCommentDeleted(ctx context.Context, postID, commentID string) error
}

// ChallengeTrigger reacts to challenge updates
type ChallengeTrigger interface {
	OnChallengeUpdated(ctx context.Context, challengeID string, before, after map[string]any) error
}

// ChallengeEvent identifies the challenge an update event refers to
type ChallengeEvent struct {
	ChallengeID string `json:"challengeId" validate:"required"`
}

// TriggerHandler turns document events posted by the platform into trigger calls
type TriggerHandler struct {
	comments   CommentTrigger
	challenges ChallengeTrigger
}

// NewTriggerHandler creates a new TriggerHandler
func NewTriggerHandler(comments CommentTrigger, challenges ChallengeTrigger) *TriggerHandler {
	return &TriggerHandler{comments: comments, challenges: challenges}
}

// RegisterTriggerRoutes registers the event routes
func (h *TriggerHandler) RegisterTriggerRoutes(g *echo.Group) {
	g.POST("/comments/created", h.CommentCreated)
	g.POST("/comments/deleted", h.CommentDeleted)
	g.POST("/challenges/updated", h.ChallengeUpdated)
}

// CommentCreated handles posts/{postId}/comments/{commentId} creation
func (h *TriggerHandler) CommentCreated(c echo.Context) error {
	evt, err := bindCommentEvent(c)
	if err != nil {
		return err
	}
	if err := h.comments.OnCommentCreated(c.Request().Context(), evt.PostID, evt.CommentID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// CommentDeleted handles posts/{postId}/comments/{commentId} deletion
func (h *TriggerHandler) CommentDeleted(c echo.Context) error {
	evt, err := bindCommentEvent(c)
	if err != nil {
		return err
	}
	if err := h.comments.OnCommentDeleted(c.Request().Context(), evt.PostID, evt.CommentID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// ChallengeUpdated handles challenges/{challengeId} updates
func (h *TriggerHandler) ChallengeUpdated(c echo.Context) error {
	var event FirestoreEvent
	if err := c.Bind(&event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid event payload")
	}

	var evt ChallengeEvent
	if path := documentPath(event.DocumentName()); len(path) == 2 && path[0] == models.ChallengesCollection {
		evt.ChallengeID = path[1]
	}
	if err := c.Validate(&evt); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Event is not about a challenge document")
	}

	if err := h.challenges.OnChallengeUpdated(c.Request().Context(), evt.ChallengeID, event.OldValue.Data(), event.Value.Data()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func bindCommentEvent(c echo.Context) (models.CommentEvent, error) {
	var event FirestoreEvent
	if err := c.Bind(&event); err != nil {
		return models.CommentEvent{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid event payload")
	}

	var evt models.CommentEvent
	path := documentPath(event.DocumentName())
	if len(path) == 4 && path[0] == models.PostsCollection && path[2] == models.CommentsCollection {
		evt.PostID, evt.CommentID = path[1], path[3]
	}
	if err := c.Validate(&evt); err != nil {
		return evt, echo.NewHTTPError(http.StatusBadRequest, "Event is not about a comment document")
	}
	return evt, nil
}
