package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/kochbuch-be/internal/models"
	"github.com/pkg/errors"
)

// CommentServiceProvider defines the interface for comment services.
type CommentServiceProvider interface {
	AddComment(ctx context.Context, userID, recipeID, text string) (models.Comment, error)
	ListComments(ctx context.Context, recipeID string) ([]models.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID string) error
}

// CommentService provides business logic for recipe comments.
type CommentService struct {
	store
}

// NewCommentService creates a new CommentService.
func NewCommentService(db *sql.DB, timeout time.Duration) *CommentService {
	return &CommentService{store{db: db, timeout: timeout}}
}

// AddComment attaches a comment to a recipe the user can see. A recipe that
// is missing, or unpublished and owned by someone else, is ErrNotFound.
func (s *CommentService) AddComment(ctx context.Context, userID, recipeID, text string) (models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return models.Comment{}, invalid("comment must not be empty")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	comment := models.Comment{
		ID:        uuid.NewString(),
		RecipeID:  recipeID,
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	err := execOwned(ctx, s.db,
		`INSERT INTO comments (id, recipe_id, user_id, content, created_at)
		SELECT ?, r.id, ?, ?, ? FROM recipes r WHERE r.id = ? AND `+visibleRecipe,
		comment.ID, userID, text, comment.CreatedAt, recipeID, userID)
	if err != nil {
		return models.Comment{}, errors.Wrapf(err, "comment on recipe %s", recipeID)
	}
	return comment, nil
}

// ListComments returns the comments of a recipe, oldest first.
func (s *CommentService) ListComments(ctx context.Context, recipeID string) ([]models.Comment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.recipe_id, c.user_id, u.display_name, c.content, c.created_at
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.recipe_id = ?
		ORDER BY c.created_at ASC, c.rowid ASC`, recipeID)
	if err != nil {
		return nil, errors.Wrap(err, "query comments")
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.RecipeID, &c.UserID, &c.DisplayName, &c.Text, &c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan comment")
		}
		comments = append(comments, c)
	}
	return comments, errors.Wrap(rows.Err(), "iterate comments")
}

// DeleteComment removes a comment written by userID.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := execOwned(ctx, s.db, "DELETE FROM comments WHERE id = ? AND user_id = ?", commentID, userID)
	return errors.Wrapf(err, "delete comment %s", commentID)
}
