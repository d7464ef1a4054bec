package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/isdelr/kochbuch-be/internal/models"
	"github.com/pkg/errors"
)

// FavoriteServiceProvider defines the interface for favorite services.
type FavoriteServiceProvider interface {
	AddFavorite(ctx context.Context, userID, recipeID string) error
	ListFavorites(ctx context.Context, userID string) ([]models.PublicRecipe, error)
	RemoveFavorite(ctx context.Context, userID, recipeID string) error
}

// FavoriteService manages the favorite list of each user.
type FavoriteService struct {
	store
}

// NewFavoriteService creates a new FavoriteService.
func NewFavoriteService(db *sql.DB, timeout time.Duration) *FavoriteService {
	return &FavoriteService{store{db: db, timeout: timeout}}
}

// AddFavorite marks a visible recipe as favorite. Adding it twice is not an
// error.
func (s *FavoriteService) AddFavorite(ctx context.Context, userID, recipeID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := execOwned(ctx, s.db,
		`INSERT INTO favorites (user_id, recipe_id, created_at)
		SELECT ?, r.id, ? FROM recipes r WHERE r.id = ? AND `+visibleRecipe+`
		ON CONFLICT (user_id, recipe_id) DO NOTHING`,
		userID, time.Now().UTC(), recipeID, userID)
	if !errors.Is(err, ErrNotFound) {
		return errors.Wrapf(err, "favorite recipe %s", recipeID)
	}

	// nothing inserted: either already a favorite or not visible
	var exists bool
	err = s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = ? AND recipe_id = ?)", userID, recipeID).Scan(&exists)
	if err != nil {
		return errors.Wrap(err, "lookup favorite")
	}
	if !exists {
		return errors.Wrapf(ErrNotFound, "recipe %s", recipeID)
	}
	return nil
}

// ListFavorites returns the favorites of userID that are still visible to them.
func (s *FavoriteService) ListFavorites(ctx context.Context, userID string) ([]models.PublicRecipe, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+publicRecipeColumns+`
		FROM favorites f
		JOIN recipes r ON r.id = f.recipe_id
		JOIN users u ON u.id = r.user_id
		WHERE f.user_id = ? AND `+visibleRecipe+`
		ORDER BY f.created_at DESC, f.rowid DESC`, userID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query favorites")
	}
	return scanPublicRecipes(rows)
}

// RemoveFavorite drops a recipe from the favorites of userID.
func (s *FavoriteService) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := execOwned(ctx, s.db, "DELETE FROM favorites WHERE user_id = ? AND recipe_id = ?", userID, recipeID)
	return errors.Wrapf(err, "unfavorite recipe %s", recipeID)
}
