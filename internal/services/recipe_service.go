package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/kochbuch-be/internal/models"
	"github.com/pkg/errors"
)

// RecipeServiceProvider defines the interface for recipe services.
type RecipeServiceProvider interface {
	CreateRecipe(ctx context.Context, userID string, in models.RecipeInput) (string, error)
	ListOwnRecipes(ctx context.Context, userID string) ([]models.Recipe, error)
	UpdateRecipe(ctx context.Context, userID, recipeID string, in models.RecipeInput) error
	DeleteRecipe(ctx context.Context, userID, recipeID string) error
	SetPublished(ctx context.Context, userID, recipeID string, published bool) error
	ListPublicRecipes(ctx context.Context) ([]models.PublicRecipe, error)
	GetPublicRecipe(ctx context.Context, recipeID string) (models.PublicRecipe, error)
}

// RecipeService provides business logic for recipes. Every mutation is
// scoped to the owner in the statement itself.
type RecipeService struct {
	store
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(db *sql.DB, timeout time.Duration) *RecipeService {
	return &RecipeService{store{db: db, timeout: timeout}}
}

const publicRecipeColumns = `r.id, r.user_id, u.display_name, r.title, r.ingredients, r.instructions,
	r.image_url, r.created_at,
	(SELECT group_concat(c.name) FROM recipe_categories rc JOIN categories c ON c.id = rc.category_id
	 WHERE rc.recipe_id = r.id) AS categories`

// CreateRecipe stores a new, unpublished recipe owned by userID.
func (s *RecipeService) CreateRecipe(ctx context.Context, userID string, in models.RecipeInput) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	id := uuid.NewString()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (id, user_id, title, ingredients, instructions, image_url, is_published, created_at)
			VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
			id, userID, in.Title, in.Ingredients, in.Instructions, emptyToNil(in.ImageURL), time.Now().UTC())
		if err != nil {
			return errors.Wrap(mapConstraint(err), "insert recipe")
		}
		return linkCategories(ctx, tx, id, in.CategoryIDs)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListOwnRecipes returns every recipe of userID, published or not.
func (s *RecipeService) ListOwnRecipes(ctx context.Context, userID string) ([]models.Recipe, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.title, r.ingredients, r.instructions, r.image_url, r.is_published, r.created_at,
			(SELECT group_concat(c.name) FROM recipe_categories rc JOIN categories c ON c.id = rc.category_id
			 WHERE rc.recipe_id = r.id)
		FROM recipes r WHERE r.user_id = ? ORDER BY r.created_at DESC, r.rowid DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query own recipes")
	}
	defer rows.Close()

	recipes := []models.Recipe{}
	for rows.Next() {
		var (
			r          models.Recipe
			categories sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Title, &r.Ingredients, &r.Instructions, &r.ImageURL,
			&r.IsPublished, &r.CreatedAt, &categories); err != nil {
			return nil, errors.Wrap(err, "scan recipe")
		}
		r.Categories = splitCategories(categories)
		recipes = append(recipes, r)
	}
	return recipes, errors.Wrap(rows.Err(), "iterate recipes")
}

// UpdateRecipe replaces the content and categories of a recipe owned by
// userID. The owner-scoped UPDATE runs first; if it matches nothing the
// transaction is rolled back and ErrNotFound returned.
func (s *RecipeService) UpdateRecipe(ctx context.Context, userID, recipeID string, in models.RecipeInput) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		err := execOwned(ctx, tx,
			`UPDATE recipes SET title = ?, ingredients = ?, instructions = ?, image_url = ?
			WHERE id = ? AND user_id = ?`,
			in.Title, in.Ingredients, in.Instructions, emptyToNil(in.ImageURL), recipeID, userID)
		if err != nil {
			return errors.Wrapf(err, "update recipe %s", recipeID)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_categories WHERE recipe_id = ?", recipeID); err != nil {
			return errors.Wrap(err, "unlink categories")
		}
		return linkCategories(ctx, tx, recipeID, in.CategoryIDs)
	})
}

// DeleteRecipe removes a recipe owned by userID.
func (s *RecipeService) DeleteRecipe(ctx context.Context, userID, recipeID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := execOwned(ctx, s.db, "DELETE FROM recipes WHERE id = ? AND user_id = ?", recipeID, userID)
	return errors.Wrapf(err, "delete recipe %s", recipeID)
}

// SetPublished publishes or withdraws a recipe owned by userID.
func (s *RecipeService) SetPublished(ctx context.Context, userID, recipeID string, published bool) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := execOwned(ctx, s.db, "UPDATE recipes SET is_published = ? WHERE id = ? AND user_id = ?", published, recipeID, userID)
	return errors.Wrapf(err, "publish recipe %s", recipeID)
}

// ListPublicRecipes returns all published recipes, newest first.
func (s *RecipeService) ListPublicRecipes(ctx context.Context) ([]models.PublicRecipe, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+publicRecipeColumns+`
		FROM recipes r JOIN users u ON u.id = r.user_id
		WHERE r.is_published = 1
		ORDER BY r.created_at DESC, r.rowid DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "query public recipes")
	}
	return scanPublicRecipes(rows)
}

// GetPublicRecipe returns one published recipe. Unpublished and missing
// recipes are both ErrNotFound.
func (s *RecipeService) GetPublicRecipe(ctx context.Context, recipeID string) (models.PublicRecipe, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+publicRecipeColumns+`
		FROM recipes r JOIN users u ON u.id = r.user_id
		WHERE r.id = ? AND r.is_published = 1`, recipeID)
	if err != nil {
		return models.PublicRecipe{}, errors.Wrap(err, "query public recipe")
	}
	recipes, err := scanPublicRecipes(rows)
	if err != nil {
		return models.PublicRecipe{}, err
	}
	if len(recipes) == 0 {
		return models.PublicRecipe{}, errors.Wrapf(ErrNotFound, "recipe %s", recipeID)
	}
	return recipes[0], nil
}

func (s *RecipeService) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit tx")
}

func linkCategories(ctx context.Context, tx *sql.Tx, recipeID string, categoryIDs []int64) error {
	seen := make(map[int64]bool, len(categoryIDs))
	for _, catID := range categoryIDs {
		if seen[catID] {
			continue
		}
		seen[catID] = true
		_, err := tx.ExecContext(ctx, "INSERT INTO recipe_categories (recipe_id, category_id) VALUES (?, ?)", recipeID, catID)
		if err != nil {
			return errors.Wrapf(mapConstraint(err), "link category %d", catID)
		}
	}
	return nil
}

func scanPublicRecipes(rows *sql.Rows) ([]models.PublicRecipe, error) {
	defer rows.Close()

	recipes := []models.PublicRecipe{}
	for rows.Next() {
		var (
			r          models.PublicRecipe
			categories sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.DisplayName, &r.Title, &r.Ingredients, &r.Instructions,
			&r.ImageURL, &r.CreatedAt, &categories); err != nil {
			return nil, errors.Wrap(err, "scan public recipe")
		}
		r.Categories = splitCategories(categories)
		recipes = append(recipes, r)
	}
	return recipes, errors.Wrap(rows.Err(), "iterate public recipes")
}

func splitCategories(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return []string{}
	}
	names := strings.Split(s.String, ",")
	sort.Strings(names)
	return names
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
