package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/isdelr/kochbuch-be/internal/auth"
	"github.com/isdelr/kochbuch-be/internal/database"
	"github.com/isdelr/kochbuch-be/internal/models"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func newTestUserService(t *testing.T, db *sql.DB) *UserService {
	t.Helper()
	hasher, err := auth.NewPasswordHasher(auth.MinCost)
	require.NoError(t, err)
	return NewUserService(db, testTimeout, hasher, NewEventService(db, testTimeout))
}

func mustRegister(t *testing.T, users *UserService, email string) models.User {
	t.Helper()
	u, err := users.Register(context.Background(), email, "secret", nil)
	require.NoError(t, err)
	return u
}

func mustCreateRecipe(t *testing.T, recipes *RecipeService, userID, title string, published bool) string {
	t.Helper()
	ctx := context.Background()
	id, err := recipes.CreateRecipe(ctx, userID, models.RecipeInput{
		Title:        title,
		Ingredients:  "flour, water",
		Instructions: "mix and bake",
	})
	require.NoError(t, err)
	if published {
		require.NoError(t, recipes.SetPublished(ctx, userID, id, true))
	}
	return id
}

func strPtr(s string) *string { return &s }
