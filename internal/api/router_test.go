package api

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/isdelr/kochbuch-be/internal/auth"
	"github.com/isdelr/kochbuch-be/internal/database"
	"github.com/isdelr/kochbuch-be/internal/services"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	denyList, err := auth.NewDenyList(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { denyList.Close() })

	tokens, err := auth.NewTokenManager(testSecret, auth.WithRevocationChecker(denyList))
	require.NoError(t, err)
	hasher, err := auth.NewPasswordHasher(auth.MinCost)
	require.NoError(t, err)

	timeout := 5 * time.Second
	events := services.NewEventService(db, timeout)
	svc := Services{
		Users:      services.NewUserService(db, timeout, hasher, events),
		Events:     events,
		Recipes:    services.NewRecipeService(db, timeout),
		Comments:   services.NewCommentService(db, timeout),
		Favorites:  services.NewFavoriteService(db, timeout),
		Categories: services.NewCategoryService(db, timeout),
	}
	return NewRouter(svc, tokens, denyList, []string{"http://localhost:3000"})
}

func register(t *testing.T, h http.Handler, email, password string) authResponse {
	t.Helper()
	var resp authResponse
	apitest.New().
		Handler(h).
		Post("/api/register").
		JSON(map[string]string{"email": email, "password": password}).
		Expect(t).
		Status(http.StatusCreated).
		End().
		JSON(&resp)
	require.NotEmpty(t, resp.Token)
	return resp
}

func login(t *testing.T, h http.Handler, email, password string) authResponse {
	t.Helper()
	var resp authResponse
	apitest.New().
		Handler(h).
		Post("/api/login").
		JSON(map[string]string{"email": email, "password": password}).
		Expect(t).
		Status(http.StatusOK).
		End().
		JSON(&resp)
	require.NotEmpty(t, resp.Token)
	return resp
}

func bearer(token string) string { return "Bearer " + token }

func TestRouter_Health(t *testing.T) {
	apitest.New().
		Handler(newTestRouter(t)).
		Get("/").
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestRouter_RegisterLoginProtected(t *testing.T) {
	h := newTestRouter(t)

	var registered authResponse
	apitest.New().
		Handler(h).
		Post("/api/register").
		JSON(`{"email": "a@a.com", "password": "123"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Present("$.token")).
		Assert(jsonpath.Equal("$.user.email", "a@a.com")).
		Assert(jsonpath.NotPresent("$.user.password_hash")).
		End().
		JSON(&registered)

	var loggedIn authResponse
	apitest.New().
		Handler(h).
		Post("/api/login").
		JSON(`{"email": "a@a.com", "password": "123"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Present("$.token")).
		Assert(jsonpath.Equal("$.user.id", registered.User.ID)).
		End().
		JSON(&loggedIn)

	apitest.New().
		Handler(h).
		Get("/api/protected").
		Header("Authorization", bearer(loggedIn.Token)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.user.id", registered.User.ID)).
		Assert(jsonpath.Equal("$.user.email", "a@a.com")).
		End()

	apitest.New().
		Handler(h).
		Get("/api/protected").
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Present("$.error")).
		End()
}

func TestRouter_RegisterErrors(t *testing.T) {
	h := newTestRouter(t)
	register(t, h, "a@a.com", "123")

	apitest.New().
		Handler(h).
		Post("/api/register").
		JSON(`{"email": "a@a.com", "password": "456"}`).
		Expect(t).
		Status(http.StatusConflict).
		Assert(jsonpath.Equal("$.error", "email already registered")).
		End()

	apitest.New().
		Handler(h).
		Post("/api/register").
		JSON(`{"email": "b@b.com"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.error", "password is required")).
		End()

	apitest.New().
		Handler(h).
		Post("/api/register").
		Body(`{not json`).
		Header("Content-Type", "application/json").
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestRouter_LoginErrors(t *testing.T) {
	h := newTestRouter(t)
	register(t, h, "a@a.com", "123")

	for _, body := range []string{
		`{"email": "a@a.com", "password": "wrong"}`,
		`{"email": "nobody@a.com", "password": "123"}`,
	} {
		apitest.New().
			Handler(h).
			Post("/api/login").
			JSON(body).
			Expect(t).
			Status(http.StatusUnauthorized).
			Assert(jsonpath.Equal("$.error", "invalid credentials")).
			End()
	}

	apitest.New().
		Handler(h).
		Post("/api/login").
		JSON(`{"email": "a@a.com"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestRouter_GuardStates(t *testing.T) {
	h := newTestRouter(t)

	apitest.New().
		Handler(h).
		Get("/api/recipes").
		Header("Authorization", "Token xyz").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	apitest.New().
		Handler(h).
		Get("/api/recipes").
		Header("Authorization", "Bearer invalid").
		Expect(t).
		Status(http.StatusForbidden).
		End()
}

func TestRouter_Logout(t *testing.T) {
	h := newTestRouter(t)
	user := register(t, h, "a@a.com", "123")

	apitest.New().
		Handler(h).
		Post("/api/logout").
		Header("Authorization", bearer(user.Token)).
		Expect(t).
		Status(http.StatusOK).
		End()

	apitest.New().
		Handler(h).
		Get("/api/protected").
		Header("Authorization", bearer(user.Token)).
		Expect(t).
		Status(http.StatusForbidden).
		End()
}

func TestRouter_Profile(t *testing.T) {
	h := newTestRouter(t)
	user := register(t, h, "a@a.com", "123")

	apitest.New().
		Handler(h).
		Put("/api/profile").
		Header("Authorization", bearer(user.Token)).
		JSON(`{"display_name": "Anna", "avatar_url": "https://img.example/a.png"}`).
		Expect(t).
		Status(http.StatusOK).
		End()

	apitest.New().
		Handler(h).
		Get("/api/profile").
		Header("Authorization", bearer(user.Token)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.user.display_name", "Anna")).
		Assert(jsonpath.Equal("$.user.avatar_url", "https://img.example/a.png")).
		Assert(jsonpath.NotPresent("$.user.password_hash")).
		End()

	apitest.New().
		Handler(h).
		Get("/api/profile/activity").
		Header("Authorization", bearer(user.Token)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.events", 1)).
		Assert(jsonpath.Equal("$.events[0].type", "user.register")).
		End()

	apitest.New().
		Handler(h).
		Get("/api/profile/activity").
		Query("limit", "zero").
		Header("Authorization", bearer(user.Token)).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestRouter_ChangePassword(t *testing.T) {
	h := newTestRouter(t)
	user := register(t, h, "a@a.com", "123")
	otherSession := login(t, h, "a@a.com", "123")
	bystander := register(t, h, "b@b.com", "123")

	apitest.New().
		Handler(h).
		Put("/api/profile/password").
		Header("Authorization", bearer(user.Token)).
		JSON(`{"current_password": "wrong", "new_password": "456"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	var changed struct {
		Token string `json:"token"`
	}
	apitest.New().
		Handler(h).
		Put("/api/profile/password").
		Header("Authorization", bearer(user.Token)).
		JSON(`{"current_password": "123", "new_password": "456"}`).
		Expect(t).
		Status(http.StatusOK).
		End().
		JSON(&changed)
	require.NotEmpty(t, changed.Token)

	// every earlier token of the account is void, including other sessions
	for _, token := range []string{user.Token, otherSession.Token} {
		apitest.New().
			Handler(h).
			Get("/api/protected").
			Header("Authorization", bearer(token)).
			Expect(t).
			Status(http.StatusForbidden).
			End()
	}

	for _, token := range []string{changed.Token, bystander.Token} {
		apitest.New().
			Handler(h).
			Get("/api/protected").
			Header("Authorization", bearer(token)).
			Expect(t).
			Status(http.StatusOK).
			End()
	}

	fresh := login(t, h, "a@a.com", "456")
	apitest.New().
		Handler(h).
		Get("/api/protected").
		Header("Authorization", bearer(fresh.Token)).
		Expect(t).
		Status(http.StatusOK).
		End()

	apitest.New().
		Handler(h).
		Post("/api/login").
		JSON(`{"email": "a@a.com", "password": "123"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestRouter_RecipeOwnership(t *testing.T) {
	h := newTestRouter(t)
	owner := register(t, h, "a@a.com", "123")
	intruder := register(t, h, "b@b.com", "123")

	var created struct {
		RecipeID string `json:"recipeId"`
	}
	apitest.New().
		Handler(h).
		Post("/api/recipes").
		Header("Authorization", bearer(owner.Token)).
		JSON(`{"title": "Pancakes", "ingredients": "eggs", "instructions": "fry", "categoryIds": [1]}`).
		Expect(t).
		Status(http.StatusCreated).
		End().
		JSON(&created)
	require.NotEmpty(t, created.RecipeID)
	path := "/api/recipes/" + created.RecipeID

	apitest.New().
		Handler(h).
		Post("/api/recipes").
		Header("Authorization", bearer(owner.Token)).
		JSON(`{"title": "No ingredients"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()

	for _, call := range []*apitest.Request{
		apitest.New().Handler(h).Put(path).JSON(`{"title": "Hijacked", "ingredients": "x", "instructions": "y"}`),
		apitest.New().Handler(h).Put(path + "/publish"),
		apitest.New().Handler(h).Delete(path),
	} {
		call.Header("Authorization", bearer(intruder.Token)).
			Expect(t).
			Status(http.StatusNotFound).
			End()
	}

	apitest.New().
		Handler(h).
		Put("/api/recipes/does-not-exist").
		Header("Authorization", bearer(owner.Token)).
		JSON(`{"title": "a", "ingredients": "b", "instructions": "c"}`).
		Expect(t).
		Status(http.StatusNotFound).
		End()

	apitest.New().
		Handler(h).
		Get("/api/recipes").
		Header("Authorization", bearer(owner.Token)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.recipes", 1)).
		Assert(jsonpath.Equal("$.recipes[0].title", "Pancakes")).
		Assert(jsonpath.Equal("$.recipes[0].is_published", false)).
		End()

	apitest.New().
		Handler(h).
		Get("/api/recipes").
		Header("Authorization", bearer(intruder.Token)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.recipes", 0)).
		End()
}

func TestRouter_PublicRecipes(t *testing.T) {
	h := newTestRouter(t)
	owner := register(t, h, "a@a.com", "123")

	var created struct {
		RecipeID string `json:"recipeId"`
	}
	apitest.New().
		Handler(h).
		Post("/api/recipes").
		Header("Authorization", bearer(owner.Token)).
		JSON(`{"title": "Soup", "ingredients": "water", "instructions": "boil", "categoryIds": [4]}`).
		Expect(t).
		Status(http.StatusCreated).
		End().
		JSON(&created)
	publicPath := "/api/public-recipes/" + created.RecipeID

	apitest.New().
		Handler(h).
		Get(publicPath).
		Expect(t).
		Status(http.StatusNotFound).
		End()

	apitest.New().
		Handler(h).
		Put("/api/recipes/"+created.RecipeID+"/publish").
		Header("Authorization", bearer(owner.Token)).
		Expect(t).
		Status(http.StatusOK).
		End()

	apitest.New().
		Handler(h).
		Get(publicPath).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.recipe.title", "Soup")).
		Assert(jsonpath.Equal("$.recipe.categories[0]", "Vegetarian")).
		Assert(jsonpath.NotPresent("$.recipe.email")).
		End()

	apitest.New().
		Handler(h).
		Get("/api/public-recipes").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.recipes", 1)).
		End()

	apitest.New().
		Handler(h).
		Get("/api/categories").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.categories", 5)).
		End()
}

func TestRouter_CommentsAndFavorites(t *testing.T) {
	h := newTestRouter(t)
	owner := register(t, h, "a@a.com", "123")
	guest := register(t, h, "b@b.com", "123")

	var created struct {
		RecipeID string `json:"recipeId"`
	}
	apitest.New().
		Handler(h).
		Post("/api/recipes").
		Header("Authorization", bearer(owner.Token)).
		JSON(`{"title": "Draft", "ingredients": "x", "instructions": "y"}`).
		Expect(t).
		Status(http.StatusCreated).
		End().
		JSON(&created)
	recipeID := created.RecipeID

	// unpublished: invisible to the guest
	apitest.New().
		Handler(h).
		Post("/api/comments/"+recipeID).
		Header("Authorization", bearer(guest.Token)).
		JSON(`{"text": "hi"}`).
		Expect(t).
		Status(http.StatusNotFound).
		End()
	apitest.New().
		Handler(h).
		Post("/api/favorites/"+recipeID).
		Header("Authorization", bearer(guest.Token)).
		Expect(t).
		Status(http.StatusNotFound).
		End()

	apitest.New().
		Handler(h).
		Put("/api/recipes/"+recipeID+"/publish").
		Header("Authorization", bearer(owner.Token)).
		Expect(t).
		Status(http.StatusOK).
		End()

	apitest.New().
		Handler(h).
		Post("/api/comments/"+recipeID).
		Header("Authorization", bearer(guest.Token)).
		JSON(`{"text": "   "}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()

	var comment struct {
		Comment struct {
			ID string `json:"id"`
		} `json:"comment"`
	}
	apitest.New().
		Handler(h).
		Post("/api/comments/"+recipeID).
		Header("Authorization", bearer(guest.Token)).
		JSON(`{"text": "Delicious"}`).
		Expect(t).
		Status(http.StatusCreated).
		End().
		JSON(&comment)

	apitest.New().
		Handler(h).
		Get("/api/comments/"+recipeID).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.comments", 1)).
		Assert(jsonpath.Equal("$.comments[0].text", "Delicious")).
		Assert(jsonpath.NotPresent("$.comments[0].email")).
		End()

	apitest.New().
		Handler(h).
		Delete("/api/comments/"+comment.Comment.ID).
		Header("Authorization", bearer(owner.Token)).
		Expect(t).
		Status(http.StatusNotFound).
		End()
	apitest.New().
		Handler(h).
		Delete("/api/comments/"+comment.Comment.ID).
		Header("Authorization", bearer(guest.Token)).
		Expect(t).
		Status(http.StatusOK).
		End()

	for i := 0; i < 2; i++ {
		apitest.New().
			Handler(h).
			Post("/api/favorites/"+recipeID).
			Header("Authorization", bearer(guest.Token)).
			Expect(t).
			Status(http.StatusOK).
			End()
	}
	apitest.New().
		Handler(h).
		Get("/api/favorites").
		Header("Authorization", bearer(guest.Token)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.recipes", 1)).
		End()
	apitest.New().
		Handler(h).
		Delete("/api/favorites/"+recipeID).
		Header("Authorization", bearer(guest.Token)).
		Expect(t).
		Status(http.StatusOK).
		End()
	apitest.New().
		Handler(h).
		Delete("/api/favorites/"+recipeID).
		Header("Authorization", bearer(guest.Token)).
		Expect(t).
		Status(http.StatusNotFound).
		End()
}

func TestRouter_ErrorBodiesAreJSON(t *testing.T) {
	h := newTestRouter(t)

	result := apitest.New().
		Handler(h).
		Get("/api/public-recipes/missing").
		Expect(t).
		Status(http.StatusNotFound).
		Header("Content-Type", "application/json").
		End()
	assert.NotNil(t, result.Response)
}
