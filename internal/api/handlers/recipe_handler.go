package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/kochbuch-be/internal/models"
	"github.com/isdelr/kochbuch-be/internal/services"
)

const msgRecipeNotFound = "recipe not found"

// RecipeHandler handles HTTP requests for recipes.
type RecipeHandler struct {
	service services.RecipeServiceProvider
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(service services.RecipeServiceProvider) *RecipeHandler {
	return &RecipeHandler{service: service}
}

// Create stores a new recipe for the authenticated user.
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var payload models.RecipeInput
	if !decode(w, r, &payload) {
		return
	}

	recipeID, err := h.service.CreateRecipe(r.Context(), id.ID, payload)
	if err != nil {
		serviceError(w, r, err, msgRecipeNotFound)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "recipe created",
		"recipeId": recipeID,
	})
}

// ListOwn returns the authenticated user's recipes.
func (h *RecipeHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	recipes, err := h.service.ListOwnRecipes(r.Context(), id.ID)
	if err != nil {
		serviceError(w, r, err, msgRecipeNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"recipes": recipes})
}

// Update replaces a recipe owned by the authenticated user.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var payload models.RecipeInput
	if !decode(w, r, &payload) {
		return
	}

	if err := h.service.UpdateRecipe(r.Context(), id.ID, chi.URLParam(r, "id"), payload); err != nil {
		serviceError(w, r, err, msgRecipeNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "recipe updated"})
}

// Delete removes a recipe owned by the authenticated user.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteRecipe(r.Context(), id.ID, chi.URLParam(r, "id")); err != nil {
		serviceError(w, r, err, msgRecipeNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "recipe deleted"})
}

// Publish makes a recipe visible to everyone.
func (h *RecipeHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, true, "recipe published")
}

// Unpublish withdraws a recipe from public view.
func (h *RecipeHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, false, "recipe unpublished")
}

func (h *RecipeHandler) setPublished(w http.ResponseWriter, r *http.Request, published bool, msg string) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.service.SetPublished(r.Context(), id.ID, chi.URLParam(r, "id"), published); err != nil {
		serviceError(w, r, err, msgRecipeNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// ListPublic returns every published recipe. No authentication required.
func (h *RecipeHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.service.ListPublicRecipes(r.Context())
	if err != nil {
		serviceError(w, r, err, msgRecipeNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"recipes": recipes})
}

// GetPublic returns one published recipe.
func (h *RecipeHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.service.GetPublicRecipe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, r, err, msgRecipeNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"recipe": recipe})
}
