package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/kochbuch-be/internal/services"
)

// FavoriteHandler handles HTTP requests for the favorite list.
type FavoriteHandler struct {
	service services.FavoriteServiceProvider
}

// NewFavoriteHandler creates a new FavoriteHandler.
func NewFavoriteHandler(service services.FavoriteServiceProvider) *FavoriteHandler {
	return &FavoriteHandler{service: service}
}

// Add marks a recipe as favorite.
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.service.AddFavorite(r.Context(), id.ID, chi.URLParam(r, "recipeId")); err != nil {
		serviceError(w, r, err, msgRecipeNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "added to favorites"})
}

// List returns the authenticated user's favorites.
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	recipes, err := h.service.ListFavorites(r.Context(), id.ID)
	if err != nil {
		serviceError(w, r, err, msgRecipeNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"recipes": recipes})
}

// Remove drops a recipe from the favorites.
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveFavorite(r.Context(), id.ID, chi.URLParam(r, "recipeId")); err != nil {
		serviceError(w, r, err, "favorite not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "removed from favorites"})
}
