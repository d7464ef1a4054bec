package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/kochbuch-be/internal/services"
)

// CommentHandler handles HTTP requests for recipe comments.
type CommentHandler struct {
	service services.CommentServiceProvider
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(service services.CommentServiceProvider) *CommentHandler {
	return &CommentHandler{service: service}
}

// CommentPayload defines the structure for new comments.
type CommentPayload struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// Create adds a comment to a recipe.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var payload CommentPayload
	if !decode(w, r, &payload) {
		return
	}

	comment, err := h.service.AddComment(r.Context(), id.ID, chi.URLParam(r, "recipeId"), payload.Text)
	if err != nil {
		serviceError(w, r, err, msgRecipeNotFound)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "comment saved",
		"comment": comment,
	})
}

// List returns the comments of a recipe. No authentication required.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListComments(r.Context(), chi.URLParam(r, "recipeId"))
	if err != nil {
		serviceError(w, r, err, msgRecipeNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"comments": comments})
}

// Delete removes a comment written by the authenticated user.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteComment(r.Context(), id.ID, chi.URLParam(r, "commentId")); err != nil {
		serviceError(w, r, err, "comment not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "comment deleted"})
}
