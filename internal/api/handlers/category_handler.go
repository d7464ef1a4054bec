package handlers

import (
	"net/http"

	"github.com/isdelr/kochbuch-be/internal/services"
)

// CategoryHandler serves the category catalogue.
type CategoryHandler struct {
	service services.CategoryServiceProvider
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(service services.CategoryServiceProvider) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// List returns all categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		serviceError(w, r, err, "category not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}
