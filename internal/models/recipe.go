package models

import "time"

// Recipe is a recipe as seen by its owner.
type Recipe struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Ingredients  string    `json:"ingredients"`
	Instructions string    `json:"instructions"`
	ImageURL     *string   `json:"image_url"`
	IsPublished  bool      `json:"is_published"`
	Categories   []string  `json:"categories"`
	CreatedAt    time.Time `json:"created_at"`
}

// RecipeInput carries the writable fields of a recipe.
type RecipeInput struct {
	Title        string  `json:"title" validate:"required"`
	Ingredients  string  `json:"ingredients" validate:"required"`
	Instructions string  `json:"instructions" validate:"required"`
	ImageURL     *string `json:"image_url" validate:"omitempty,max=500"`
	CategoryIDs  []int64 `json:"categoryIds" validate:"omitempty,dive,gt=0"`
}

// PublicRecipe is a published recipe with its author. The author's email is
// never part of it.
type PublicRecipe struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	DisplayName  *string   `json:"display_name"`
	Title        string    `json:"title"`
	Ingredients  string    `json:"ingredients"`
	Instructions string    `json:"instructions"`
	ImageURL     *string   `json:"image_url"`
	Categories   []string  `json:"categories"`
	CreatedAt    time.Time `json:"created_at"`
}
