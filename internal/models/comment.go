package models

import "time"

// Comment is a remark left on a recipe.
type Comment struct {
	ID          string    `json:"id"`
	RecipeID    string    `json:"recipe_id"`
	UserID      string    `json:"user_id"`
	DisplayName *string   `json:"display_name"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}
