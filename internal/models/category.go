package models

// Category groups recipes.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
