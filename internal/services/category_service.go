package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/isdelr/kochbuch-be/internal/models"
	"github.com/pkg/errors"
)

// CategoryServiceProvider defines the interface for category services.
type CategoryServiceProvider interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// CategoryService reads the category catalogue.
type CategoryService struct {
	store
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(db *sql.DB, timeout time.Duration) *CategoryService {
	return &CategoryService{store{db: db, timeout: timeout}}
}

// ListCategories returns all categories sorted by name.
func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(err, "query categories")
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, errors.Wrap(err, "scan category")
		}
		categories = append(categories, c)
	}
	return categories, errors.Wrap(rows.Err(), "iterate categories")
}
