package data

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// CategoryRepository handles database operations for categories.
type CategoryRepository struct {
	DB *sqlx.DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

// List retrieves all categories ordered by their explicit sort order.
func (r *CategoryRepository) List(ctx context.Context) ([]Category, error) {
	categories := []Category{}
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY sort_order ASC, name ASC`
	if err := r.DB.SelectContext(ctx, &categories, query); err != nil {
		return nil, storeErr("list categories", err)
	}
	return categories, nil
}

// GetBySlug finds a category by its slug.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	var category Category
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE slug = ?`
	if err := r.DB.GetContext(ctx, &category, query, slug); err != nil {
		return nil, lookupErr("get category by slug", "category", slug, err)
	}
	return &category, nil
}
