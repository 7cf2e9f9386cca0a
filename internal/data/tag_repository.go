package data

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// TagRepository handles database operations for tags.
type TagRepository struct {
	DB *sqlx.DB
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{DB: db}
}

// List retrieves all tags, most used first.
func (r *TagRepository) List(ctx context.Context) ([]Tag, error) {
	tags := []Tag{}
	query := `SELECT ` + tagColumns + ` FROM tags ORDER BY usage_count DESC, name ASC`
	if err := r.DB.SelectContext(ctx, &tags, query); err != nil {
		return nil, storeErr("list tags", err)
	}
	return tags, nil
}

// GetBySlug finds a tag by its slug.
func (r *TagRepository) GetBySlug(ctx context.Context, slug string) (*Tag, error) {
	var tag Tag
	query := `SELECT ` + tagColumns + ` FROM tags WHERE slug = ?`
	if err := r.DB.GetContext(ctx, &tag, query, slug); err != nil {
		return nil, lookupErr("get tag by slug", "tag", slug, err)
	}
	return &tag, nil
}
