package data

import (
	"context"
	"database/sql"
	"mcp-directory/internal/logger"
	"strings"

	"github.com/jmoiron/sqlx"
)

const (
	// defaultPageSize is used when an offset is given without a limit.
	defaultPageSize = 10

	DefaultTagPageSize      = 20
	DefaultCategoryPageSize = 20
	DefaultSearchLimit      = 20
	DefaultFeaturedLimit    = 6
	DefaultTrendingLimit    = 10
	DefaultRecentLimit      = 10
)

const listingColumns = `l.id, l.slug, l.title, l.tagline, l.description, l.type, l.category_id,
	l.author_name, l.author_email, l.repository_url, l.npm_package, l.website_url,
	l.documentation_url, l.license, l.version, l.status, l.featured, l.verified,
	l.downloads_count, l.stars_count, l.view_count, l.click_count,
	l.submitted_by, l.approved_by, l.approved_at, l.created_at, l.updated_at`

// ListingRepository reads approved listings and their related records.
// Only approved listings are ever returned.
type ListingRepository struct {
	db         *sqlx.DB
	dialect    dialect
	categories *CategoryRepository
	tags       *TagRepository
	log        logger.Logger
}

// NewListingRepository creates a new ListingRepository.
func NewListingRepository(db *sqlx.DB, log logger.Logger) *ListingRepository {
	return &ListingRepository{
		db:         db,
		dialect:    dialectFor(db),
		categories: NewCategoryRepository(db),
		tags:       NewTagRepository(db),
		log:        log,
	}
}

// listingQuery accumulates the WHERE clause of a listing select.
type listingQuery struct {
	where []string
	args  []interface{}
}

func approvedListings() *listingQuery {
	return &listingQuery{
		where: []string{"l.status = ?"},
		args:  []interface{}{StatusApproved},
	}
}

func (q *listingQuery) and(clause string, args ...interface{}) {
	q.where = append(q.where, clause)
	q.args = append(q.args, args...)
}

// textSearch adds a web-style text constraint against idx. A query with no
// positive terms matches nothing.
func (q *listingQuery) textSearch(d dialect, idx searchIndex, input string) {
	parsed := parseWebSearch(input)
	if parsed.empty() {
		q.and("1 = 0")
		return
	}
	clause, arg := d.textMatch(idx, parsed)
	q.and(clause, arg)
}

func (q *listingQuery) sql(orderBy, page string, pageArgs []interface{}) (string, []interface{}) {
	query := `SELECT ` + listingColumns + ` FROM mcp_listings l WHERE ` +
		strings.Join(q.where, " AND ") + ` ORDER BY ` + orderBy
	if page != "" {
		query += " " + page
	}
	return query, append(append([]interface{}{}, q.args...), pageArgs...)
}

// pageClause converts limit/offset into a LIMIT clause. A limit alone caps the
// rows; an offset pages by limit, or by defaultPageSize when no limit is set.
func pageClause(limit, offset int) (string, []interface{}) {
	switch {
	case offset > 0:
		if limit <= 0 {
			limit = defaultPageSize
		}
		return "LIMIT ? OFFSET ?", []interface{}{limit, offset}
	case limit > 0:
		return "LIMIT ?", []interface{}{limit}
	default:
		return "", nil
	}
}

const newestFirst = "l.created_at DESC, l.id DESC"

// fetch runs the listing select and attaches rels to every row.
func (r *ListingRepository) fetch(ctx context.Context, op, query string, args []interface{}, rels relationSet) ([]ListingWithRelations, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	var listings []Listing
	if err := r.db.SelectContext(ctx, &listings, r.db.Rebind(query), args...); err != nil {
		return nil, storeErr(op, err)
	}
	return attachRelations(ctx, r.db, op, listings, rels)
}

// ListApproved returns approved listings matching filter, newest first, with
// every relation attached.
func (r *ListingRepository) ListApproved(ctx context.Context, filter ListingFilter) ([]ListingWithRelations, error) {
	q := approvedListings()
	if filter.Type != "" {
		q.and("l.type = ?", filter.Type)
	}
	if filter.CategoryID != "" {
		q.and("l.category_id = ?", filter.CategoryID)
	}
	if tagIDs := uniqueStrings(filter.TagIDs); len(tagIDs) > 0 {
		// A listing must carry every requested tag.
		q.and(`l.id IN (SELECT listing_id FROM listing_tags WHERE tag_id IN (?)
			GROUP BY listing_id HAVING COUNT(DISTINCT tag_id) = ?)`, tagIDs, len(tagIDs))
	}
	if filter.Featured != nil {
		q.and("l.featured = ?", *filter.Featured)
	}
	if strings.TrimSpace(filter.Search) != "" {
		q.textSearch(r.dialect, titleIndex, filter.Search)
	}

	page, pageArgs := pageClause(filter.Limit, filter.Offset)
	query, args := q.sql(newestFirst, page, pageArgs)
	return r.fetch(ctx, "list approved listings", query, args, allRelations)
}

// GetBySlug returns the approved listing with slug and all of its relations.
// Listings in any other moderation state are reported as not found.
func (r *ListingRepository) GetBySlug(ctx context.Context, slug string) (*ListingWithRelations, error) {
	q := approvedListings()
	q.and("l.slug = ?", slug)
	query, args := q.sql(newestFirst, "LIMIT 1", nil)

	listings, err := r.fetch(ctx, "get listing by slug", query, args, allRelations)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, lookupErr("get listing by slug", "listing", slug, sql.ErrNoRows)
	}
	return &listings[0], nil
}

// ListByTag resolves the tag by slug, then returns a page of the approved
// listings carrying it.
func (r *ListingRepository) ListByTag(ctx context.Context, tagSlug string, limit, offset int) (*TagListings, error) {
	tag, err := r.tags.GetBySlug(ctx, tagSlug)
	if err != nil {
		return nil, err
	}

	q := approvedListings()
	q.and("l.id IN (SELECT lt.listing_id FROM listing_tags lt WHERE lt.tag_id = ?)", tag.ID)
	page, pageArgs := rangeClause(limit, offset, DefaultTagPageSize)
	query, args := q.sql(newestFirst, page, pageArgs)

	listings, err := r.fetch(ctx, "list listings by tag", query, args, summaryRelations)
	if err != nil {
		return nil, err
	}
	return &TagListings{Tag: tag, Listings: listings}, nil
}

// ListByCategory resolves the category by slug, then returns a page of its
// approved listings.
func (r *ListingRepository) ListByCategory(ctx context.Context, categorySlug string, limit, offset int) (*CategoryListings, error) {
	category, err := r.categories.GetBySlug(ctx, categorySlug)
	if err != nil {
		return nil, err
	}

	q := approvedListings()
	q.and("l.category_id = ?", category.ID)
	page, pageArgs := rangeClause(limit, offset, DefaultCategoryPageSize)
	query, args := q.sql(newestFirst, page, pageArgs)

	listings, err := r.fetch(ctx, "list listings by category", query, args, summaryRelations)
	if err != nil {
		return nil, err
	}
	return &CategoryListings{Category: category, Listings: listings}, nil
}

// Search matches approved listings against the full-text index over title,
// tagline and description.
func (r *ListingRepository) Search(ctx context.Context, input string, limit int) ([]ListingWithRelations, error) {
	if strings.TrimSpace(input) == "" {
		return []ListingWithRelations{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := approvedListings()
	q.textSearch(r.dialect, contentIndex, input)
	query, args := q.sql(newestFirst, "LIMIT ?", []interface{}{limit})
	return r.fetch(ctx, "search listings", query, args, summaryRelations)
}

// Featured returns the newest featured listings.
func (r *ListingRepository) Featured(ctx context.Context, limit int) ([]ListingWithRelations, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	featured := true
	return r.ListApproved(ctx, ListingFilter{Featured: &featured, Limit: limit})
}

// Trending returns the most viewed listings, ties broken by stars.
func (r *ListingRepository) Trending(ctx context.Context, limit int) ([]ListingWithRelations, error) {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}
	query, args := approvedListings().sql("l.view_count DESC, l.stars_count DESC, "+newestFirst, "LIMIT ?", []interface{}{limit})
	return r.fetch(ctx, "list trending listings", query, args, summaryRelations)
}

// Recent returns the newest listings.
func (r *ListingRepository) Recent(ctx context.Context, limit int) ([]ListingWithRelations, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return r.ListApproved(ctx, ListingFilter{Limit: limit})
}

// IncrementViewCount bumps the view counter. Failures are logged, not returned.
func (r *ListingRepository) IncrementViewCount(ctx context.Context, listingID string) {
	r.increment(ctx, "view_count", listingID)
}

// IncrementClickCount bumps the click counter. Failures are logged, not returned.
func (r *ListingRepository) IncrementClickCount(ctx context.Context, listingID string) {
	r.increment(ctx, "click_count", listingID)
}

// increment updates column in place so concurrent increments never lose writes.
// column is always one of the fixed counter names above.
func (r *ListingRepository) increment(ctx context.Context, column, listingID string) {
	query := `UPDATE mcp_listings SET ` + column + ` = ` + column + ` + 1 WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, listingID); err != nil {
		r.log.With(map[string]interface{}{"listing_id": listingID, "counter": column}).
			Error(err, "Failed to increment listing counter")
	}
}

// rangeClause pages with an explicit size, falling back to def.
func rangeClause(limit, offset, def int) (string, []interface{}) {
	if limit <= 0 {
		limit = def
	}
	if offset < 0 {
		offset = 0
	}
	return "LIMIT ? OFFSET ?", []interface{}{limit, offset}
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
