package data

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Seeder writes fixture data into the store. It backs the seed command and
// the repository tests; the public read path never writes through it.
type Seeder struct {
	db *sqlx.DB
}

// NewSeeder creates a new Seeder.
func NewSeeder(db *sqlx.DB) *Seeder {
	return &Seeder{db: db}
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC().Truncate(time.Second)
	if created.IsZero() {
		*created = now
	}
	if updated != nil && updated.IsZero() {
		*updated = *created
	}
}

// InsertCategory inserts c, assigning an id when it has none.
func (s *Seeder) InsertCategory(ctx context.Context, c *Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	stamp(&c.CreatedAt, &c.UpdatedAt)
	query := `INSERT INTO categories (id, slug, name, description, icon, parent_id, seo_title, seo_description, sort_order, created_at, updated_at)
		VALUES (:id, :slug, :name, :description, :icon, :parent_id, :seo_title, :seo_description, :sort_order, :created_at, :updated_at)`
	if _, err := s.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("failed to insert category %q: %w", c.Slug, err)
	}
	return nil
}

// InsertTag inserts t, assigning an id when it has none.
func (s *Seeder) InsertTag(ctx context.Context, t *Tag) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	stamp(&t.CreatedAt, nil)
	query := `INSERT INTO tags (id, slug, name, description, color, usage_count, created_at)
		VALUES (:id, :slug, :name, :description, :color, :usage_count, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, query, t); err != nil {
		return fmt.Errorf("failed to insert tag %q: %w", t.Slug, err)
	}
	return nil
}

// InsertListing inserts the listing, links it to l.Tags (which must already
// exist) and inserts its child records, all in one transaction.
func (s *Seeder) InsertListing(ctx context.Context, l *ListingWithRelations) error {
	if l.Version != "" {
		if _, err := semver.NewVersion(l.Version); err != nil {
			return fmt.Errorf("listing %q has invalid version %q: %w", l.Slug, l.Version, err)
		}
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = StatusPending
	}
	stamp(&l.CreatedAt, &l.UpdatedAt)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO mcp_listings (id, slug, title, tagline, description, type, category_id,
			author_name, author_email, repository_url, npm_package, website_url, documentation_url,
			license, version, status, featured, verified, downloads_count, stars_count, view_count,
			click_count, submitted_by, approved_by, approved_at, created_at, updated_at)
		VALUES (:id, :slug, :title, :tagline, :description, :type, :category_id,
			:author_name, :author_email, :repository_url, :npm_package, :website_url, :documentation_url,
			:license, :version, :status, :featured, :verified, :downloads_count, :stars_count, :view_count,
			:click_count, :submitted_by, :approved_by, :approved_at, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, &l.Listing); err != nil {
		return fmt.Errorf("failed to insert listing %q: %w", l.Slug, err)
	}

	for _, tag := range l.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO listing_tags (id, listing_id, tag_id, created_at) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), l.ID, tag.ID, l.CreatedAt); err != nil {
			return fmt.Errorf("failed to tag listing %q with %q: %w", l.Slug, tag.Slug, err)
		}
	}

	for i := range l.CodeExamples {
		c := &l.CodeExamples[i]
		prepareChild(&c.ID, &c.ListingID, l.ID)
		stamp(&c.CreatedAt, &c.UpdatedAt)
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO code_examples (id, listing_id, title, description, language, framework, code, sort_order, created_at, updated_at)
			VALUES (:id, :listing_id, :title, :description, :language, :framework, :code, :sort_order, :created_at, :updated_at)`, c); err != nil {
			return fmt.Errorf("failed to insert code example for %q: %w", l.Slug, err)
		}
	}
	for i := range l.FAQs {
		f := &l.FAQs[i]
		prepareChild(&f.ID, &f.ListingID, l.ID)
		stamp(&f.CreatedAt, &f.UpdatedAt)
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO faqs (id, listing_id, question, answer, sort_order, created_at, updated_at)
			VALUES (:id, :listing_id, :question, :answer, :sort_order, :created_at, :updated_at)`, f); err != nil {
			return fmt.Errorf("failed to insert faq for %q: %w", l.Slug, err)
		}
	}
	for i := range l.UseCases {
		u := &l.UseCases[i]
		prepareChild(&u.ID, &u.ListingID, l.ID)
		stamp(&u.CreatedAt, nil)
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO use_cases (id, listing_id, title, description, industry, example, sort_order, created_at)
			VALUES (:id, :listing_id, :title, :description, :industry, :example, :sort_order, :created_at)`, u); err != nil {
			return fmt.Errorf("failed to insert use case for %q: %w", l.Slug, err)
		}
	}
	for i := range l.SocialLinks {
		sl := &l.SocialLinks[i]
		prepareChild(&sl.ID, &sl.ListingID, l.ID)
		stamp(&sl.CreatedAt, &sl.UpdatedAt)
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO social_links (id, listing_id, platform, url, metrics, created_at, updated_at)
			VALUES (:id, :listing_id, :platform, :url, :metrics, :created_at, :updated_at)`, sl); err != nil {
			return fmt.Errorf("failed to insert social link for %q: %w", l.Slug, err)
		}
	}
	for i := range l.Screenshots {
		sc := &l.Screenshots[i]
		prepareChild(&sc.ID, &sc.ListingID, l.ID)
		stamp(&sc.CreatedAt, nil)
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO screenshots (id, listing_id, url, alt_text, caption, sort_order, created_at)
			VALUES (:id, :listing_id, :url, :alt_text, :caption, :sort_order, :created_at)`, sc); err != nil {
			return fmt.Errorf("failed to insert screenshot for %q: %w", l.Slug, err)
		}
	}
	for i := range l.Promotions {
		p := &l.Promotions[i]
		prepareChild(&p.ID, &p.ListingID, l.ID)
		stamp(&p.CreatedAt, nil)
		if p.StartDate.IsZero() {
			p.StartDate = p.CreatedAt
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO promotions (id, listing_id, type, priority, start_date, end_date, badge_text, created_at)
			VALUES (:id, :listing_id, :type, :priority, :start_date, :end_date, :badge_text, :created_at)`, p); err != nil {
			return fmt.Errorf("failed to insert promotion for %q: %w", l.Slug, err)
		}
	}

	return tx.Commit()
}

func prepareChild(id, listingID *string, parent string) {
	if *id == "" {
		*id = uuid.NewString()
	}
	*listingID = parent
}
