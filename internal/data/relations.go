package data

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// relationSet selects which related records are attached to listings.
type relationSet uint16

const (
	relCategory relationSet = 1 << iota
	relTags
	relCodeExamples
	relFAQs
	relUseCases
	relSocialLinks
	relScreenshots
	relPromotions

	summaryRelations = relCategory | relTags
	allRelations     = summaryRelations | relCodeExamples | relFAQs | relUseCases |
		relSocialLinks | relScreenshots | relPromotions
)

const (
	categoryColumns = `id, slug, name, description, icon, parent_id, seo_title, seo_description, sort_order, created_at, updated_at`
	tagColumns      = `id, slug, name, description, color, usage_count, created_at`
)

// listingTagRow is one row of the listing_tags join carrying its tag.
type listingTagRow struct {
	ListingID string `db:"listing_id"`
	Tag
}

// unwrapTags flattens join rows into the tag list of each listing.
// Rows whose tag could not be resolved are dropped.
func unwrapTags(rows []listingTagRow) map[string][]Tag {
	out := make(map[string][]Tag)
	for _, row := range rows {
		if row.Tag.ID == "" {
			continue
		}
		out[row.ListingID] = append(out[row.ListingID], row.Tag)
	}
	return out
}

// selectIn runs query with its single IN (?) placeholder expanded to ids.
func selectIn[T any](ctx context.Context, db *sqlx.DB, query string, ids []string) ([]T, error) {
	q, args, err := sqlx.In(query, ids)
	if err != nil {
		return nil, err
	}
	var rows []T
	if err := db.SelectContext(ctx, &rows, db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// groupByListing indexes child records by the listing that owns them.
func groupByListing[T any](rows []T, listingID func(T) string) map[string][]T {
	out := make(map[string][]T)
	for _, row := range rows {
		id := listingID(row)
		out[id] = append(out[id], row)
	}
	return out
}

// attachRelations loads the requested relations for listings in one batched
// query per relation. Any failed query fails the whole call.
func attachRelations(ctx context.Context, db *sqlx.DB, op string, listings []Listing, rels relationSet) ([]ListingWithRelations, error) {
	out := make([]ListingWithRelations, len(listings))
	if len(listings) == 0 {
		return out, nil
	}

	ids := make([]string, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}

	var (
		categories   map[string]*Category
		tags         map[string][]Tag
		codeExamples map[string][]CodeExample
		faqs         map[string][]FAQ
		useCases     map[string][]UseCase
		socialLinks  map[string][]SocialLink
		screenshots  map[string][]Screenshot
		promotions   map[string][]Promotion
	)

	if rels&relCategory != 0 {
		var categoryIDs []string
		seen := make(map[string]bool)
		for _, l := range listings {
			if l.CategoryID != nil && !seen[*l.CategoryID] {
				seen[*l.CategoryID] = true
				categoryIDs = append(categoryIDs, *l.CategoryID)
			}
		}
		categories = make(map[string]*Category, len(categoryIDs))
		if len(categoryIDs) > 0 {
			rows, err := selectIn[Category](ctx, db, `SELECT `+categoryColumns+` FROM categories WHERE id IN (?)`, categoryIDs)
			if err != nil {
				return nil, storeErr(op+": categories", err)
			}
			for i := range rows {
				categories[rows[i].ID] = &rows[i]
			}
		}
	}

	if rels&relTags != 0 {
		rows, err := selectIn[listingTagRow](ctx, db, `
			SELECT lt.listing_id, t.id, t.slug, t.name, t.description, t.color, t.usage_count, t.created_at
			FROM listing_tags lt
			JOIN tags t ON t.id = lt.tag_id
			WHERE lt.listing_id IN (?)
			ORDER BY t.name`, ids)
		if err != nil {
			return nil, storeErr(op+": tags", err)
		}
		tags = unwrapTags(rows)
	}

	if rels&relCodeExamples != 0 {
		rows, err := selectIn[CodeExample](ctx, db, `
			SELECT id, listing_id, title, description, language, framework, code, sort_order, created_at, updated_at
			FROM code_examples WHERE listing_id IN (?) ORDER BY sort_order, created_at`, ids)
		if err != nil {
			return nil, storeErr(op+": code examples", err)
		}
		codeExamples = groupByListing(rows, func(c CodeExample) string { return c.ListingID })
	}

	if rels&relFAQs != 0 {
		rows, err := selectIn[FAQ](ctx, db, `
			SELECT id, listing_id, question, answer, sort_order, created_at, updated_at
			FROM faqs WHERE listing_id IN (?) ORDER BY sort_order, created_at`, ids)
		if err != nil {
			return nil, storeErr(op+": faqs", err)
		}
		faqs = groupByListing(rows, func(f FAQ) string { return f.ListingID })
	}

	if rels&relUseCases != 0 {
		rows, err := selectIn[UseCase](ctx, db, `
			SELECT id, listing_id, title, description, industry, example, sort_order, created_at
			FROM use_cases WHERE listing_id IN (?) ORDER BY sort_order, created_at`, ids)
		if err != nil {
			return nil, storeErr(op+": use cases", err)
		}
		useCases = groupByListing(rows, func(u UseCase) string { return u.ListingID })
	}

	if rels&relSocialLinks != 0 {
		rows, err := selectIn[SocialLink](ctx, db, `
			SELECT id, listing_id, platform, url, metrics, created_at, updated_at
			FROM social_links WHERE listing_id IN (?) ORDER BY platform`, ids)
		if err != nil {
			return nil, storeErr(op+": social links", err)
		}
		socialLinks = groupByListing(rows, func(s SocialLink) string { return s.ListingID })
	}

	if rels&relScreenshots != 0 {
		rows, err := selectIn[Screenshot](ctx, db, `
			SELECT id, listing_id, url, alt_text, caption, sort_order, created_at
			FROM screenshots WHERE listing_id IN (?) ORDER BY sort_order, created_at`, ids)
		if err != nil {
			return nil, storeErr(op+": screenshots", err)
		}
		screenshots = groupByListing(rows, func(s Screenshot) string { return s.ListingID })
	}

	if rels&relPromotions != 0 {
		rows, err := selectIn[Promotion](ctx, db, `
			SELECT id, listing_id, type, priority, start_date, end_date, badge_text, created_at
			FROM promotions WHERE listing_id IN (?) ORDER BY priority DESC, start_date`, ids)
		if err != nil {
			return nil, storeErr(op+": promotions", err)
		}
		promotions = groupByListing(rows, func(p Promotion) string { return p.ListingID })
	}

	for i, l := range listings {
		agg := ListingWithRelations{
			Listing:      l,
			Tags:         orEmpty(tags[l.ID]),
			CodeExamples: orEmpty(codeExamples[l.ID]),
			FAQs:         orEmpty(faqs[l.ID]),
			UseCases:     orEmpty(useCases[l.ID]),
			SocialLinks:  orEmpty(socialLinks[l.ID]),
			Screenshots:  orEmpty(screenshots[l.ID]),
			Promotions:   orEmpty(promotions[l.ID]),
		}
		if l.CategoryID != nil {
			agg.Category = categories[*l.CategoryID]
		}
		out[i] = agg
	}
	return out, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
