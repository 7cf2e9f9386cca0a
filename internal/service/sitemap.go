package service

import (
	"context"
	"mcp-directory/internal/data"
	"time"

	"golang.org/x/sync/errgroup"
)

// sitemapListingLimit caps how many listings are published in the sitemap.
const sitemapListingLimit = 1000

// SitemapEntry is a locale-independent sitemap location. Path is relative to
// the locale prefix; the empty path is the locale's home page.
type SitemapEntry struct {
	Path       string
	LastMod    time.Time
	ChangeFreq string
	Priority   float64
}

var staticEntries = []SitemapEntry{
	{Path: "", ChangeFreq: "daily", Priority: 1.0},
	{Path: "/mcp", ChangeFreq: "daily", Priority: 0.9},
}

// SitemapEntries lists every public page. Listings, categories and tags are
// loaded concurrently.
func (s *DirectoryService) SitemapEntries(ctx context.Context) ([]SitemapEntry, error) {
	var (
		listings   []data.ListingWithRelations
		categories []data.Category
		tags       []data.Tag
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		listings, err = s.listings.ListApproved(gctx, data.ListingFilter{Limit: sitemapListingLimit})
		return err
	})
	g.Go(func() (err error) {
		categories, err = s.categories.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		tags, err = s.tags.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entries := make([]SitemapEntry, 0, len(staticEntries)+len(listings)+len(categories)+len(tags))
	for _, e := range staticEntries {
		e.LastMod = now
		entries = append(entries, e)
	}
	for _, l := range listings {
		priority := 0.8
		if l.Featured {
			priority = 0.9
		}
		entries = append(entries, SitemapEntry{
			Path:       "/mcp/" + l.Slug,
			LastMod:    l.UpdatedAt,
			ChangeFreq: "weekly",
			Priority:   priority,
		})
	}
	for _, c := range categories {
		entries = append(entries, SitemapEntry{
			Path:       "/mcp/categories/" + c.Slug,
			LastMod:    now,
			ChangeFreq: "daily",
			Priority:   0.7,
		})
	}
	for _, t := range tags {
		entries = append(entries, SitemapEntry{
			Path:       "/mcp/tags/" + t.Slug,
			LastMod:    t.CreatedAt,
			ChangeFreq: "daily",
			Priority:   0.6,
		})
	}
	return entries, nil
}
