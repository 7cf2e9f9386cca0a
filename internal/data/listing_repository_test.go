//go:build integration

package data

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mcp-directory/internal/config"
	"mcp-directory/internal/logger"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupStore creates a migrated sqlite store in a temporary directory.
// A file is used instead of :memory: so every pooled connection sees the
// same database.
func setupStore(t *testing.T) *sqlx.DB {
	t.Helper()

	cfg := config.DBConfig{
		Driver: config.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "directory.db"),
	}
	require.NoError(t, ApplyMigrations(cfg), "failed to apply migrations")

	db, err := NewDB(cfg)
	require.NoError(t, err, "failed to connect to test store")
	t.Cleanup(func() { db.Close() })
	return db
}

// fixture seeds listings with strictly increasing creation times so the
// newest-first ordering is deterministic.
type fixture struct {
	t      *testing.T
	seeder *Seeder
	clock  time.Time
}

func newFixture(t *testing.T, db *sqlx.DB) *fixture {
	return &fixture{
		t:      t,
		seeder: NewSeeder(db),
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) category(slug string, order int) *Category {
	f.t.Helper()
	c := &Category{Slug: slug, Name: slug, Order: order}
	require.NoError(f.t, f.seeder.InsertCategory(context.Background(), c))
	return c
}

func (f *fixture) tag(slug string, usage int64) *Tag {
	f.t.Helper()
	tag := &Tag{Slug: slug, Name: slug, UsageCount: usage}
	require.NoError(f.t, f.seeder.InsertTag(context.Background(), tag))
	return tag
}

func (f *fixture) listing(l ListingWithRelations) *ListingWithRelations {
	f.t.Helper()
	f.clock = f.clock.Add(time.Minute)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = f.clock
	}
	if l.Status == "" {
		l.Status = StatusApproved
	}
	if l.Type == "" {
		l.Type = TypeServer
	}
	if l.Title == "" {
		l.Title = l.Slug
	}
	require.NoError(f.t, f.seeder.InsertListing(context.Background(), &l))
	return &l
}

func slugs(listings []ListingWithRelations) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.Slug)
	}
	return out
}

func TestListingRepository_ListApprovedOnlyReturnsApproved(t *testing.T) {
	db := setupStore(t)
	f := newFixture(t, db)
	f.listing(ListingWithRelations{Listing: Listing{Slug: "approved-one"}})
	f.listing(ListingWithRelations{Listing: Listing{Slug: "pending-one", Status: StatusPending}})
	f.listing(ListingWithRelations{Listing: Listing{Slug: "rejected-one", Status: StatusRejected}})
	f.listing(ListingWithRelations{Listing: Listing{Slug: "approved-two"}})

	repo := NewListingRepository(db, logger.Nop())
	listings, err := repo.ListApproved(context.Background(), ListingFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"approved-two", "approved-one"}, slugs(listings))
	for _, l := range listings {
		assert.Equal(t, StatusApproved, l.Status)
	}
}

func TestListingRepository_ListApprovedFilters(t *testing.T) {
	db := setupStore(t)
	f := newFixture(t, db)
	devtools := f.category("devtools", 1)
	ai := f.tag("ai", 10)
	search := f.tag("search", 5)

	f.listing(ListingWithRelations{
		Listing: Listing{Slug: "ai-search", Title: "AI Search Server", CategoryID: &devtools.ID, Featured: true},
		Tags:    []Tag{*ai, *search},
	})
	f.listing(ListingWithRelations{
		Listing: Listing{Slug: "ai-only", Title: "Assistant Bridge", Type: TypeClient},
		Tags:    []Tag{*ai},
	})
	f.listing(ListingWithRelations{
		Listing: Listing{Slug: "plain", Title: "Plain Files Server", CategoryID: &devtools.ID},
	})

	repo := NewListingRepository(db, logger.Nop())
	ctx := context.Background()
	featured := true

	testCases := []struct {
		name   string
		filter ListingFilter
		want   []string
	}{
		{"by type", ListingFilter{Type: TypeClient}, []string{"ai-only"}},
		{"by category", ListingFilter{CategoryID: devtools.ID}, []string{"plain", "ai-search"}},
		{"single tag", ListingFilter{TagIDs: []string{ai.ID}}, []string{"ai-only", "ai-search"}},
		{"all tags required", ListingFilter{TagIDs: []string{ai.ID, search.ID}}, []string{"ai-search"}},
		{"duplicate tags", ListingFilter{TagIDs: []string{search.ID, search.ID}}, []string{"ai-search"}},
		{"featured", ListingFilter{Featured: &featured}, []string{"ai-search"}},
		{"title search", ListingFilter{Search: "server"}, []string{"plain", "ai-search"}},
		{"title search with exclusion", ListingFilter{Search: "server -files"}, []string{"ai-search"}},
		{"negation only matches nothing", ListingFilter{Search: "-files"}, []string{}},
		{"combined", ListingFilter{CategoryID: devtools.ID, Search: "search"}, []string{"ai-search"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			listings, err := repo.ListApproved(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, slugs(listings))
		})
	}
}

func TestListingRepository_PaginationIsDisjoint(t *testing.T) {
	db := setupStore(t)
	f := newFixture(t, db)
	for i := 1; i <= 5; i++ {
		f.listing(ListingWithRelations{Listing: Listing{Slug: fmt.Sprintf("listing-%d", i)}})
	}

	repo := NewListingRepository(db, logger.Nop())
	ctx := context.Background()

	var pages [][]string
	for offset := 0; offset < 6; offset += 2 {
		listings, err := repo.ListApproved(ctx, ListingFilter{Limit: 2, Offset: offset})
		require.NoError(t, err)
		pages = append(pages, slugs(listings))
	}

	assert.Equal(t, [][]string{
		{"listing-5", "listing-4"},
		{"listing-3", "listing-2"},
		{"listing-1"},
	}, pages)

	// An offset without a limit falls back to the default page size.
	listings, err := repo.ListApproved(ctx, ListingFilter{Offset: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"listing-2", "listing-1"}, slugs(listings))
}

func TestListingRepository_GetBySlug(t *testing.T) {
	db := setupStore(t)
	f := newFixture(t, db)
	cat := f.category("databases", 1)
	tag := f.tag("sql", 3)
	end := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	f.listing(ListingWithRelations{
		Listing: Listing{Slug: "postgres-mcp", Title: "Postgres MCP", CategoryID: &cat.ID, Version: "1.2.0"},
		Tags:    []Tag{*tag},
		CodeExamples: []CodeExample{
			{Title: "second", Code: "b", Order: 2},
			{Title: "first", Code: "a", Order: 1},
		},
		FAQs:        []FAQ{{Question: "Does it stream?", Answer: "Yes."}},
		UseCases:    []UseCase{{Title: "Reporting", Description: "Ad-hoc SQL"}},
		SocialLinks: []SocialLink{{Platform: "github", URL: "https://github.com/example/postgres-mcp", Metrics: JSONMap{"stars": float64(12)}}},
		Screenshots: []Screenshot{{URL: "https://example.com/shot.png", AltText: "console"}},
		Promotions: []Promotion{
			{Type: "featured", Priority: 1},
			{Type: "sponsored", Priority: 5, EndDate: &end},
		},
	})
	f.listing(ListingWithRelations{Listing: Listing{Slug: "hidden", Status: StatusPending}})

	repo := NewListingRepository(db, logger.Nop())
	ctx := context.Background()

	t.Run("approved listing with relations", func(t *testing.T) {
		l, err := repo.GetBySlug(ctx, "postgres-mcp")
		require.NoError(t, err)
		require.NotNil(t, l.Category)
		assert.Equal(t, "databases", l.Category.Slug)
		require.Len(t, l.Tags, 1)
		assert.Equal(t, "sql", l.Tags[0].Slug)
		require.Len(t, l.CodeExamples, 2)
		assert.Equal(t, "first", l.CodeExamples[0].Title)
		assert.Len(t, l.FAQs, 1)
		assert.Len(t, l.UseCases, 1)
		require.Len(t, l.SocialLinks, 1)
		assert.Equal(t, float64(12), l.SocialLinks[0].Metrics["stars"])
		assert.Len(t, l.Screenshots, 1)
		require.Len(t, l.Promotions, 2)
		assert.Equal(t, "sponsored", l.Promotions[0].Type)
		require.NotNil(t, l.Promotions[0].EndDate)
		assert.True(t, end.Equal(*l.Promotions[0].EndDate))
	})

	t.Run("pending listing is not found", func(t *testing.T) {
		_, err := repo.GetBySlug(ctx, "hidden")
		assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
	})

	t.Run("unknown slug is not found", func(t *testing.T) {
		_, err := repo.GetBySlug(ctx, "does-not-exist")
		assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
	})
}

func TestListingRepository_RelationsAreNeverNil(t *testing.T) {
	db := setupStore(t)
	f := newFixture(t, db)
	f.listing(ListingWithRelations{Listing: Listing{Slug: "bare"}})

	repo := NewListingRepository(db, logger.Nop())
	l, err := repo.GetBySlug(context.Background(), "bare")
	require.NoError(t, err)
	assert.Nil(t, l.Category)
	assert.NotNil(t, l.Tags)
	assert.NotNil(t, l.CodeExamples)
	assert.NotNil(t, l.FAQs)
	assert.NotNil(t, l.UseCases)
	assert.NotNil(t, l.SocialLinks)
	assert.NotNil(t, l.Screenshots)
	assert.NotNil(t, l.Promotions)
}

func TestListingRepository_ListByCategory(t *testing.T) {
	db := setupStore(t)
	f := newFixture(t, db)
	aiTools := f.category("ai-tools", 1)
	other := f.category("other", 2)
	for i := 1; i <= 3; i++ {
		f.listing(ListingWithRelations{Listing: Listing{Slug: fmt.Sprintf("ai-%d", i), CategoryID: &aiTools.ID}})
	}
	f.listing(ListingWithRelations{Listing: Listing{Slug: "ai-pending", CategoryID: &aiTools.ID, Status: StatusPending}})
	f.listing(ListingWithRelations{Listing: Listing{Slug: "elsewhere", CategoryID: &other.ID}})

	repo := NewListingRepository(db, logger.Nop())
	ctx := context.Background()

	result, err := repo.ListByCategory(ctx, "ai-tools", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, aiTools.ID, result.Category.ID)
	assert.Equal(t, []string{"ai-3", "ai-2", "ai-1"}, slugs(result.Listings))
	for _, l := range result.Listings {
		require.NotNil(t, l.Category)
		assert.Equal(t, "ai-tools", l.Category.Slug)
		assert.Empty(t, l.CodeExamples)
	}

	page, err := repo.ListByCategory(ctx, "ai-tools", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"ai-1"}, slugs(page.Listings))

	_, err = repo.ListByCategory(ctx, "missing", 0, 0)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListingRepository_ListByTag(t *testing.T) {
	db := setupStore(t)
	f := newFixture(t, db)
	search := f.tag("search", 42)
	extra := f.tag("web", 1)
	f.listing(ListingWithRelations{Listing: Listing{Slug: "finder"}, Tags: []Tag{*search, *extra}})
	f.listing(ListingWithRelations{Listing: Listing{Slug: "crawler"}, Tags: []Tag{*search}})
	f.listing(ListingWithRelations{Listing: Listing{Slug: "draft", Status: StatusPending}, Tags: []Tag{*search}})
	f.listing(ListingWithRelations{Listing: Listing{Slug: "untagged"}})

	repo := NewListingRepository(db, logger.Nop())
	ctx := context.Background()

	result, err := repo.ListByTag(ctx, "search", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.Tag.UsageCount)
	assert.Equal(t, []string{"crawler", "finder"}, slugs(result.Listings))
	// Every listing carries its full tag set, not only the requested tag.
	assert.Len(t, result.Listings[1].Tags, 2)

	_, err = repo.ListByTag(ctx, "nonexistent", 0, 0)
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestListingRepository_Search(t *testing.T) {
	db := setupStore(t)
	f := newFixture(t, db)
	f.listing(ListingWithRelations{Listing: Listing{
		Slug:        "vector-db-connector",
		Title:       "Vector DB Connector",
		Tagline:     "Embeddings at hand",
		Description: "Query a vector database from any MCP client.",
	}})
	f.listing(ListingWithRelations{Listing: Listing{
		Slug:        "weather-api",
		Title:       "Weather API",
		Description: "Forecasts and current conditions.",
	}})
	f.listing(ListingWithRelations{Listing: Listing{
		Slug:        "vector-draft",
		Title:       "Vector Database Draft",
		Description: "Not yet reviewed vector database.",
		Status:      StatusPending,
	}})

	repo := NewListingRepository(db, logger.Nop())
	ctx := context.Background()

	results, err := repo.Search(ctx, "vector database", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"vector-db-connector"}, slugs(results))

	results, err = repo.Search(ctx, "forecast or embeddings", 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"vector-db-connector", "weather-api"}, slugs(results))

	results, err = repo.Search(ctx, "   ", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestListingRepository_SearchPhrasesAndExclusions(t *testing.T) {
	db := setupStore(t)
	f := newFixture(t, db)
	f.listing(ListingWithRelations{Listing: Listing{
		Slug:        "vector-db-connector",
		Title:       "Vector DB Connector",
		Description: "Query a vector database from any MCP client.",
	}})
	f.listing(ListingWithRelations{Listing: Listing{
		Slug:        "tile-server",
		Title:       "Tile Server",
		Description: "Serves vector tiles backed by a Postgres database.",
	}})
	f.listing(ListingWithRelations{Listing: Listing{
		Slug:        "wind-maps",
		Title:       "Wind Maps",
		Description: "Wind vector fields from weather models.",
	}})

	repo := NewListingRepository(db, logger.Nop())
	ctx := context.Background()

	testCases := []struct {
		query string
		want  []string
	}{
		{"vector database", []string{"tile-server", "vector-db-connector"}},
		{`"vector database"`, []string{"vector-db-connector"}},
		{"vector -weather", []string{"tile-server", "vector-db-connector"}},
		{`vector -"postgres database"`, []string{"vector-db-connector", "wind-maps"}},
		{`"vector database" or weather`, []string{"vector-db-connector", "wind-maps"}},
		{"-weather", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			results, err := repo.Search(ctx, tc.query, 0)
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, slugs(results))
		})
	}

	// The listing filter searches titles only, so the phrase from the
	// description does not match there.
	listed, err := repo.ListApproved(ctx, ListingFilter{Search: `"vector database"`})
	require.NoError(t, err)
	assert.Empty(t, listed)

	listed, err = repo.ListApproved(ctx, ListingFilter{Search: `"db connector"`})
	require.NoError(t, err)
	assert.Equal(t, []string{"vector-db-connector"}, slugs(listed))

	listed, err = repo.ListApproved(ctx, ListingFilter{Search: `"connector db"`})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestListingRepository_FeaturedTrendingRecent(t *testing.T) {
	db := setupStore(t)
	f := newFixture(t, db)
	f.listing(ListingWithRelations{Listing: Listing{Slug: "old-popular", ViewCount: 100, StarsCount: 1, Featured: true}})
	f.listing(ListingWithRelations{Listing: Listing{Slug: "starred", ViewCount: 50, StarsCount: 9}})
	f.listing(ListingWithRelations{Listing: Listing{Slug: "tied", ViewCount: 50, StarsCount: 3, Featured: true}})
	f.listing(ListingWithRelations{Listing: Listing{Slug: "newest", ViewCount: 0}})
	f.listing(ListingWithRelations{Listing: Listing{Slug: "pending-hit", ViewCount: 1000, Featured: true, Status: StatusPending}})

	repo := NewListingRepository(db, logger.Nop())
	ctx := context.Background()

	trending, err := repo.Trending(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"old-popular", "starred", "tied", "newest"}, slugs(trending))

	featured, err := repo.Featured(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"tied", "old-popular"}, slugs(featured))

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"newest", "tied"}, slugs(recent))
}

func TestListingRepository_ConcurrentIncrements(t *testing.T) {
	db := setupStore(t)
	f := newFixture(t, db)
	l := f.listing(ListingWithRelations{Listing: Listing{Slug: "counted"}})

	repo := NewListingRepository(db, logger.Nop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			repo.IncrementViewCount(ctx, l.ID)
		}()
		go func() {
			defer wg.Done()
			repo.IncrementClickCount(ctx, l.ID)
		}()
	}
	wg.Wait()

	var counts struct {
		Views  int64 `db:"view_count"`
		Clicks int64 `db:"click_count"`
	}
	require.NoError(t, db.Get(&counts, `SELECT view_count, click_count FROM mcp_listings WHERE id = ?`, l.ID))
	assert.Equal(t, int64(2), counts.Views)
	assert.Equal(t, int64(2), counts.Clicks)
}

func TestListingRepository_IncrementFailureIsLogged(t *testing.T) {
	db := setupStore(t)
	var buf bytes.Buffer
	repo := NewListingRepository(db, logger.New(config.LogConfig{Level: "debug", Format: "json"}, &buf))
	db.Close()

	assert.NotPanics(t, func() { repo.IncrementViewCount(context.Background(), "anything") })
	assert.Contains(t, buf.String(), "Failed to increment listing counter")
}

func TestAnalyticsRepository_Record(t *testing.T) {
	db := setupStore(t)
	f := newFixture(t, db)
	l := f.listing(ListingWithRelations{Listing: Listing{Slug: "tracked"}})

	var buf bytes.Buffer
	repo := NewAnalyticsRepository(db, logger.New(config.LogConfig{Level: "debug", Format: "json"}, &buf))
	ctx := context.Background()

	repo.Record(ctx, AnalyticsEvent{ListingID: &l.ID, EventType: "view", EventData: JSONMap{"source": "home"}})
	repo.Record(ctx, AnalyticsEvent{EventType: "search"})

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM analytics`))
	assert.Equal(t, 2, count)

	var stored JSONMap
	require.NoError(t, db.Get(&stored, `SELECT event_data FROM analytics WHERE event_type = 'view'`))
	assert.Equal(t, "home", stored["source"])

	// A listing that does not exist violates the foreign key; the failure is
	// logged and never reaches the caller.
	missing := "missing-listing"
	assert.NotPanics(t, func() { repo.Record(ctx, AnalyticsEvent{ListingID: &missing, EventType: "click"}) })
	assert.Contains(t, buf.String(), "Failed to track analytics")
}

func TestSeeder_RejectsInvalidVersion(t *testing.T) {
	db := setupStore(t)
	err := NewSeeder(db).InsertListing(context.Background(), &ListingWithRelations{
		Listing: Listing{Slug: "bad", Title: "Bad", Type: TypeServer, Version: "not-a-version"},
	})
	assert.Error(t, err)
}
