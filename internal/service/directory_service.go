package service

import (
	"bytes"
	"context"
	"mcp-directory/internal/data"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/sync/errgroup"
)

// Analytics event types emitted by the service.
const (
	EventView  = "view"
	EventClick = "click"
)

// ListingRepository defines the read operations on approved listings.
type ListingRepository interface {
	ListApproved(ctx context.Context, filter data.ListingFilter) ([]data.ListingWithRelations, error)
	GetBySlug(ctx context.Context, slug string) (*data.ListingWithRelations, error)
	ListByTag(ctx context.Context, tagSlug string, limit, offset int) (*data.TagListings, error)
	ListByCategory(ctx context.Context, categorySlug string, limit, offset int) (*data.CategoryListings, error)
	Search(ctx context.Context, query string, limit int) ([]data.ListingWithRelations, error)
	Featured(ctx context.Context, limit int) ([]data.ListingWithRelations, error)
	Trending(ctx context.Context, limit int) ([]data.ListingWithRelations, error)
	Recent(ctx context.Context, limit int) ([]data.ListingWithRelations, error)
}

// CategoryRepository lists categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]data.Category, error)
}

// TagRepository lists tags.
type TagRepository interface {
	List(ctx context.Context) ([]data.Tag, error)
}

// Tracker accepts best-effort telemetry. Implementations must not block.
type Tracker interface {
	TrackView(listingID string, event data.AnalyticsEvent)
	TrackClick(listingID string, event data.AnalyticsEvent)
	TrackEvent(event data.AnalyticsEvent)
}

// RequestMeta carries the request details recorded with analytics events.
type RequestMeta struct {
	UserAgent string
	Referrer  string
}

// ListingDetail is a listing prepared for its detail page.
type ListingDetail struct {
	*data.ListingWithRelations
	DescriptionHTML string `json:"description_html"`
}

// Catalog holds every category and tag.
type Catalog struct {
	Categories []data.Category `json:"categories"`
	Tags       []data.Tag      `json:"tags"`
}

// DirectoryServicer defines the interface handlers use to query the directory.
type DirectoryServicer interface {
	Browse(ctx context.Context, filter data.ListingFilter) ([]data.ListingWithRelations, error)
	Featured(ctx context.Context, limit int) ([]data.ListingWithRelations, error)
	Trending(ctx context.Context, limit int) ([]data.ListingWithRelations, error)
	Recent(ctx context.Context, limit int) ([]data.ListingWithRelations, error)
	Search(ctx context.Context, query string, limit int) ([]data.ListingWithRelations, error)
	ViewListing(ctx context.Context, slug string, meta RequestMeta) (*ListingDetail, error)
	RecordClick(ctx context.Context, listingID string, meta RequestMeta)
	TrackEvent(ctx context.Context, event data.AnalyticsEvent)
	CategoryPage(ctx context.Context, slug string, limit, offset int) (*data.CategoryListings, error)
	TagPage(ctx context.Context, slug string, limit, offset int) (*data.TagListings, error)
	Categories(ctx context.Context) ([]data.Category, error)
	Tags(ctx context.Context) ([]data.Tag, error)
	Catalog(ctx context.Context) (*Catalog, error)
	SitemapEntries(ctx context.Context) ([]SitemapEntry, error)
}

// DirectoryService provides the read side of the MCP directory.
type DirectoryService struct {
	listings   ListingRepository
	categories CategoryRepository
	tags       TagRepository
	tracker    Tracker
	markdown   goldmark.Markdown
	sanitizer  *bluemonday.Policy
}

var _ DirectoryServicer = (*DirectoryService)(nil)

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(listings ListingRepository, categories CategoryRepository, tags TagRepository, tracker Tracker) *DirectoryService {
	return &DirectoryService{
		listings:   listings,
		categories: categories,
		tags:       tags,
		tracker:    tracker,
		markdown:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
		// Descriptions are submitted by listing authors; treat them as UGC.
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Browse lists approved listings matching filter.
func (s *DirectoryService) Browse(ctx context.Context, filter data.ListingFilter) ([]data.ListingWithRelations, error) {
	return s.listings.ListApproved(ctx, filter)
}

func (s *DirectoryService) Featured(ctx context.Context, limit int) ([]data.ListingWithRelations, error) {
	return s.listings.Featured(ctx, limit)
}

func (s *DirectoryService) Trending(ctx context.Context, limit int) ([]data.ListingWithRelations, error) {
	return s.listings.Trending(ctx, limit)
}

func (s *DirectoryService) Recent(ctx context.Context, limit int) ([]data.ListingWithRelations, error) {
	return s.listings.Recent(ctx, limit)
}

func (s *DirectoryService) Search(ctx context.Context, query string, limit int) ([]data.ListingWithRelations, error) {
	return s.listings.Search(ctx, query, limit)
}

// ViewListing fetches the listing for its detail page and queues a view.
func (s *DirectoryService) ViewListing(ctx context.Context, slug string, meta RequestMeta) (*ListingDetail, error) {
	listing, err := s.listings.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	html, err := s.renderDescription(listing.Description)
	if err != nil {
		return nil, err
	}

	s.tracker.TrackView(listing.ID, listingEvent(listing.ID, EventView, meta))
	return &ListingDetail{ListingWithRelations: listing, DescriptionHTML: html}, nil
}

// RecordClick queues a click on the listing's outbound link.
func (s *DirectoryService) RecordClick(ctx context.Context, listingID string, meta RequestMeta) {
	s.tracker.TrackClick(listingID, listingEvent(listingID, EventClick, meta))
}

// TrackEvent queues a free-form analytics event.
func (s *DirectoryService) TrackEvent(ctx context.Context, event data.AnalyticsEvent) {
	s.tracker.TrackEvent(event)
}

func (s *DirectoryService) CategoryPage(ctx context.Context, slug string, limit, offset int) (*data.CategoryListings, error) {
	return s.listings.ListByCategory(ctx, slug, limit, offset)
}

func (s *DirectoryService) TagPage(ctx context.Context, slug string, limit, offset int) (*data.TagListings, error) {
	return s.listings.ListByTag(ctx, slug, limit, offset)
}

func (s *DirectoryService) Categories(ctx context.Context) ([]data.Category, error) {
	return s.categories.List(ctx)
}

func (s *DirectoryService) Tags(ctx context.Context) ([]data.Tag, error) {
	return s.tags.List(ctx)
}

// Catalog loads categories and tags concurrently.
func (s *DirectoryService) Catalog(ctx context.Context) (*Catalog, error) {
	var catalog Catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		catalog.Categories, err = s.categories.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		catalog.Tags, err = s.tags.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// renderDescription converts markdown to sanitized HTML.
func (s *DirectoryService) renderDescription(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return s.sanitizer.Sanitize(buf.String()), nil
}

func listingEvent(listingID, eventType string, meta RequestMeta) data.AnalyticsEvent {
	id := listingID
	return data.AnalyticsEvent{
		ListingID: &id,
		EventType: eventType,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
	}
}
