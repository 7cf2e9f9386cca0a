package data

import (
	"time"
)

// ListingType classifies a directory entry.
type ListingType string

const (
	TypeServer ListingType = "server"
	TypeClient ListingType = "client"
)

// ListingStatus is the moderation state of a listing.
type ListingStatus string

const (
	StatusPending  ListingStatus = "pending"
	StatusApproved ListingStatus = "approved"
	StatusRejected ListingStatus = "rejected"
)

// Listing is a single MCP server or client in the directory.
type Listing struct {
	ID               string        `db:"id" json:"id"`
	Slug             string        `db:"slug" json:"slug"`
	Title            string        `db:"title" json:"title"`
	Tagline          string        `db:"tagline" json:"tagline"`
	Description      string        `db:"description" json:"description"`
	Type             ListingType   `db:"type" json:"type"`
	CategoryID       *string       `db:"category_id" json:"category_id"`
	AuthorName       string        `db:"author_name" json:"author_name"`
	AuthorEmail      string        `db:"author_email" json:"author_email"`
	RepositoryURL    string        `db:"repository_url" json:"repository_url"`
	NpmPackage       string        `db:"npm_package" json:"npm_package"`
	WebsiteURL       string        `db:"website_url" json:"website_url"`
	DocumentationURL string        `db:"documentation_url" json:"documentation_url"`
	License          string        `db:"license" json:"license"`
	Version          string        `db:"version" json:"version"`
	Status           ListingStatus `db:"status" json:"status"`
	Featured         bool          `db:"featured" json:"featured"`
	Verified         bool          `db:"verified" json:"verified"`
	DownloadsCount   int64         `db:"downloads_count" json:"downloads_count"`
	StarsCount       int64         `db:"stars_count" json:"stars_count"`
	ViewCount        int64         `db:"view_count" json:"view_count"`
	ClickCount       int64         `db:"click_count" json:"click_count"`
	SubmittedBy      *string       `db:"submitted_by" json:"submitted_by"`
	ApprovedBy       *string       `db:"approved_by" json:"approved_by"`
	ApprovedAt       *time.Time    `db:"approved_at" json:"approved_at"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

// ListingWithRelations is a listing aggregate with its related records attached.
// Relations that were not requested by the query are left empty.
type ListingWithRelations struct {
	Listing
	Category     *Category     `json:"category"`
	Tags         []Tag         `json:"tags"`
	CodeExamples []CodeExample `json:"code_examples"`
	FAQs         []FAQ         `json:"faqs"`
	UseCases     []UseCase     `json:"use_cases"`
	SocialLinks  []SocialLink  `json:"social_links"`
	Screenshots  []Screenshot  `json:"screenshots"`
	Promotions   []Promotion   `json:"promotions"`
}

// Category groups listings. Categories may nest through ParentID.
type Category struct {
	ID             string    `db:"id" json:"id"`
	Slug           string    `db:"slug" json:"slug"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	Icon           string    `db:"icon" json:"icon"`
	ParentID       *string   `db:"parent_id" json:"parent_id"`
	SEOTitle       string    `db:"seo_title" json:"seo_title"`
	SEODescription string    `db:"seo_description" json:"seo_description"`
	Order          int       `db:"sort_order" json:"order"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Tag labels listings across categories.
type Tag struct {
	ID          string    `db:"id" json:"id"`
	Slug        string    `db:"slug" json:"slug"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Color       string    `db:"color" json:"color"`
	UsageCount  int64     `db:"usage_count" json:"usage_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CodeExample is an implementation snippet owned by a listing.
type CodeExample struct {
	ID          string    `db:"id" json:"id"`
	ListingID   string    `db:"listing_id" json:"listing_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Language    string    `db:"language" json:"language"`
	Framework   string    `db:"framework" json:"framework"`
	Code        string    `db:"code" json:"code"`
	Order       int       `db:"sort_order" json:"order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// FAQ is a question and answer pair owned by a listing.
type FAQ struct {
	ID        string    `db:"id" json:"id"`
	ListingID string    `db:"listing_id" json:"listing_id"`
	Question  string    `db:"question" json:"question"`
	Answer    string    `db:"answer" json:"answer"`
	Order     int       `db:"sort_order" json:"order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UseCase describes a real-world application of a listing.
type UseCase struct {
	ID          string    `db:"id" json:"id"`
	ListingID   string    `db:"listing_id" json:"listing_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Industry    string    `db:"industry" json:"industry"`
	Example     string    `db:"example" json:"example"`
	Order       int       `db:"sort_order" json:"order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SocialLink points at a listing's presence on an external platform.
// Metrics is an opaque JSON document.
type SocialLink struct {
	ID        string    `db:"id" json:"id"`
	ListingID string    `db:"listing_id" json:"listing_id"`
	Platform  string    `db:"platform" json:"platform"`
	URL       string    `db:"url" json:"url"`
	Metrics   JSONMap   `db:"metrics" json:"metrics"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Screenshot is an image attached to a listing.
type Screenshot struct {
	ID        string    `db:"id" json:"id"`
	ListingID string    `db:"listing_id" json:"listing_id"`
	URL       string    `db:"url" json:"url"`
	AltText   string    `db:"alt_text" json:"alt_text"`
	Caption   string    `db:"caption" json:"caption"`
	Order     int       `db:"sort_order" json:"order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Promotion is a time-boxed highlight of a listing.
type Promotion struct {
	ID        string     `db:"id" json:"id"`
	ListingID string     `db:"listing_id" json:"listing_id"`
	Type      string     `db:"type" json:"type"`
	Priority  int        `db:"priority" json:"priority"`
	StartDate time.Time  `db:"start_date" json:"start_date"`
	EndDate   *time.Time `db:"end_date" json:"end_date"`
	BadgeText string     `db:"badge_text" json:"badge_text"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// AnalyticsEvent is an append-only tracking record.
type AnalyticsEvent struct {
	ID        string    `db:"id" json:"id"`
	ListingID *string   `db:"listing_id" json:"listing_id"`
	EventType string    `db:"event_type" json:"event_type"`
	EventData JSONMap   `db:"event_data" json:"event_data"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	Referrer  string    `db:"referrer" json:"referrer"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ListingFilter narrows ListApproved. Zero values mean "no constraint".
type ListingFilter struct {
	Type       ListingType `url:"type,omitempty" validate:"omitempty,oneof=server client"`
	CategoryID string      `url:"category,omitempty"`
	TagIDs     []string    `url:"tag,omitempty"`
	Search     string      `url:"q,omitempty"`
	Featured   *bool       `url:"featured,omitempty"`
	Limit      int         `url:"limit,omitempty" validate:"gte=0"`
	Offset     int         `url:"offset,omitempty" validate:"gte=0"`
}

// CategoryListings is a category together with a page of its approved listings.
type CategoryListings struct {
	Category *Category             `json:"category"`
	Listings []ListingWithRelations `json:"listings"`
}

// TagListings is a tag together with a page of its approved listings.
type TagListings struct {
	Tag      *Tag                   `json:"tag"`
	Listings []ListingWithRelations `json:"listings"`
}
