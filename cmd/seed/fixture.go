package main

import (
	"context"
	"fmt"
	"io"
	"mcp-directory/internal/data"

	"gopkg.in/yaml.v3"
)

// fixture is the on-disk shape of a seed file. Listings reference their
// category and tags by slug.
type fixture struct {
	Categories []categoryFixture `yaml:"categories"`
	Tags       []tagFixture      `yaml:"tags"`
	Listings   []listingFixture  `yaml:"listings"`
}

type categoryFixture struct {
	Slug           string `yaml:"slug"`
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	Icon           string `yaml:"icon"`
	Parent         string `yaml:"parent"`
	SEOTitle       string `yaml:"seo_title"`
	SEODescription string `yaml:"seo_description"`
	Order          int    `yaml:"order"`
}

type tagFixture struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
	UsageCount  int64  `yaml:"usage_count"`
}

type listingFixture struct {
	Slug             string   `yaml:"slug"`
	Title            string   `yaml:"title"`
	Tagline          string   `yaml:"tagline"`
	Description      string   `yaml:"description"`
	Type             string   `yaml:"type"`
	Category         string   `yaml:"category"`
	Tags             []string `yaml:"tags"`
	AuthorName       string   `yaml:"author_name"`
	AuthorEmail      string   `yaml:"author_email"`
	RepositoryURL    string   `yaml:"repository_url"`
	NpmPackage       string   `yaml:"npm_package"`
	WebsiteURL       string   `yaml:"website_url"`
	DocumentationURL string   `yaml:"documentation_url"`
	License          string   `yaml:"license"`
	Version          string   `yaml:"version"`
	Status           string   `yaml:"status"`
	Featured         bool     `yaml:"featured"`
	Verified         bool     `yaml:"verified"`
	StarsCount       int64    `yaml:"stars_count"`
	DownloadsCount   int64    `yaml:"downloads_count"`

	CodeExamples []struct {
		Title     string `yaml:"title"`
		Language  string `yaml:"language"`
		Framework string `yaml:"framework"`
		Code      string `yaml:"code"`
	} `yaml:"code_examples"`
	FAQs []struct {
		Question string `yaml:"question"`
		Answer   string `yaml:"answer"`
	} `yaml:"faqs"`
	UseCases []struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		Industry    string `yaml:"industry"`
	} `yaml:"use_cases"`
	SocialLinks []struct {
		Platform string                 `yaml:"platform"`
		URL      string                 `yaml:"url"`
		Metrics  map[string]interface{} `yaml:"metrics"`
	} `yaml:"social_links"`
}

// decodeFixture parses a YAML seed document.
func decodeFixture(r io.Reader) (*fixture, error) {
	var f fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return &f, nil
}

// inserter is the subset of data.Seeder the loader uses.
type inserter interface {
	InsertCategory(ctx context.Context, c *data.Category) error
	InsertTag(ctx context.Context, t *data.Tag) error
	InsertListing(ctx context.Context, l *data.ListingWithRelations) error
}

// load inserts categories (parents first, in file order), then tags, then
// listings, resolving slug references along the way.
func (f *fixture) load(ctx context.Context, db inserter) (int, error) {
	categories := make(map[string]*data.Category, len(f.Categories))
	for _, cf := range f.Categories {
		c := &data.Category{
			Slug:           cf.Slug,
			Name:           cf.Name,
			Description:    cf.Description,
			Icon:           cf.Icon,
			SEOTitle:       cf.SEOTitle,
			SEODescription: cf.SEODescription,
			Order:          cf.Order,
		}
		if cf.Parent != "" {
			parent, ok := categories[cf.Parent]
			if !ok {
				return 0, fmt.Errorf("category %q: parent %q must be declared before it", cf.Slug, cf.Parent)
			}
			c.ParentID = &parent.ID
		}
		if err := db.InsertCategory(ctx, c); err != nil {
			return 0, err
		}
		categories[c.Slug] = c
	}

	tags := make(map[string]*data.Tag, len(f.Tags))
	for _, tf := range f.Tags {
		t := &data.Tag{
			Slug:        tf.Slug,
			Name:        tf.Name,
			Description: tf.Description,
			Color:       tf.Color,
			UsageCount:  tf.UsageCount,
		}
		if err := db.InsertTag(ctx, t); err != nil {
			return 0, err
		}
		tags[t.Slug] = t
	}

	for _, lf := range f.Listings {
		l, err := lf.toListing(categories, tags)
		if err != nil {
			return 0, err
		}
		if err := db.InsertListing(ctx, l); err != nil {
			return 0, err
		}
	}
	return len(f.Listings), nil
}

func (lf listingFixture) toListing(categories map[string]*data.Category, tags map[string]*data.Tag) (*data.ListingWithRelations, error) {
	l := &data.ListingWithRelations{Listing: data.Listing{
		Slug:             lf.Slug,
		Title:            lf.Title,
		Tagline:          lf.Tagline,
		Description:      lf.Description,
		Type:             data.ListingType(lf.Type),
		AuthorName:       lf.AuthorName,
		AuthorEmail:      lf.AuthorEmail,
		RepositoryURL:    lf.RepositoryURL,
		NpmPackage:       lf.NpmPackage,
		WebsiteURL:       lf.WebsiteURL,
		DocumentationURL: lf.DocumentationURL,
		License:          lf.License,
		Version:          lf.Version,
		Status:           data.ListingStatus(lf.Status),
		Featured:         lf.Featured,
		Verified:         lf.Verified,
		StarsCount:       lf.StarsCount,
		DownloadsCount:   lf.DownloadsCount,
	}}
	if l.Type == "" {
		l.Type = data.TypeServer
	}

	if lf.Category != "" {
		c, ok := categories[lf.Category]
		if !ok {
			return nil, fmt.Errorf("listing %q: unknown category %q", lf.Slug, lf.Category)
		}
		l.CategoryID = &c.ID
	}
	for _, slug := range lf.Tags {
		t, ok := tags[slug]
		if !ok {
			return nil, fmt.Errorf("listing %q: unknown tag %q", lf.Slug, slug)
		}
		l.Tags = append(l.Tags, *t)
	}

	for i, ce := range lf.CodeExamples {
		l.CodeExamples = append(l.CodeExamples, data.CodeExample{
			Title: ce.Title, Language: ce.Language, Framework: ce.Framework, Code: ce.Code, Order: i,
		})
	}
	for i, faq := range lf.FAQs {
		l.FAQs = append(l.FAQs, data.FAQ{Question: faq.Question, Answer: faq.Answer, Order: i})
	}
	for i, uc := range lf.UseCases {
		l.UseCases = append(l.UseCases, data.UseCase{
			Title: uc.Title, Description: uc.Description, Industry: uc.Industry, Order: i,
		})
	}
	for _, sl := range lf.SocialLinks {
		l.SocialLinks = append(l.SocialLinks, data.SocialLink{
			Platform: sl.Platform, URL: sl.URL, Metrics: data.JSONMap(sl.Metrics),
		})
	}
	return l, nil
}
