package handler

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"mcp-directory/internal/cache"
	"mcp-directory/internal/logger"
	"mcp-directory/internal/middleware"
	"mcp-directory/internal/service"
	"net/http"
	"strings"
	"time"
)

const (
	sitemapDateFormat = "2006-01-02"
	sitemapCacheKey   = "sitemap.xml"
)

// SeoConfig holds what the SEO handlers need to build absolute URLs.
type SeoConfig struct {
	BaseURL    string
	Locales    []string
	SitemapTTL time.Duration
}

// SeoHandler holds dependencies for SEO-related handlers.
type SeoHandler struct {
	directory service.DirectoryServicer
	cache     *cache.Cache
	cfg       SeoConfig
	log       logger.Logger
}

// NewSeoHandler creates a new SeoHandler. A nil cache disables caching.
func NewSeoHandler(ds service.DirectoryServicer, c *cache.Cache, cfg SeoConfig, log logger.Logger) *SeoHandler {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if len(cfg.Locales) == 0 {
		cfg.Locales = []string{"en"}
	}
	return &SeoHandler{directory: ds, cache: c, cfg: cfg, log: log}
}

// robotsHandler serves robots.txt pointing crawlers at the sitemap.
func (h *SeoHandler) robotsHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "User-agent: *")
	fmt.Fprintln(w, "Allow: /")
	fmt.Fprintln(w, "Disallow: /api/")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Sitemap: %s/sitemap.xml\n", h.cfg.BaseURL)
	return nil
}

type sitemapURL struct {
	XMLName    xml.Name `xml:"url"`
	Loc        string   `xml:"loc"`
	LastMod    string   `xml:"lastmod"`
	ChangeFreq string   `xml:"changefreq"`
	Priority   string   `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemapHandler serves sitemap.xml, rebuilding it when the cached copy expired.
func (h *SeoHandler) sitemapHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var (
		body []byte
		err  error
	)
	if h.cache != nil {
		body, err = h.cache.Remember(r.Context(), sitemapCacheKey, h.cfg.SitemapTTL, h.buildSitemap)
		if err != nil && body != nil {
			// Built fine, only the cache write failed.
			h.log.Error(err, "Failed to cache sitemap")
			err = nil
		}
	} else {
		body, err = h.buildSitemap(r.Context())
	}
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to generate sitemap", Code: http.StatusInternalServerError}
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write(body)
	return nil
}

// buildSitemap renders every public page once per configured locale.
func (h *SeoHandler) buildSitemap(ctx context.Context) ([]byte, error) {
	entries, err := h.directory.SitemapEntries(ctx)
	if err != nil {
		return nil, err
	}

	sitemap := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]sitemapURL, 0, len(entries)*len(h.cfg.Locales)),
	}
	for _, locale := range h.cfg.Locales {
		for _, e := range entries {
			sitemap.URLs = append(sitemap.URLs, sitemapURL{
				Loc:        h.cfg.BaseURL + "/" + locale + e.Path,
				LastMod:    e.LastMod.Format(sitemapDateFormat),
				ChangeFreq: e.ChangeFreq,
				Priority:   fmt.Sprintf("%.1f", e.Priority),
			})
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	encoder := xml.NewEncoder(&buf)
	encoder.Indent("", "  ")
	if err := encoder.Encode(sitemap); err != nil {
		return nil, fmt.Errorf("failed to encode sitemap: %w", err)
	}
	return buf.Bytes(), nil
}
