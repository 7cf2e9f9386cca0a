package handler

import (
	"net/http"

	"mcp-directory/internal/logger"
	appmw "mcp-directory/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the cross-cutting pieces of the router.
type RouterConfig struct {
	AllowedOrigins []string
	EventLimiter   *appmw.RateLimiter
	Log            logger.Logger
}

// NewRouter creates and configures a new chi router.
func NewRouter(listingHandler *ListingHandler, seoHandler *SeoHandler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appmw.Client)

	h := appmw.Error(cfg.Log)

	r.Method(http.MethodGet, "/robots.txt", h(seoHandler.robotsHandler))
	r.Method(http.MethodGet, "/sitemap.xml", h(seoHandler.sitemapHandler))

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))

		r.Method(http.MethodGet, "/listings", h(listingHandler.listListings))
		r.Method(http.MethodGet, "/listings/featured", h(listingHandler.featured))
		r.Method(http.MethodGet, "/listings/trending", h(listingHandler.trending))
		r.Method(http.MethodGet, "/listings/recent", h(listingHandler.recent))
		r.Method(http.MethodGet, "/listings/{slug}", h(listingHandler.viewListing))
		r.Method(http.MethodPost, "/listings/{id}/click", h(listingHandler.recordClick))
		r.Method(http.MethodGet, "/search", h(listingHandler.search))

		r.Method(http.MethodGet, "/categories", h(listingHandler.listCategories))
		r.Method(http.MethodGet, "/categories/{slug}", h(listingHandler.categoryPage))
		r.Method(http.MethodGet, "/tags", h(listingHandler.listTags))
		r.Method(http.MethodGet, "/tags/{slug}", h(listingHandler.tagPage))
		r.Method(http.MethodGet, "/catalog", h(listingHandler.catalog))

		r.Group(func(r chi.Router) {
			if cfg.EventLimiter != nil {
				r.Use(cfg.EventLimiter.Middleware)
			}
			r.Method(http.MethodPost, "/events", h(listingHandler.trackEvent))
		})
	})

	return r
}
