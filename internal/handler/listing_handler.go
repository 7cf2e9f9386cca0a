package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mcp-directory/internal/data"
	"mcp-directory/internal/logger"
	"mcp-directory/internal/middleware"
	"mcp-directory/internal/service"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/go-querystring/query"
)

// maxPageSize caps every limit accepted from clients.
const maxPageSize = 100

// defaultPageSize applies to GET /api/listings when neither limit nor offset
// is given. An offset alone keeps the store's own default.
const defaultPageSize = 20

// maxEventBody bounds the size of an analytics event submission.
const maxEventBody = 16 << 10

// ListingHandler serves the JSON API over the directory.
type ListingHandler struct {
	directory service.DirectoryServicer
	validate  *validator.Validate
	log       logger.Logger
}

// NewListingHandler creates a new ListingHandler with the given dependencies.
func NewListingHandler(ds service.DirectoryServicer, log logger.Logger) *ListingHandler {
	return &ListingHandler{
		directory: ds,
		validate:  validator.New(),
		log:       log,
	}
}

type listingsResponse struct {
	Listings []data.ListingWithRelations `json:"listings"`
	Next     string                      `json:"next,omitempty"`
}

// eventRequest is the body accepted by the analytics endpoint.
type eventRequest struct {
	ListingID string                 `json:"listing_id" validate:"omitempty,max=36"`
	EventType string                 `json:"event_type" validate:"required,max=64"`
	EventData map[string]interface{} `json:"event_data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) *middleware.AppError {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to encode response", Code: http.StatusInternalServerError}
	}
	return nil
}

// intParam reads a non-negative integer query parameter; missing means 0.
func intParam(values url.Values, name string) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// limitParam reads "limit", capped at maxPageSize.
func limitParam(values url.Values) (int, error) {
	limit, err := intParam(values, "limit")
	if err != nil {
		return 0, err
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, nil
}

// parseFilter builds a ListingFilter from the query string.
func (h *ListingHandler) parseFilter(values url.Values) (data.ListingFilter, error) {
	filter := data.ListingFilter{
		Type:       data.ListingType(values.Get("type")),
		CategoryID: values.Get("category"),
		TagIDs:     values["tag"],
		Search:     strings.TrimSpace(values.Get("q")),
	}
	if raw := values.Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("featured must be a boolean")
		}
		filter.Featured = &featured
	}

	var err error
	if filter.Limit, err = limitParam(values); err != nil {
		return filter, err
	}
	if filter.Offset, err = intParam(values, "offset"); err != nil {
		return filter, err
	}
	if filter.Limit == 0 && filter.Offset == 0 {
		filter.Limit = defaultPageSize
	}
	if err := h.validate.Struct(filter); err != nil {
		return filter, err
	}
	return filter, nil
}

// nextLink returns the URL of the page after filter, or "" when the current
// page was not full.
func nextLink(path string, filter data.ListingFilter, got int) (string, error) {
	if filter.Limit <= 0 || got < filter.Limit {
		return "", nil
	}
	filter.Offset += filter.Limit
	values, err := query.Values(filter)
	if err != nil {
		return "", err
	}
	return path + "?" + values.Encode(), nil
}

// listListings handles GET /api/listings.
func (h *ListingHandler) listListings(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	filter, err := h.parseFilter(r.URL.Query())
	if err != nil {
		return middleware.BadRequest(err, err.Error())
	}

	listings, err := h.directory.Browse(r.Context(), filter)
	if err != nil {
		return middleware.FromError(err, "Listings not found")
	}

	next, err := nextLink(r.URL.Path, filter, len(listings))
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to build next link", Code: http.StatusInternalServerError}
	}
	return writeJSON(w, http.StatusOK, listingsResponse{Listings: listings, Next: next})
}

// limitedList adapts a limit-only listing operation into a handler.
func (h *ListingHandler) limitedList(fetch func(r *http.Request, limit int) ([]data.ListingWithRelations, error)) middleware.AppHandler {
	return func(w http.ResponseWriter, r *http.Request) *middleware.AppError {
		limit, err := limitParam(r.URL.Query())
		if err != nil {
			return middleware.BadRequest(err, err.Error())
		}
		listings, err := fetch(r, limit)
		if err != nil {
			return middleware.FromError(err, "Listings not found")
		}
		return writeJSON(w, http.StatusOK, listingsResponse{Listings: listings})
	}
}

func (h *ListingHandler) featured(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.limitedList(func(r *http.Request, limit int) ([]data.ListingWithRelations, error) {
		return h.directory.Featured(r.Context(), limit)
	})(w, r)
}

func (h *ListingHandler) trending(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.limitedList(func(r *http.Request, limit int) ([]data.ListingWithRelations, error) {
		return h.directory.Trending(r.Context(), limit)
	})(w, r)
}

func (h *ListingHandler) recent(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.limitedList(func(r *http.Request, limit int) ([]data.ListingWithRelations, error) {
		return h.directory.Recent(r.Context(), limit)
	})(w, r)
}

// search handles GET /api/search.
func (h *ListingHandler) search(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	return h.limitedList(func(r *http.Request, limit int) ([]data.ListingWithRelations, error) {
		return h.directory.Search(r.Context(), q, limit)
	})(w, r)
}

// viewListing handles GET /api/listings/{slug}.
func (h *ListingHandler) viewListing(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	slug := chi.URLParam(r, "slug")
	client := middleware.GetClientInfo(r.Context())

	detail, err := h.directory.ViewListing(r.Context(), slug, service.RequestMeta{
		UserAgent: client.UserAgent,
		Referrer:  client.Referrer,
	})
	if err != nil {
		return middleware.FromError(err, "Listing not found")
	}
	return writeJSON(w, http.StatusOK, detail)
}

// recordClick handles POST /api/listings/{id}/click.
func (h *ListingHandler) recordClick(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	client := middleware.GetClientInfo(r.Context())
	h.directory.RecordClick(r.Context(), chi.URLParam(r, "id"), service.RequestMeta{
		UserAgent: client.UserAgent,
		Referrer:  client.Referrer,
	})
	w.WriteHeader(http.StatusAccepted)
	return nil
}

// listCategories handles GET /api/categories.
func (h *ListingHandler) listCategories(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	categories, err := h.directory.Categories(r.Context())
	if err != nil {
		return middleware.FromError(err, "Categories not found")
	}
	return writeJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// listTags handles GET /api/tags.
func (h *ListingHandler) listTags(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	tags, err := h.directory.Tags(r.Context())
	if err != nil {
		return middleware.FromError(err, "Tags not found")
	}
	return writeJSON(w, http.StatusOK, map[string]interface{}{"tags": tags})
}

// catalog handles GET /api/catalog, the filter sidebar's categories and tags.
func (h *ListingHandler) catalog(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	catalog, err := h.directory.Catalog(r.Context())
	if err != nil {
		return middleware.FromError(err, "Catalog not found")
	}
	return writeJSON(w, http.StatusOK, catalog)
}

// pageParams reads limit and offset for the category and tag pages.
func pageParams(r *http.Request) (int, int, error) {
	values := r.URL.Query()
	limit, err := limitParam(values)
	if err != nil {
		return 0, 0, err
	}
	offset, err := intParam(values, "offset")
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// categoryPage handles GET /api/categories/{slug}.
func (h *ListingHandler) categoryPage(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	limit, offset, err := pageParams(r)
	if err != nil {
		return middleware.BadRequest(err, err.Error())
	}
	page, err := h.directory.CategoryPage(r.Context(), chi.URLParam(r, "slug"), limit, offset)
	if err != nil {
		return middleware.FromError(err, "Category not found")
	}
	return writeJSON(w, http.StatusOK, page)
}

// tagPage handles GET /api/tags/{slug}.
func (h *ListingHandler) tagPage(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	limit, offset, err := pageParams(r)
	if err != nil {
		return middleware.BadRequest(err, err.Error())
	}
	page, err := h.directory.TagPage(r.Context(), chi.URLParam(r, "slug"), limit, offset)
	if err != nil {
		return middleware.FromError(err, "Tag not found")
	}
	return writeJSON(w, http.StatusOK, page)
}

// trackEvent handles POST /api/events.
func (h *ListingHandler) trackEvent(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req eventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody))
	if err := dec.Decode(&req); err != nil {
		return middleware.BadRequest(err, "Invalid event body")
	}
	if err := h.validate.Struct(req); err != nil {
		return middleware.BadRequest(err, err.Error())
	}

	client := middleware.GetClientInfo(r.Context())
	event := data.AnalyticsEvent{
		EventType: req.EventType,
		EventData: data.JSONMap(req.EventData),
		UserAgent: client.UserAgent,
		Referrer:  client.Referrer,
	}
	if req.ListingID != "" {
		event.ListingID = &req.ListingID
	}
	h.directory.TrackEvent(r.Context(), event)
	w.WriteHeader(http.StatusAccepted)
	return nil
}
