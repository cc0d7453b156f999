// Package http exposes the search subsystem over HTTP with the response
// envelope the storefront consumes.
package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tthanhhau/shopsearch/internal/domain"
	"github.com/tthanhhau/shopsearch/internal/service"
	apperrors "github.com/tthanhhau/shopsearch/pkg/errors"
	"github.com/tthanhhau/shopsearch/pkg/httputil"
	"github.com/tthanhhau/shopsearch/pkg/validator"
)

// SearchHandler handles the search API endpoints.
type SearchHandler struct {
	search *service.SearchService
	sync   *service.SyncService
	logger *slog.Logger
}

// NewSearchHandler creates a search HTTP handler.
func NewSearchHandler(search *service.SearchService, sync *service.SyncService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		search: search,
		sync:   sync,
		logger: logger,
	}
}

// searchParams collects and validates the raw query parameters before they
// become a normalized search request. sortBy is deliberately absent:
// unknown sort keys fall back to relevance semantics instead of failing.
type searchParams struct {
	SortOrder string   `validate:"omitempty,oneof=asc desc"`
	MinPrice  *float64 `validate:"omitempty,gte=0"`
	MaxPrice  *float64 `validate:"omitempty,gte=0"`
	MinRating *float64 `validate:"omitempty,gte=0,lte=5"`
}

// pagination is the page metadata block of a search response.
type pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int64 `json:"totalPages"`
	TotalProducts int64 `json:"totalProducts"`
	HasNextPage   bool  `json:"hasNextPage"`
	HasPrevPage   bool  `json:"hasPrevPage"`
	Limit         int   `json:"limit"`
}

// searchInfo echoes the interpreted query back to the caller.
type searchInfo struct {
	Query   string         `json:"query"`
	Filters map[string]any `json:"filters"`
	Sorting map[string]any `json:"sorting"`
}

// searchResponse is the full search envelope with its sibling blocks.
type searchResponse struct {
	Success    bool             `json:"success"`
	Data       []domain.Product `json:"data"`
	Pagination pagination       `json:"pagination"`
	SearchInfo searchInfo       `json:"searchInfo"`
}

// queriedResponse is the envelope for endpoints that echo the query term.
type queriedResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Query   string `json:"query"`
}

// Search handles GET /v1/api/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(r)
	if err != nil {
		httputil.WriteError(w, r, "invalid search parameters", err, h.logger)
		return
	}

	result, err := h.search.Search(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, "search failed", err, h.logger)
		return
	}

	products := result.Products
	if products == nil {
		products = []domain.Product{}
	}

	httputil.WriteJSON(w, http.StatusOK, searchResponse{
		Success: true,
		Data:    products,
		Pagination: pagination{
			CurrentPage:   result.Page,
			TotalPages:    result.TotalPages,
			TotalProducts: result.Total,
			HasNextPage:   int64(result.Page) < result.TotalPages,
			HasPrevPage:   result.Page > 1,
			Limit:         result.Limit,
		},
		SearchInfo: searchInfo{
			Query:   req.Query,
			Filters: filtersInfo(req),
			Sorting: map[string]any{
				"sortBy":    req.SortBy,
				"sortOrder": req.SortOrder,
			},
		},
	})
}

// Suggestions handles GET /v1/api/search/suggestions.
func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("q")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}

	suggestions, err := h.search.Suggest(r.Context(), prefix, limit)
	if err != nil {
		httputil.WriteError(w, r, "could not load suggestions", err, h.logger)
		return
	}
	if suggestions == nil {
		suggestions = []domain.Suggestion{}
	}

	httputil.WriteJSON(w, http.StatusOK, queriedResponse{
		Success: true,
		Data:    suggestions,
		Query:   strings.TrimSpace(prefix),
	})
}

// Facets handles GET /v1/api/search/facets.
func (h *SearchHandler) Facets(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	facets, err := h.search.Facets(r.Context(), query)
	if err != nil {
		httputil.WriteError(w, r, "could not load facets", err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, queriedResponse{
		Success: true,
		Data:    facets,
		Query:   query,
	})
}

// TrackView handles PATCH /v1/api/search/products/{slug}/views.
func (h *SearchHandler) TrackView(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		httputil.WriteError(w, r, "invalid product slug", apperrors.Validation("slug is required"), h.logger)
		return
	}

	product, err := h.search.TrackView(r.Context(), slug)
	if err != nil {
		httputil.WriteError(w, r, "could not update view count", err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Success: true,
		Message: "Product views incremented",
		Data:    product,
	})
}

// Resync handles POST /v1/api/search/sync.
func (h *SearchHandler) Resync(w http.ResponseWriter, r *http.Request) {
	report, err := h.sync.ResyncAll(r.Context())
	if err != nil {
		httputil.WriteError(w, r, "could not synchronize products", err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "catalog resync finished",
		slog.String("backend", h.search.Backend()),
		slog.Int("indexed", report.Indexed),
		slog.Int("failed", len(report.Failures)),
	)

	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Success: true,
		Message: "Products synchronized successfully",
		Data: map[string]any{
			"indexed": report.Indexed,
			"failed":  len(report.Failures),
		},
	})
}

// parseSearchRequest converts the query string into a search request,
// validating enumerated and bounded parameters.
func parseSearchRequest(r *http.Request) (*domain.SearchRequest, error) {
	q := r.URL.Query()

	req := &domain.SearchRequest{
		Query:     q.Get("q"),
		Category:  strings.TrimSpace(q.Get("category")),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	if v := q.Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil {
			req.Page = page
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			req.Limit = limit
		}
	}

	var err error
	if req.MinPrice, err = parseFloatParam(q.Get("minPrice"), "minPrice"); err != nil {
		return nil, err
	}
	if req.MaxPrice, err = parseFloatParam(q.Get("maxPrice"), "maxPrice"); err != nil {
		return nil, err
	}
	if req.MinRating, err = parseFloatParam(q.Get("minRating"), "minRating"); err != nil {
		return nil, err
	}
	if req.HasDiscount, err = parseBoolParam(q.Get("hasDiscount"), "hasDiscount"); err != nil {
		return nil, err
	}
	if req.Featured, err = parseBoolParam(q.Get("featured"), "featured"); err != nil {
		return nil, err
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return nil, apperrors.Validation("minPrice must not exceed maxPrice")
	}

	params := searchParams{
		SortOrder: req.SortOrder,
		MinPrice:  req.MinPrice,
		MaxPrice:  req.MaxPrice,
		MinRating: req.MinRating,
	}
	if err := validator.Validate(&params); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	return req, nil
}

func parseFloatParam(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.Validation(name + " must be a valid number")
	}
	return &v, nil
}

func parseBoolParam(raw, name string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.Validation(name + " must be true or false")
	}
	return &v, nil
}

// filtersInfo reports which structured filters were applied.
func filtersInfo(req *domain.SearchRequest) map[string]any {
	filters := map[string]any{}
	if req.Category != "" {
		filters["category"] = req.Category
	}
	if req.MinPrice != nil {
		filters["minPrice"] = *req.MinPrice
	}
	if req.MaxPrice != nil {
		filters["maxPrice"] = *req.MaxPrice
	}
	if req.HasDiscount != nil {
		filters["hasDiscount"] = *req.HasDiscount
	}
	if req.Featured != nil {
		filters["featured"] = *req.Featured
	}
	if req.MinRating != nil {
		filters["minRating"] = *req.MinRating
	}
	return filters
}
