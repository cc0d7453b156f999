package domain

import "strings"

// Sort keys accepted by the search API.
const (
	SortRelevance = "relevance"
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
	SortViews     = "views"
	SortSales     = "sales"
	SortName      = "name"
)

// Pagination bounds. Limit is clamped server-side regardless of caller
// input so callers cannot force unbounded result sets.
const (
	DefaultLimit = 12
	MaxLimit     = 50

	DefaultSuggestLimit = 5
	MaxSuggestLimit     = 10
)

// SearchRequest is the normalized set of parameters for one search call.
// Nil pointer filters impose no constraint.
type SearchRequest struct {
	Query       string   `json:"query"`
	Category    string   `json:"category,omitempty"`
	MinPrice    *float64 `json:"minPrice,omitempty"`
	MaxPrice    *float64 `json:"maxPrice,omitempty"`
	HasDiscount *bool    `json:"hasDiscount,omitempty"`
	Featured    *bool    `json:"featured,omitempty"`
	MinRating   *float64 `json:"minRating,omitempty"`
	SortBy      string   `json:"sortBy"`
	SortOrder   string   `json:"sortOrder"`
	Page        int      `json:"page"`
	Limit       int      `json:"limit"`
}

// Normalize trims the query and clamps paging and sort fields into their
// valid ranges. Safe to call more than once.
func (r *SearchRequest) Normalize() {
	r.Query = strings.TrimSpace(r.Query)

	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	if r.SortBy == "" {
		r.SortBy = SortRelevance
	}
	if r.SortOrder != "asc" {
		r.SortOrder = "desc"
	}
}

// SearchResult is the canonical response shape produced by both backends.
type SearchResult struct {
	Products   []Product `json:"products"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int64     `json:"totalPages"`
}

// Suggestion is a single autocomplete completion.
type Suggestion struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// CategoryFacet is the per-category bucket of a facet set.
type CategoryFacet struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// RangeFacet is one fixed price or rating band. Max is nil for the
// open-ended top price band.
type RangeFacet struct {
	Label string   `json:"label"`
	Min   float64  `json:"min"`
	Max   *float64 `json:"max"`
	Count int64    `json:"count"`
}

// DiscountFacet counts documents currently on discount.
type DiscountFacet struct {
	Count int64  `json:"count"`
	Label string `json:"label"`
}

// FacetSet holds the filter-UI counts for the current text query. It is
// scoped by the implicit isActive filter and the free-text query only,
// never by the structured filters already applied.
type FacetSet struct {
	Categories   []CategoryFacet `json:"categories"`
	PriceRanges  []RangeFacet    `json:"priceRanges"`
	HasDiscount  DiscountFacet   `json:"hasDiscount"`
	RatingRanges []RangeFacet    `json:"ratingRanges"`
}
