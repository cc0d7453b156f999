// Package query translates normalized search requests into backend
// executable queries. Both backends consume the same builder so filter
// semantics, sort mapping, and pagination math cannot drift between the
// search engine and the catalog-store fallback.
package query

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tthanhhau/shopsearch/internal/domain"
)

// searchFields are the weighted full-text fields. Name ranks highest,
// then description and tags, then the denormalized category name.
var searchFields = []string{"name^3", "description^2", "tags^2", "category.name"}

// Skip returns the result offset for the given page and limit.
func Skip(page, limit int) int {
	return (page - 1) * limit
}

// TotalPages returns ceil(total/limit); 0 when total is 0.
func TotalPages(total int64, limit int) int64 {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

// --- Elasticsearch query DSL ---

// textClause returns the full-text must clause: weighted fuzzy multi_match
// for a non-empty query, match_all otherwise.
func textClause(q string) map[string]any {
	if q == "" {
		return map[string]any{"match_all": map[string]any{}}
	}
	return map[string]any{
		"multi_match": map[string]any{
			"query":                q,
			"fields":               searchFields,
			"fuzziness":            "AUTO",
			"operator":             "or",
			"minimum_should_match": "75%",
		},
	}
}

// SearchBody builds the engine search request body for a normalized request.
func SearchBody(req *domain.SearchRequest) map[string]any {
	filters := []any{
		map[string]any{"term": map[string]any{"isActive": true}},
	}

	if req.Category != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"category._id": req.Category},
		})
	}

	if req.MinPrice != nil || req.MaxPrice != nil {
		priceRange := map[string]any{}
		if req.MinPrice != nil {
			priceRange["gte"] = *req.MinPrice
		}
		if req.MaxPrice != nil {
			priceRange["lte"] = *req.MaxPrice
		}
		filters = append(filters, map[string]any{
			"range": map[string]any{"price": priceRange},
		})
	}

	if req.HasDiscount != nil {
		// Discounted documents carry a derived discountPercentage > 0.
		if *req.HasDiscount {
			filters = append(filters, map[string]any{
				"range": map[string]any{"discountPercentage": map[string]any{"gt": 0}},
			})
		} else {
			filters = append(filters, map[string]any{
				"range": map[string]any{"discountPercentage": map[string]any{"lte": 0}},
			})
		}
	}

	if req.Featured != nil {
		filters = append(filters, map[string]any{
			"term": map[string]any{"featured": *req.Featured},
		})
	}

	if req.MinRating != nil {
		filters = append(filters, map[string]any{
			"range": map[string]any{"ratings.average": map[string]any{"gte": *req.MinRating}},
		})
	}

	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must":   []any{textClause(req.Query)},
				"filter": filters,
			},
		},
		"from":             Skip(req.Page, req.Limit),
		"size":             req.Limit,
		"track_total_hits": true,
		"highlight": map[string]any{
			"fields": map[string]any{
				"name":        map[string]any{},
				"description": map[string]any{},
			},
		},
	}

	if sort := engineSort(req); sort != nil {
		body["sort"] = sort
	}

	return body
}

// engineSort maps the request sort key onto an engine sort clause. A nil
// return means "rank by score", the engine default.
func engineSort(req *domain.SearchRequest) []any {
	order := map[string]any{"order": req.SortOrder}

	switch req.SortBy {
	case domain.SortPriceAsc:
		return []any{map[string]any{"price": map[string]any{"order": "asc"}}}
	case domain.SortPriceDesc:
		return []any{map[string]any{"price": map[string]any{"order": "desc"}}}
	case domain.SortRating:
		return []any{map[string]any{"ratings.average": order}}
	case domain.SortViews:
		return []any{map[string]any{"views": order}}
	case domain.SortSales:
		return []any{map[string]any{"sales": order}}
	case domain.SortNewest:
		return []any{map[string]any{"createdAt": map[string]any{"order": "desc"}}}
	case domain.SortOldest:
		return []any{map[string]any{"createdAt": map[string]any{"order": "asc"}}}
	case domain.SortName:
		return []any{map[string]any{"name.keyword": order}}
	default:
		// Relevance (and unknown keys): score order when there is a query,
		// otherwise newest first since relevance is undefined.
		if req.Query == "" {
			return []any{map[string]any{"createdAt": map[string]any{"order": "desc"}}}
		}
		return []any{map[string]any{"_score": map[string]any{"order": "desc"}}}
	}
}

// FacetBody builds the engine aggregation request for the facet endpoint.
// Facets are scoped by isActive and the free-text query only.
func FacetBody(q string) map[string]any {
	return map[string]any{
		"size": 0,
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{textClause(q)},
				"filter": []any{
					map[string]any{"term": map[string]any{"isActive": true}},
				},
			},
		},
		"aggs": map[string]any{
			"categories": map[string]any{
				"terms": map[string]any{"field": "category._id", "size": 20},
				"aggs": map[string]any{
					"category_name": map[string]any{
						"terms": map[string]any{"field": "category.name.keyword"},
					},
				},
			},
			"price_ranges": map[string]any{
				"range": map[string]any{
					"field":  "price",
					"ranges": priceAggRanges(),
				},
			},
			"has_discount": map[string]any{
				"filter": map[string]any{
					"range": map[string]any{"discountPercentage": map[string]any{"gt": 0}},
				},
			},
			"rating_ranges": map[string]any{
				"range": map[string]any{
					"field":  "ratings.average",
					"ranges": ratingAggRanges(),
				},
			},
		},
	}
}

// SuggestBody builds the completion-suggest request over product names.
func SuggestBody(prefix string, limit int) map[string]any {
	return map[string]any{
		"suggest": map[string]any{
			"product_suggest": map[string]any{
				"prefix": prefix,
				"completion": map[string]any{
					"field":           "name.suggest",
					"size":            limit,
					"skip_duplicates": true,
				},
			},
		},
	}
}

// --- Catalog store (MongoDB) queries ---

// textOr returns the case-insensitive substring clauses spanning the same
// fields as the engine's multi_match.
func textOr(q string) []bson.M {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	return []bson.M{
		{"name": re},
		{"description": re},
		{"tags": re},
		{"category.name": re},
	}
}

// Filter builds the catalog-store filter document for a normalized request.
// All clauses AND-combine with the implicit isActive filter.
func Filter(req *domain.SearchRequest) bson.M {
	filter := bson.M{"isActive": true}

	if req.Query != "" {
		filter["$or"] = textOr(req.Query)
	}

	if req.Category != "" {
		filter["category._id"] = req.Category
	}

	if req.MinPrice != nil || req.MaxPrice != nil {
		price := bson.M{}
		if req.MinPrice != nil {
			price["$gte"] = *req.MinPrice
		}
		if req.MaxPrice != nil {
			price["$lte"] = *req.MaxPrice
		}
		filter["price"] = price
	}

	if req.HasDiscount != nil {
		if *req.HasDiscount {
			filter["$expr"] = bson.M{"$gt": bson.A{"$originalPrice", "$price"}}
		} else {
			// Missing originalPrice compares as null, below any number, so
			// undiscounted documents are included.
			filter["$expr"] = bson.M{"$lte": bson.A{"$originalPrice", "$price"}}
		}
	}

	if req.Featured != nil {
		filter["featured"] = *req.Featured
	}

	if req.MinRating != nil {
		filter["ratings.average"] = bson.M{"$gte": *req.MinRating}
	}

	return filter
}

// FacetFilter builds the catalog-store filter for facet computation:
// isActive plus the free-text query, nothing else.
func FacetFilter(q string) bson.M {
	filter := bson.M{"isActive": true}
	if q != "" {
		filter["$or"] = textOr(q)
	}
	return filter
}

// SuggestFilter matches active products whose name contains the prefix,
// case-insensitively.
func SuggestFilter(prefix string) bson.M {
	return bson.M{
		"isActive": true,
		"name":     primitive.Regex{Pattern: regexp.QuoteMeta(prefix), Options: "i"},
	}
}

// Sort maps the request sort key onto a catalog-store sort document. The
// fallback backend has no scoring, so relevance degrades to newest first.
func Sort(req *domain.SearchRequest) bson.D {
	dir := -1
	if req.SortOrder == "asc" {
		dir = 1
	}

	switch req.SortBy {
	case domain.SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}}
	case domain.SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}}
	case domain.SortRating:
		return bson.D{{Key: "ratings.average", Value: dir}}
	case domain.SortViews:
		return bson.D{{Key: "views", Value: dir}}
	case domain.SortSales:
		return bson.D{{Key: "sales", Value: dir}}
	case domain.SortNewest:
		return bson.D{{Key: "createdAt", Value: -1}}
	case domain.SortOldest:
		return bson.D{{Key: "createdAt", Value: 1}}
	case domain.SortName:
		return bson.D{{Key: "name", Value: dir}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}
