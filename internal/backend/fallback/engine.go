// Package fallback implements the search backend directly on the catalog
// document store. It is selected at startup when the search engine is
// unreachable, and trades ranking quality for availability: matching is
// substring-based, scores are constant, and there is no highlighting.
package fallback

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tthanhhau/shopsearch/internal/backend"
	"github.com/tthanhhau/shopsearch/internal/domain"
	"github.com/tthanhhau/shopsearch/internal/query"
)

// constantScore is attached to every fallback hit; the store does no
// relevance ranking.
const constantScore = 1.0

// Store is the slice of the catalog adapter the fallback backend needs.
type Store interface {
	FindProducts(ctx context.Context, filter bson.M, sort bson.D, skip, limit int) ([]domain.Product, error)
	CountProducts(ctx context.Context, filter bson.M) (int64, error)
	CategoryCounts(ctx context.Context, filter bson.M) ([]domain.CategoryFacet, error)
}

// Engine is the catalog-store implementation of SearchBackend.
type Engine struct {
	store  Store
	logger *slog.Logger
}

// New creates a fallback engine over the catalog store.
func New(store Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger,
	}
}

// Name identifies the backend in logs and health output.
func (e *Engine) Name() string { return "fallback" }

// Search executes a normalized request against the catalog store using
// the shared filter and sort builders.
func (e *Engine) Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResult, error) {
	filter := query.Filter(req)

	total, err := e.store.CountProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("fallback search: %w", err)
	}

	products, err := e.store.FindProducts(ctx, filter, query.Sort(req), query.Skip(req.Page, req.Limit), req.Limit)
	if err != nil {
		return nil, fmt.Errorf("fallback search: %w", err)
	}
	for i := range products {
		products[i].Score = constantScore
	}

	return &domain.SearchResult{
		Products:   products,
		Total:      total,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: query.TotalPages(total, req.Limit),
	}, nil
}

// Suggest returns product names containing the prefix. Duplicated names
// collapse into one suggestion, so batches are read until the limit is
// filled or the matches run out.
func (e *Engine) Suggest(ctx context.Context, prefix string, limit int) ([]domain.Suggestion, error) {
	filter := query.SuggestFilter(prefix)
	sort := bson.D{{Key: "views", Value: -1}}
	batch := limit * 4

	seen := make(map[string]struct{})
	suggestions := make([]domain.Suggestion, 0, limit)
	for skip := 0; len(suggestions) < limit; skip += batch {
		products, err := e.store.FindProducts(ctx, filter, sort, skip, batch)
		if err != nil {
			return nil, fmt.Errorf("fallback suggest: %w", err)
		}

		for _, p := range products {
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = struct{}{}
			suggestions = append(suggestions, domain.Suggestion{Text: p.Name, Score: constantScore})
			if len(suggestions) >= limit {
				break
			}
		}

		if len(products) < batch {
			break
		}
	}
	return suggestions, nil
}

// Facets computes the filter-UI counts with one count query per fixed
// band plus a grouping aggregation for categories. All five price bands
// are always reported; zero-count rating bands are omitted.
func (e *Engine) Facets(ctx context.Context, q string) (*domain.FacetSet, error) {
	base := query.FacetFilter(q)

	categories, err := e.store.CategoryCounts(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("fallback facets: %w", err)
	}

	priceBands := query.PriceBands()
	priceRanges := make([]domain.RangeFacet, 0, len(priceBands))
	for _, band := range priceBands {
		count, err := e.store.CountProducts(ctx, band.RangeFilter(base, "price"))
		if err != nil {
			return nil, fmt.Errorf("fallback facets: price band %q: %w", band.Label, err)
		}
		priceRanges = append(priceRanges, band.Facet(count))
	}

	discountCount, err := e.store.CountProducts(ctx, query.DiscountFilter(base))
	if err != nil {
		return nil, fmt.Errorf("fallback facets: discount: %w", err)
	}

	ratingBands := query.RatingBands()
	ratingRanges := make([]domain.RangeFacet, 0, len(ratingBands))
	for _, band := range ratingBands {
		count, err := e.store.CountProducts(ctx, band.RangeFilter(base, "ratings.average"))
		if err != nil {
			return nil, fmt.Errorf("fallback facets: rating band %q: %w", band.Label, err)
		}
		if count == 0 {
			continue
		}
		ratingRanges = append(ratingRanges, band.Facet(count))
	}

	return &domain.FacetSet{
		Categories:  categories,
		PriceRanges: priceRanges,
		HasDiscount: domain.DiscountFacet{
			Count: discountCount,
			Label: query.DiscountLabel,
		},
		RatingRanges: ratingRanges,
	}, nil
}

// IndexOne is a no-op; the fallback backend reads the catalog directly,
// so there is no separate index to maintain.
func (e *Engine) IndexOne(ctx context.Context, product *domain.Product) error {
	e.logger.Debug("fallback backend active, skipping index", "id", product.ID)
	return nil
}

// BulkIndex is a no-op for the same reason as IndexOne.
func (e *Engine) BulkIndex(ctx context.Context, products []domain.Product) (*backend.BulkReport, error) {
	e.logger.Debug("fallback backend active, skipping bulk index", "count", len(products))
	return &backend.BulkReport{}, nil
}

// DeleteOne is a no-op; deactivated products drop out through the
// isActive filter.
func (e *Engine) DeleteOne(ctx context.Context, id string) error {
	e.logger.Debug("fallback backend active, skipping delete", "id", id)
	return nil
}
