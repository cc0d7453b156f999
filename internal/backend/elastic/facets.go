package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/tthanhhau/shopsearch/internal/domain"
	"github.com/tthanhhau/shopsearch/internal/query"
)

// esAggBucket is one bucket of a terms or range aggregation.
type esAggBucket struct {
	Key      json.RawMessage `json:"key"`
	DocCount int64           `json:"doc_count"`
	Sub      struct {
		Buckets []struct {
			Key string `json:"key"`
		} `json:"buckets"`
	} `json:"category_name"`
}

// esFacetResponse decodes the facet aggregation response.
type esFacetResponse struct {
	Aggregations struct {
		Categories struct {
			Buckets []esAggBucket `json:"buckets"`
		} `json:"categories"`
		PriceRanges struct {
			Buckets []esAggBucket `json:"buckets"`
		} `json:"price_ranges"`
		HasDiscount struct {
			DocCount int64 `json:"doc_count"`
		} `json:"has_discount"`
		RatingRanges struct {
			Buckets []esAggBucket `json:"buckets"`
		} `json:"rating_ranges"`
	} `json:"aggregations"`
}

// Facets computes the filter-UI counts for the given text query. Price
// bands always report all five fixed bands; zero-count rating bands are
// omitted.
func (e *Engine) Facets(ctx context.Context, q string) (*domain.FacetSet, error) {
	body := query.FacetBody(q)

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch facets: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch facets: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch facets: %s", e.errorReason(res.Body, res.Status()))
	}

	var esResp esFacetResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch facets: decode response: %w", err)
	}

	aggs := esResp.Aggregations

	categories := make([]domain.CategoryFacet, 0, len(aggs.Categories.Buckets))
	for _, bucket := range aggs.Categories.Buckets {
		var id string
		_ = json.Unmarshal(bucket.Key, &id)
		name := id
		if len(bucket.Sub.Buckets) > 0 {
			name = bucket.Sub.Buckets[0].Key
		}
		categories = append(categories, domain.CategoryFacet{
			ID:    id,
			Name:  name,
			Count: bucket.DocCount,
		})
	}

	// Unkeyed range aggregations return buckets in request order, which
	// matches the fixed band order.
	priceBands := query.PriceBands()
	priceRanges := make([]domain.RangeFacet, 0, len(priceBands))
	for i, band := range priceBands {
		var count int64
		if i < len(aggs.PriceRanges.Buckets) {
			count = aggs.PriceRanges.Buckets[i].DocCount
		}
		priceRanges = append(priceRanges, band.Facet(count))
	}

	ratingBands := query.RatingBands()
	ratingRanges := make([]domain.RangeFacet, 0, len(ratingBands))
	for i, band := range ratingBands {
		var count int64
		if i < len(aggs.RatingRanges.Buckets) {
			count = aggs.RatingRanges.Buckets[i].DocCount
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
			Count: aggs.HasDiscount.DocCount,
			Label: query.DiscountLabel,
		},
		RatingRanges: ratingRanges,
	}, nil
}
