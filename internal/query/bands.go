package query

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tthanhhau/shopsearch/internal/domain"
)

// DiscountLabel is the storefront label for the discount facet bucket.
const DiscountLabel = "Có khuyến mãi"

// Band is one fixed facet band. Max nil means open-ended. The bands are
// fixed by the UI contract, never derived from the data distribution.
type Band struct {
	Label string
	Min   float64
	Max   *float64
}

func bound(v float64) *float64 { return &v }

// PriceBands returns the five fixed price bands in VND. The UI relies on
// band identity, so all five are always reported even at zero count.
func PriceBands() []Band {
	return []Band{
		{Label: "Dưới 100,000đ", Min: 0, Max: bound(100000)},
		{Label: "100,000đ - 500,000đ", Min: 100000, Max: bound(500000)},
		{Label: "500,000đ - 1,000,000đ", Min: 500000, Max: bound(1000000)},
		{Label: "1,000,000đ - 5,000,000đ", Min: 1000000, Max: bound(5000000)},
		{Label: "Trên 5,000,000đ", Min: 5000000, Max: nil},
	}
}

// RatingBands returns the five fixed rating bands, best first. Zero-count
// rating buckets are omitted from facet responses.
func RatingBands() []Band {
	return []Band{
		{Label: "4.5 sao trở lên", Min: 4.5, Max: bound(5.01)},
		{Label: "4.0 - 4.5 sao", Min: 4.0, Max: bound(4.5)},
		{Label: "3.0 - 4.0 sao", Min: 3.0, Max: bound(4.0)},
		{Label: "2.0 - 3.0 sao", Min: 2.0, Max: bound(3.0)},
		{Label: "Dưới 2.0 sao", Min: 0, Max: bound(2.0)},
	}
}

// Facet converts a band into its response shape. The top rating band is
// reported with max 5 (its probe bound is exclusive-above to include 5.0).
func (b Band) Facet(count int64) domain.RangeFacet {
	max := b.Max
	if max != nil && *max > 5 && b.Min >= 4 {
		max = bound(5)
	}
	return domain.RangeFacet{Label: b.Label, Min: b.Min, Max: max, Count: count}
}

// RangeFilter adds the band's half-open interval [Min, Max) on the given
// field to a copy of the base filter.
func (b Band) RangeFilter(base bson.M, field string) bson.M {
	filter := bson.M{}
	for k, v := range base {
		filter[k] = v
	}
	rng := bson.M{"$gte": b.Min}
	if b.Max != nil {
		rng["$lt"] = *b.Max
	}
	filter[field] = rng
	return filter
}

// DiscountFilter adds the discounted-document predicate to a copy of the
// base filter.
func DiscountFilter(base bson.M) bson.M {
	filter := bson.M{}
	for k, v := range base {
		filter[k] = v
	}
	filter["$expr"] = bson.M{"$gt": bson.A{"$originalPrice", "$price"}}
	return filter
}

// priceAggRanges returns the fixed price bands as engine range-agg bounds.
func priceAggRanges() []map[string]any {
	ranges := make([]map[string]any, 0, 5)
	for _, b := range PriceBands() {
		r := map[string]any{}
		if b.Min > 0 {
			r["from"] = b.Min
		}
		if b.Max != nil {
			r["to"] = *b.Max
		}
		ranges = append(ranges, r)
	}
	return ranges
}

// ratingAggRanges returns the fixed rating bands as engine range-agg bounds.
func ratingAggRanges() []map[string]any {
	ranges := make([]map[string]any, 0, 5)
	for _, b := range RatingBands() {
		r := map[string]any{"from": b.Min}
		if b.Max != nil && *b.Max <= 5 {
			r["to"] = *b.Max
		}
		ranges = append(ranges, r)
	}
	return ranges
}
