package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tthanhhau/shopsearch/internal/domain"
)

func ptr(v float64) *float64 { return &v }
func bptr(v bool) *bool      { return &v }

func normalized(req domain.SearchRequest) *domain.SearchRequest {
	req.Normalize()
	return &req
}

func TestSkip(t *testing.T) {
	assert.Equal(t, 0, Skip(1, 12))
	assert.Equal(t, 12, Skip(2, 12))
	assert.Equal(t, 100, Skip(3, 50))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, int64(0), TotalPages(0, 12))
	assert.Equal(t, int64(1), TotalPages(1, 12))
	assert.Equal(t, int64(1), TotalPages(12, 12))
	assert.Equal(t, int64(2), TotalPages(13, 12))
	assert.Equal(t, int64(5), TotalPages(241, 50))
	assert.Equal(t, int64(0), TotalPages(10, 0))
}

func TestSearchBody_TextQuery(t *testing.T) {
	body := SearchBody(normalized(domain.SearchRequest{Query: "tai nghe"}))

	boolQuery := body["query"].(map[string]any)["bool"].(map[string]any)
	must := boolQuery["must"].([]any)
	require.Len(t, must, 1)

	mm := must[0].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "tai nghe", mm["query"])
	assert.Equal(t, []string{"name^3", "description^2", "tags^2", "category.name"}, mm["fields"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
	assert.Equal(t, "or", mm["operator"])
	assert.Equal(t, "75%", mm["minimum_should_match"])

	highlight := body["highlight"].(map[string]any)["fields"].(map[string]any)
	assert.Contains(t, highlight, "name")
	assert.Contains(t, highlight, "description")
}

func TestSearchBody_EmptyQueryMatchesAll(t *testing.T) {
	body := SearchBody(normalized(domain.SearchRequest{}))

	must := body["query"].(map[string]any)["bool"].(map[string]any)["must"].([]any)
	require.Len(t, must, 1)
	assert.Contains(t, must[0].(map[string]any), "match_all")
}

func TestSearchBody_AlwaysFiltersActive(t *testing.T) {
	body := SearchBody(normalized(domain.SearchRequest{Query: "áo"}))

	filters := body["query"].(map[string]any)["bool"].(map[string]any)["filter"].([]any)
	require.NotEmpty(t, filters)
	assert.Equal(t, map[string]any{"term": map[string]any{"isActive": true}}, filters[0])
}

func TestSearchBody_StructuredFilters(t *testing.T) {
	body := SearchBody(normalized(domain.SearchRequest{
		Category:    "cat-1",
		MinPrice:    ptr(100000),
		MaxPrice:    ptr(500000),
		HasDiscount: bptr(true),
		Featured:    bptr(true),
		MinRating:   ptr(4),
	}))

	filters := body["query"].(map[string]any)["bool"].(map[string]any)["filter"].([]any)
	assert.Contains(t, filters, map[string]any{"term": map[string]any{"category._id": "cat-1"}})
	assert.Contains(t, filters, map[string]any{"range": map[string]any{"price": map[string]any{"gte": 100000.0, "lte": 500000.0}}})
	assert.Contains(t, filters, map[string]any{"range": map[string]any{"discountPercentage": map[string]any{"gt": 0}}})
	assert.Contains(t, filters, map[string]any{"term": map[string]any{"featured": true}})
	assert.Contains(t, filters, map[string]any{"range": map[string]any{"ratings.average": map[string]any{"gte": 4.0}}})
}

func TestSearchBody_HasDiscountFalse(t *testing.T) {
	body := SearchBody(normalized(domain.SearchRequest{HasDiscount: bptr(false)}))

	filters := body["query"].(map[string]any)["bool"].(map[string]any)["filter"].([]any)
	assert.Contains(t, filters, map[string]any{"range": map[string]any{"discountPercentage": map[string]any{"lte": 0}}})
}

func TestSearchBody_Pagination(t *testing.T) {
	body := SearchBody(normalized(domain.SearchRequest{Page: 3, Limit: 20}))

	assert.Equal(t, 40, body["from"])
	assert.Equal(t, 20, body["size"])
	assert.Equal(t, true, body["track_total_hits"])
}

func TestEngineSort(t *testing.T) {
	tests := []struct {
		name string
		req  domain.SearchRequest
		want []any
	}{
		{
			name: "relevance with query sorts by score",
			req:  domain.SearchRequest{Query: "tai nghe", SortBy: domain.SortRelevance},
			want: []any{map[string]any{"_score": map[string]any{"order": "desc"}}},
		},
		{
			name: "relevance without query degrades to newest",
			req:  domain.SearchRequest{SortBy: domain.SortRelevance},
			want: []any{map[string]any{"createdAt": map[string]any{"order": "desc"}}},
		},
		{
			name: "price asc ignores sort order",
			req:  domain.SearchRequest{SortBy: domain.SortPriceAsc, SortOrder: "desc"},
			want: []any{map[string]any{"price": map[string]any{"order": "asc"}}},
		},
		{
			name: "price desc",
			req:  domain.SearchRequest{SortBy: domain.SortPriceDesc},
			want: []any{map[string]any{"price": map[string]any{"order": "desc"}}},
		},
		{
			name: "rating",
			req:  domain.SearchRequest{SortBy: domain.SortRating},
			want: []any{map[string]any{"ratings.average": map[string]any{"order": "desc"}}},
		},
		{
			name: "name uses keyword subfield",
			req:  domain.SearchRequest{SortBy: domain.SortName, SortOrder: "asc"},
			want: []any{map[string]any{"name.keyword": map[string]any{"order": "asc"}}},
		},
		{
			name: "newest fixed desc",
			req:  domain.SearchRequest{SortBy: domain.SortNewest, SortOrder: "asc"},
			want: []any{map[string]any{"createdAt": map[string]any{"order": "desc"}}},
		},
		{
			name: "oldest fixed asc",
			req:  domain.SearchRequest{SortBy: domain.SortOldest},
			want: []any{map[string]any{"createdAt": map[string]any{"order": "asc"}}},
		},
		{
			name: "unknown key treated as relevance",
			req:  domain.SearchRequest{Query: "tai nghe", SortBy: "cheapest"},
			want: []any{map[string]any{"_score": map[string]any{"order": "desc"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engineSort(normalized(tt.req)))
		})
	}
}

func TestFacetBody_ScopedByQueryOnly(t *testing.T) {
	body := FacetBody("tai nghe")

	assert.Equal(t, 0, body["size"])

	boolQuery := body["query"].(map[string]any)["bool"].(map[string]any)
	filters := boolQuery["filter"].([]any)
	require.Len(t, filters, 1)
	assert.Equal(t, map[string]any{"term": map[string]any{"isActive": true}}, filters[0])

	aggs := body["aggs"].(map[string]any)
	assert.Contains(t, aggs, "categories")
	assert.Contains(t, aggs, "price_ranges")
	assert.Contains(t, aggs, "has_discount")
	assert.Contains(t, aggs, "rating_ranges")

	priceRanges := aggs["price_ranges"].(map[string]any)["range"].(map[string]any)["ranges"].([]map[string]any)
	assert.Len(t, priceRanges, 5)
}

func TestSuggestBody(t *testing.T) {
	body := SuggestBody("tai", 5)

	suggest := body["suggest"].(map[string]any)["product_suggest"].(map[string]any)
	assert.Equal(t, "tai", suggest["prefix"])

	completion := suggest["completion"].(map[string]any)
	assert.Equal(t, "name.suggest", completion["field"])
	assert.Equal(t, 5, completion["size"])
	assert.Equal(t, true, completion["skip_duplicates"])
}

func TestFilter_TextSpansSameFieldsAsEngine(t *testing.T) {
	filter := Filter(normalized(domain.SearchRequest{Query: "tai (nghe)"}))

	assert.Equal(t, true, filter["isActive"])

	or := filter["$or"].([]bson.M)
	require.Len(t, or, 4)

	re := or[0]["name"].(primitive.Regex)
	assert.Equal(t, `tai \(nghe\)`, re.Pattern)
	assert.Equal(t, "i", re.Options)

	fields := make([]string, 0, len(or))
	for _, clause := range or {
		for field := range clause {
			fields = append(fields, field)
		}
	}
	assert.ElementsMatch(t, []string{"name", "description", "tags", "category.name"}, fields)
}

func TestFilter_StructuredFilters(t *testing.T) {
	filter := Filter(normalized(domain.SearchRequest{
		Category:  "cat-1",
		MinPrice:  ptr(100000),
		MaxPrice:  ptr(500000),
		Featured:  bptr(false),
		MinRating: ptr(4.5),
	}))

	assert.Equal(t, "cat-1", filter["category._id"])
	assert.Equal(t, bson.M{"$gte": 100000.0, "$lte": 500000.0}, filter["price"])
	assert.Equal(t, false, filter["featured"])
	assert.Equal(t, bson.M{"$gte": 4.5}, filter["ratings.average"])
}

func TestFilter_HasDiscount(t *testing.T) {
	discounted := Filter(normalized(domain.SearchRequest{HasDiscount: bptr(true)}))
	assert.Equal(t, bson.M{"$gt": bson.A{"$originalPrice", "$price"}}, discounted["$expr"])

	fullPrice := Filter(normalized(domain.SearchRequest{HasDiscount: bptr(false)}))
	assert.Equal(t, bson.M{"$lte": bson.A{"$originalPrice", "$price"}}, fullPrice["$expr"])
}

func TestFacetFilter(t *testing.T) {
	withQuery := FacetFilter("tai nghe")
	assert.Equal(t, true, withQuery["isActive"])
	assert.Len(t, withQuery["$or"].([]bson.M), 4)

	empty := FacetFilter("")
	assert.Equal(t, bson.M{"isActive": true}, empty)
}

func TestSuggestFilter(t *testing.T) {
	filter := SuggestFilter("tai")

	assert.Equal(t, true, filter["isActive"])
	re := filter["name"].(primitive.Regex)
	assert.Equal(t, "tai", re.Pattern)
	assert.Equal(t, "i", re.Options)
}

func TestSort(t *testing.T) {
	tests := []struct {
		name string
		req  domain.SearchRequest
		want bson.D
	}{
		{
			name: "relevance degrades to newest",
			req:  domain.SearchRequest{SortBy: domain.SortRelevance},
			want: bson.D{{Key: "createdAt", Value: -1}},
		},
		{
			name: "price asc",
			req:  domain.SearchRequest{SortBy: domain.SortPriceAsc},
			want: bson.D{{Key: "price", Value: 1}},
		},
		{
			name: "rating honors order",
			req:  domain.SearchRequest{SortBy: domain.SortRating, SortOrder: "asc"},
			want: bson.D{{Key: "ratings.average", Value: 1}},
		},
		{
			name: "views default desc",
			req:  domain.SearchRequest{SortBy: domain.SortViews},
			want: bson.D{{Key: "views", Value: -1}},
		},
		{
			name: "name asc",
			req:  domain.SearchRequest{SortBy: domain.SortName, SortOrder: "asc"},
			want: bson.D{{Key: "name", Value: 1}},
		},
		{
			name: "oldest fixed asc",
			req:  domain.SearchRequest{SortBy: domain.SortOldest, SortOrder: "desc"},
			want: bson.D{{Key: "createdAt", Value: 1}},
		},
		{
			name: "unknown key treated as relevance",
			req:  domain.SearchRequest{SortBy: "cheapest"},
			want: bson.D{{Key: "createdAt", Value: -1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sort(normalized(tt.req)))
		})
	}
}
