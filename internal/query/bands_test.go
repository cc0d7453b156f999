package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPriceBands(t *testing.T) {
	bands := PriceBands()
	require.Len(t, bands, 5)

	assert.Equal(t, "Dưới 100,000đ", bands[0].Label)
	assert.Equal(t, float64(0), bands[0].Min)
	assert.Equal(t, float64(100000), *bands[0].Max)

	// The top band is open-ended.
	assert.Equal(t, "Trên 5,000,000đ", bands[4].Label)
	assert.Equal(t, float64(5000000), bands[4].Min)
	assert.Nil(t, bands[4].Max)

	// Bands tile the price axis without gaps.
	for i := 1; i < len(bands); i++ {
		require.NotNil(t, bands[i-1].Max)
		assert.Equal(t, *bands[i-1].Max, bands[i].Min)
	}
}

func TestRatingBands(t *testing.T) {
	bands := RatingBands()
	require.Len(t, bands, 5)

	// Best band first, and its probe bound includes a perfect 5.0.
	assert.Equal(t, 4.5, bands[0].Min)
	assert.Greater(t, *bands[0].Max, 5.0)

	assert.Equal(t, float64(0), bands[4].Min)
	assert.Equal(t, 2.0, *bands[4].Max)
}

func TestBand_Facet_CapsTopRatingBand(t *testing.T) {
	top := RatingBands()[0]
	facet := top.Facet(7)

	assert.Equal(t, int64(7), facet.Count)
	assert.Equal(t, 4.5, facet.Min)
	require.NotNil(t, facet.Max)
	assert.Equal(t, 5.0, *facet.Max)
}

func TestBand_Facet_OpenEndedPriceBand(t *testing.T) {
	top := PriceBands()[4]
	facet := top.Facet(3)

	assert.Equal(t, "Trên 5,000,000đ", facet.Label)
	assert.Nil(t, facet.Max)
}

func TestBand_RangeFilter(t *testing.T) {
	base := bson.M{"isActive": true}
	band := PriceBands()[1]

	filter := band.RangeFilter(base, "price")

	assert.Equal(t, bson.M{"$gte": 100000.0, "$lt": 500000.0}, filter["price"])
	assert.Equal(t, true, filter["isActive"])

	// The base filter is copied, not mutated.
	assert.NotContains(t, base, "price")
}

func TestBand_RangeFilter_OpenEnded(t *testing.T) {
	band := PriceBands()[4]
	filter := band.RangeFilter(bson.M{}, "price")

	assert.Equal(t, bson.M{"$gte": 5000000.0}, filter["price"])
}

func TestDiscountFilter(t *testing.T) {
	base := bson.M{"isActive": true}
	filter := DiscountFilter(base)

	assert.Equal(t, bson.M{"$gt": bson.A{"$originalPrice", "$price"}}, filter["$expr"])
	assert.NotContains(t, base, "$expr")
}

func TestPriceAggRanges(t *testing.T) {
	ranges := priceAggRanges()
	require.Len(t, ranges, 5)

	// First band omits "from" at zero, last band omits "to".
	assert.NotContains(t, ranges[0], "from")
	assert.Equal(t, 100000.0, ranges[0]["to"])
	assert.Equal(t, 5000000.0, ranges[4]["from"])
	assert.NotContains(t, ranges[4], "to")
}

func TestRatingAggRanges(t *testing.T) {
	ranges := ratingAggRanges()
	require.Len(t, ranges, 5)

	// The top band keeps only its lower bound so a 5.0 average lands in it.
	assert.Equal(t, 4.5, ranges[0]["from"])
	assert.NotContains(t, ranges[0], "to")

	assert.Equal(t, 0.0, ranges[4]["from"])
	assert.Equal(t, 2.0, ranges[4]["to"])
}
