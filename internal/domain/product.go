package domain

import (
	"math"
	"time"

	"github.com/tthanhhau/shopsearch/pkg/slug"
)

// CategoryRef is the denormalized category reference embedded in a product
// document for display and filtering.
type CategoryRef struct {
	ID   string `json:"_id" bson:"_id"`
	Name string `json:"name" bson:"name"`
	Slug string `json:"slug" bson:"slug"`
}

// Ratings holds the aggregated review score for a product.
type Ratings struct {
	Average float64 `json:"average" bson:"average"`
	Count   int     `json:"count" bson:"count"`
}

// Product is the catalog document as exposed through the search API.
// The catalog service owns and mutates it; the search core only reads it
// and copies projections into the engine index.
type Product struct {
	ID                 string      `json:"_id" bson:"_id"`
	Name               string      `json:"name" bson:"name"`
	Description        string      `json:"description" bson:"description"`
	Price              float64     `json:"price" bson:"price"`
	OriginalPrice      *float64    `json:"originalPrice,omitempty" bson:"originalPrice,omitempty"`
	DiscountPercentage float64     `json:"discountPercentage" bson:"discountPercentage"`
	Category           CategoryRef `json:"category" bson:"category"`
	Images             []string    `json:"images" bson:"images"`
	Stock              int         `json:"stock" bson:"stock"`
	Slug               string      `json:"slug" bson:"slug"`
	IsActive           bool        `json:"isActive" bson:"isActive"`
	Featured           bool        `json:"featured" bson:"featured"`
	Ratings            Ratings     `json:"ratings" bson:"ratings"`
	Tags               []string    `json:"tags" bson:"tags"`
	Views              int64       `json:"views" bson:"views"`
	Sales              int64       `json:"sales" bson:"sales"`
	CreatedAt          time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt" bson:"updatedAt"`

	// Score is the relevance score attached by the active backend. The
	// fallback backend performs no ranking and reports a constant 1.0.
	Score float64 `json:"_score" bson:"-"`

	// Highlight carries matched-fragment markup per field when the engine
	// backend is active. Absent on the fallback backend.
	Highlight map[string][]string `json:"highlight,omitempty" bson:"-"`
}

// DeriveSlug returns the URL slug for a product or category name.
// The write path calls this explicitly before persistence; there is no
// hook-based mutation.
func DeriveSlug(name string) string {
	return slug.Generate(name)
}

// DeriveDiscountPercentage computes the rounded discount percentage when
// the original price is set and strictly greater than the selling price,
// and 0 otherwise.
func DeriveDiscountPercentage(price float64, originalPrice *float64) float64 {
	if originalPrice == nil || *originalPrice <= price || *originalPrice <= 0 {
		return 0
	}
	return math.Round((*originalPrice - price) / *originalPrice * 100)
}

// HasDiscount reports whether the product is currently discounted.
func (p *Product) HasDiscount() bool {
	return p.OriginalPrice != nil && *p.OriginalPrice > p.Price
}

// Derive fills the computed fields (slug, discount percentage) from the
// product's source fields. Called before the product is indexed.
func (p *Product) Derive() {
	if p.Slug == "" {
		p.Slug = DeriveSlug(p.Name)
	}
	p.DiscountPercentage = DeriveDiscountPercentage(p.Price, p.OriginalPrice)
}
