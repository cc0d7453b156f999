package elastic

import (
	"time"

	"github.com/tthanhhau/shopsearch/internal/domain"
)

// document is the product projection stored in the index. It mirrors the
// catalog document but carries the identifier as a plain field, since the
// engine reserves top-level underscore fields for metadata.
type document struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	Price              float64            `json:"price"`
	OriginalPrice      *float64           `json:"originalPrice,omitempty"`
	DiscountPercentage float64            `json:"discountPercentage"`
	Category           domain.CategoryRef `json:"category"`
	Images             []string           `json:"images"`
	Stock              int                `json:"stock"`
	Slug               string             `json:"slug"`
	IsActive           bool               `json:"isActive"`
	Featured           bool               `json:"featured"`
	Ratings            domain.Ratings     `json:"ratings"`
	Tags               []string           `json:"tags"`
	Views              int64              `json:"views"`
	Sales              int64              `json:"sales"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

func toDocument(p *domain.Product) document {
	return document{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		Price:              p.Price,
		OriginalPrice:      p.OriginalPrice,
		DiscountPercentage: p.DiscountPercentage,
		Category:           p.Category,
		Images:             p.Images,
		Stock:              p.Stock,
		Slug:               p.Slug,
		IsActive:           p.IsActive,
		Featured:           p.Featured,
		Ratings:            p.Ratings,
		Tags:               p.Tags,
		Views:              p.Views,
		Sales:              p.Sales,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func (d document) product() domain.Product {
	return domain.Product{
		ID:                 d.ID,
		Name:               d.Name,
		Description:        d.Description,
		Price:              d.Price,
		OriginalPrice:      d.OriginalPrice,
		DiscountPercentage: d.DiscountPercentage,
		Category:           d.Category,
		Images:             d.Images,
		Stock:              d.Stock,
		Slug:               d.Slug,
		IsActive:           d.IsActive,
		Featured:           d.Featured,
		Ratings:            d.Ratings,
		Tags:               d.Tags,
		Views:              d.Views,
		Sales:              d.Sales,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}
