// Package catalog is the thin adapter over the product document store.
// It exposes filtered finds, counts, and the grouping aggregation the
// facet path needs; all search semantics live in the query builder.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tthanhhau/shopsearch/internal/domain"
	apperrors "github.com/tthanhhau/shopsearch/pkg/errors"
)

const productsCollection = "products"

// Connect opens a client against the document store and verifies the
// connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}

// Store adapts the product collection for the search core. It never
// mutates catalog documents except for the view counter.
type Store struct {
	products *mongo.Collection
}

// NewStore creates a store over the given database.
func NewStore(db *mongo.Database) *Store {
	return &Store{
		products: db.Collection(productsCollection),
	}
}

// FindProducts runs a filtered find with sort, skip, and limit.
func (s *Store) FindProducts(ctx context.Context, filter bson.M, sort bson.D, skip, limit int) ([]domain.Product, error) {
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	if len(sort) > 0 {
		opts.SetSort(sort)
	}

	cursor, err := s.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	products := make([]domain.Product, 0, limit)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// CountProducts counts documents matching the filter.
func (s *Store) CountProducts(ctx context.Context, filter bson.M) (int64, error) {
	total, err := s.products.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

// CategoryCounts groups matching documents by their denormalized category
// and counts each bucket.
func (s *Store) CategoryCounts(ctx context.Context, filter bson.M) ([]domain.CategoryFacet, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$category._id",
			"name":  bson.M{"$first": "$category.name"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := s.products.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate categories: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var rows []struct {
		ID    string `bson:"_id"`
		Name  string `bson:"name"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode category counts: %w", err)
	}

	facets := make([]domain.CategoryFacet, 0, len(rows))
	for _, row := range rows {
		facets = append(facets, domain.CategoryFacet{ID: row.ID, Name: row.Name, Count: row.Count})
	}
	return facets, nil
}

// IncrementViews bumps the view counter of an active product by one and
// returns the updated document. Each call increments; this is a counter,
// not a set operation.
func (s *Store) IncrementViews(ctx context.Context, slug string) (*domain.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product domain.Product
	err := s.products.FindOneAndUpdate(ctx,
		bson.M{"slug": slug, "isActive": true},
		bson.M{
			"$inc": bson.M{"views": 1},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
		opts,
	).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("product", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("increment views: %w", err)
	}
	return &product, nil
}

// Ping verifies the document store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.products.Database().Client().Ping(ctx, readpref.Primary())
}
