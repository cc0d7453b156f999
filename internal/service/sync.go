package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tthanhhau/shopsearch/internal/backend"
	"github.com/tthanhhau/shopsearch/internal/domain"
	apperrors "github.com/tthanhhau/shopsearch/pkg/errors"
)

// resyncBatchSize is how many catalog documents one resync batch reads
// and bulk-indexes.
const resyncBatchSize = 500

// ProductLister is the slice of the catalog adapter the sync service
// needs to stream active products during a full resync.
type ProductLister interface {
	FindProducts(ctx context.Context, filter bson.M, sort bson.D, skip, limit int) ([]domain.Product, error)
	CountProducts(ctx context.Context, filter bson.M) (int64, error)
}

// SyncService implements the write side of the index: single upserts,
// deletes, bulk indexing, and the full catalog resync.
type SyncService struct {
	backend backend.SearchBackend
	catalog ProductLister
	logger  *slog.Logger
}

// NewSyncService creates a sync service.
func NewSyncService(b backend.SearchBackend, catalog ProductLister, logger *slog.Logger) *SyncService {
	return &SyncService{
		backend: b,
		catalog: catalog,
		logger:  logger,
	}
}

// IndexProduct derives the computed fields and upserts one product into
// the index.
func (s *SyncService) IndexProduct(ctx context.Context, product *domain.Product) error {
	if product.ID == "" {
		return apperrors.Validation("index product: id is required")
	}
	if product.Name == "" {
		return apperrors.Validation("index product: name is required")
	}

	product.Derive()

	if err := s.backend.IndexOne(ctx, product); err != nil {
		return apperrors.IndexSync(err)
	}

	s.logger.InfoContext(ctx, "product indexed",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
	)
	return nil
}

// DeleteProduct removes a product from the index. Deleting an absent
// product is not an error, so deletion events can be replayed.
func (s *SyncService) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.Validation("delete product: id is required")
	}

	if err := s.backend.DeleteOne(ctx, id); err != nil {
		return apperrors.IndexSync(err)
	}

	s.logger.InfoContext(ctx, "product deleted from index",
		slog.String("product_id", id),
	)
	return nil
}

// BulkIndex derives and upserts a batch of products, reporting per-item
// failures without aborting the batch.
func (s *SyncService) BulkIndex(ctx context.Context, products []domain.Product) (*backend.BulkReport, error) {
	valid := make([]domain.Product, 0, len(products))
	report := &backend.BulkReport{}
	for i := range products {
		if products[i].ID == "" {
			report.Failures = append(report.Failures, backend.BulkFailure{
				Reason: "id is required",
			})
			continue
		}
		products[i].Derive()
		valid = append(valid, products[i])
	}

	if len(valid) > 0 {
		backendReport, err := s.backend.BulkIndex(ctx, valid)
		if err != nil {
			return nil, apperrors.IndexSync(err)
		}
		report.Merge(backendReport)
	}

	return report, nil
}

// ResyncAll streams every active catalog product through the bulk index
// in batches and merges the per-batch reports.
func (s *SyncService) ResyncAll(ctx context.Context) (*backend.BulkReport, error) {
	filter := bson.M{"isActive": true}
	sort := bson.D{{Key: "_id", Value: 1}}

	total, err := s.catalog.CountProducts(ctx, filter)
	if err != nil {
		return nil, apperrors.IndexSync(fmt.Errorf("count active products: %w", err))
	}

	report := &backend.BulkReport{}
	for skip := 0; int64(skip) < total; skip += resyncBatchSize {
		batch, err := s.catalog.FindProducts(ctx, filter, sort, skip, resyncBatchSize)
		if err != nil {
			return nil, apperrors.IndexSync(fmt.Errorf("read resync batch at %d: %w", skip, err))
		}
		if len(batch) == 0 {
			break
		}

		batchReport, err := s.BulkIndex(ctx, batch)
		if err != nil {
			return nil, err
		}
		report.Merge(batchReport)
	}

	s.logger.InfoContext(ctx, "catalog resync completed",
		slog.Int64("active_products", total),
		slog.Int("indexed", report.Indexed),
		slog.Int("failed", len(report.Failures)),
	)
	return report, nil
}
