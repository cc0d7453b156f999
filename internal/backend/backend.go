// Package backend defines the capability shared by the two search
// implementations: the Elasticsearch engine and the catalog-store
// fallback. One of the two is selected at composition time and injected
// into the service layer; there is no per-request backend switching.
package backend

import (
	"context"

	"github.com/tthanhhau/shopsearch/internal/domain"
)

// SearchBackend executes search, suggestion, facet, and index operations.
// Both implementations consume the shared query builder, so a given
// request means the same thing on either one.
type SearchBackend interface {
	// Name identifies the backend in logs and health output.
	Name() string

	// Search executes a normalized search request.
	Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResult, error)

	// Suggest returns up to limit autocomplete completions for the prefix.
	Suggest(ctx context.Context, prefix string, limit int) ([]domain.Suggestion, error)

	// Facets computes filter-UI counts scoped by the free-text query only.
	Facets(ctx context.Context, q string) (*domain.FacetSet, error)

	// IndexOne upserts a product projection into the index.
	IndexOne(ctx context.Context, product *domain.Product) error

	// BulkIndex upserts a batch, reporting per-item failures without
	// aborting the whole batch.
	BulkIndex(ctx context.Context, products []domain.Product) (*BulkReport, error)

	// DeleteOne removes a product from the index. Deleting an absent id
	// is not an error.
	DeleteOne(ctx context.Context, id string) error
}

// BulkFailure describes one failed item of a bulk index request.
type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkReport summarizes a bulk index call.
type BulkReport struct {
	Indexed  int           `json:"indexed"`
	Failures []BulkFailure `json:"failures,omitempty"`
}

// Merge folds another report into this one.
func (r *BulkReport) Merge(other *BulkReport) {
	if other == nil {
		return
	}
	r.Indexed += other.Indexed
	r.Failures = append(r.Failures, other.Failures...)
}
