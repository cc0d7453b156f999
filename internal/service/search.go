// Package service implements the business logic of the search subsystem:
// query execution, autocomplete, facets, view counting, and index sync.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/redis/go-redis/v9"

	"github.com/tthanhhau/shopsearch/internal/backend"
	"github.com/tthanhhau/shopsearch/internal/domain"
	apperrors "github.com/tthanhhau/shopsearch/pkg/errors"
)

// MinSuggestPrefix is the shortest prefix accepted by autocomplete.
const MinSuggestPrefix = 2

// ViewCounter is the slice of the catalog adapter the search service
// needs for the view-tracking endpoint.
type ViewCounter interface {
	IncrementViews(ctx context.Context, slug string) (*domain.Product, error)
}

// Reindexer re-indexes a single product after a catalog-side mutation.
type Reindexer interface {
	IndexProduct(ctx context.Context, product *domain.Product) error
}

// SearchService implements the read side: search, suggest, facets, and
// view tracking.
type SearchService struct {
	backend  backend.SearchBackend
	views    ViewCounter
	reindex  Reindexer
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewSearchService creates a search service. cache may be nil, in which
// case facet and suggestion caching is disabled.
func NewSearchService(b backend.SearchBackend, views ViewCounter, reindex Reindexer, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *SearchService {
	return &SearchService{
		backend:  b,
		views:    views,
		reindex:  reindex,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Search normalizes and executes a search request on the active backend.
func (s *SearchService) Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResult, error) {
	req.Normalize()

	result, err := s.backend.Search(ctx, req)
	if err != nil {
		return nil, apperrors.SearchExecution(err)
	}

	s.logger.DebugContext(ctx, "search executed",
		slog.String("backend", s.backend.Name()),
		slog.String("query", req.Query),
		slog.Int64("total", result.Total),
	)
	return result, nil
}

// Suggest returns autocomplete completions for the prefix. Prefixes
// shorter than two characters are rejected; the limit is clamped into
// its valid range.
func (s *SearchService) Suggest(ctx context.Context, prefix string, limit int) ([]domain.Suggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if utf8.RuneCountInString(prefix) < MinSuggestPrefix {
		return nil, apperrors.Validation(fmt.Sprintf("query must be at least %d characters", MinSuggestPrefix))
	}

	if limit < 1 {
		limit = domain.DefaultSuggestLimit
	}
	if limit > domain.MaxSuggestLimit {
		limit = domain.MaxSuggestLimit
	}

	cacheKey := fmt.Sprintf("search:suggest:%s:%s:%d", s.backend.Name(), strings.ToLower(prefix), limit)
	var cached []domain.Suggestion
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	suggestions, err := s.backend.Suggest(ctx, prefix, limit)
	if err != nil {
		return nil, apperrors.SearchExecution(err)
	}

	s.cacheSet(ctx, cacheKey, suggestions)
	return suggestions, nil
}

// Facets computes filter-UI counts for the given text query, serving
// from the short-lived cache when possible.
func (s *SearchService) Facets(ctx context.Context, q string) (*domain.FacetSet, error) {
	q = strings.TrimSpace(q)

	cacheKey := fmt.Sprintf("search:facets:%s:%s", s.backend.Name(), strings.ToLower(q))
	var cached domain.FacetSet
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	facets, err := s.backend.Facets(ctx, q)
	if err != nil {
		return nil, apperrors.SearchExecution(err)
	}

	s.cacheSet(ctx, cacheKey, facets)
	return facets, nil
}

// TrackView increments the view counter of the product with the given
// slug and returns the updated document. The index refresh runs in the
// background; a sync failure never fails the view.
func (s *SearchService) TrackView(ctx context.Context, slug string) (*domain.Product, error) {
	product, err := s.views.IncrementViews(ctx, slug)
	if err != nil {
		return nil, err
	}

	go func() {
		reindexCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.reindex.IndexProduct(reindexCtx, product); err != nil {
			s.logger.Warn("view count reindex failed",
				slog.String("slug", slug),
				slog.String("error", err.Error()),
			)
		}
	}()

	return product, nil
}

// Backend reports the name of the active backend.
func (s *SearchService) Backend() string {
	return s.backend.Name()
}

// cacheGet loads a cached JSON value. Cache failures only disable the
// cache for the call, they never fail the request.
func (s *SearchService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil || s.cacheTTL <= 0 {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.DebugContext(ctx, "cache get failed", "key", key, "error", err.Error())
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	return true
}

// cacheSet stores a JSON value with the configured TTL.
func (s *SearchService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.DebugContext(ctx, "cache set failed", "key", key, "error", err.Error())
	}
}
