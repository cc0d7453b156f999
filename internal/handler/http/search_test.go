package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tthanhhau/shopsearch/internal/backend"
	"github.com/tthanhhau/shopsearch/internal/domain"
	"github.com/tthanhhau/shopsearch/internal/query"
	"github.com/tthanhhau/shopsearch/internal/service"
	apperrors "github.com/tthanhhau/shopsearch/pkg/errors"
	"github.com/tthanhhau/shopsearch/pkg/health"
	"github.com/tthanhhau/shopsearch/pkg/middleware"
)

const testSecret = "test-secret"

// fakeBackend serves canned results so handler tests cover the HTTP
// contract without a search cluster.
type fakeBackend struct {
	total      int64
	lastSearch *domain.SearchRequest
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Search(_ context.Context, req *domain.SearchRequest) (*domain.SearchResult, error) {
	copied := *req
	f.lastSearch = &copied

	products := []domain.Product{
		{ID: "p1", Name: "Tai nghe Bluetooth", Slug: "tai-nghe-bluetooth", Price: 890000, IsActive: true, Score: 7.2,
			Highlight: map[string][]string{"name": {"<em>Tai nghe</em> Bluetooth"}}},
	}
	return &domain.SearchResult{
		Products:   products,
		Total:      f.total,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: query.TotalPages(f.total, req.Limit),
	}, nil
}

func (f *fakeBackend) Suggest(_ context.Context, prefix string, limit int) ([]domain.Suggestion, error) {
	return []domain.Suggestion{{Text: prefix + " bluetooth", Score: 3}}, nil
}

func (f *fakeBackend) Facets(_ context.Context, _ string) (*domain.FacetSet, error) {
	priceRanges := make([]domain.RangeFacet, 0, 5)
	for _, band := range query.PriceBands() {
		priceRanges = append(priceRanges, band.Facet(1))
	}
	return &domain.FacetSet{
		Categories:  []domain.CategoryFacet{{ID: "cat-audio", Name: "Âm thanh", Count: 2}},
		PriceRanges: priceRanges,
		HasDiscount: domain.DiscountFacet{Count: 1, Label: query.DiscountLabel},
	}, nil
}

func (f *fakeBackend) IndexOne(context.Context, *domain.Product) error { return nil }

func (f *fakeBackend) BulkIndex(_ context.Context, products []domain.Product) (*backend.BulkReport, error) {
	return &backend.BulkReport{Indexed: len(products)}, nil
}

func (f *fakeBackend) DeleteOne(context.Context, string) error { return nil }

// fakeLister backs the resync path with an empty catalog.
type fakeLister struct{}

func (fakeLister) FindProducts(context.Context, bson.M, bson.D, int, int) ([]domain.Product, error) {
	return nil, nil
}

func (fakeLister) CountProducts(context.Context, bson.M) (int64, error) { return 0, nil }

type fakeViews struct{}

func (fakeViews) IncrementViews(_ context.Context, slug string) (*domain.Product, error) {
	if slug != "tai-nghe-bluetooth" {
		return nil, apperrors.NotFound("product", slug)
	}
	return &domain.Product{ID: "p1", Slug: slug, Views: 43}, nil
}

func newTestRouter(fb *fakeBackend) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	syncSvc := service.NewSyncService(fb, fakeLister{}, logger)
	searchSvc := service.NewSearchService(fb, fakeViews{}, syncSvc, nil, 0, logger)
	return NewRouter(searchSvc, syncSvc, health.NewHandler(), middleware.HMACValidator(testSecret), logger)
}

func doRequest(t *testing.T, router http.Handler, method, target string, opts ...func(*http.Request)) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for _, opt := range opts {
		opt(req)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w, body
}

func signToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		UserID: "u1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func TestSearch_Envelope(t *testing.T) {
	fb := &fakeBackend{total: 25}
	router := newTestRouter(fb)

	w, body := doRequest(t, router, http.MethodGet, "/v1/api/search?q=tai+nghe&page=2&limit=10")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	products := body["data"].([]any)
	require.Len(t, products, 1)
	first := products[0].(map[string]any)
	assert.Equal(t, "p1", first["_id"])
	assert.Equal(t, 7.2, first["_score"])
	assert.Contains(t, first["highlight"].(map[string]any), "name")

	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pagination["currentPage"])
	assert.Equal(t, float64(3), pagination["totalPages"])
	assert.Equal(t, float64(25), pagination["totalProducts"])
	assert.Equal(t, true, pagination["hasNextPage"])
	assert.Equal(t, true, pagination["hasPrevPage"])
	assert.Equal(t, float64(10), pagination["limit"])

	searchInfo := body["searchInfo"].(map[string]any)
	assert.Equal(t, "tai nghe", searchInfo["query"])
	sorting := searchInfo["sorting"].(map[string]any)
	assert.Equal(t, "relevance", sorting["sortBy"])
	assert.Equal(t, "desc", sorting["sortOrder"])
}

func TestSearch_FiltersEchoed(t *testing.T) {
	fb := &fakeBackend{total: 1}
	router := newTestRouter(fb)

	_, body := doRequest(t, router, http.MethodGet,
		"/v1/api/search?category=cat-audio&minPrice=100000&hasDiscount=true")

	filters := body["searchInfo"].(map[string]any)["filters"].(map[string]any)
	assert.Equal(t, "cat-audio", filters["category"])
	assert.Equal(t, float64(100000), filters["minPrice"])
	assert.Equal(t, true, filters["hasDiscount"])
	assert.NotContains(t, filters, "maxPrice")

	require.NotNil(t, fb.lastSearch)
	require.NotNil(t, fb.lastSearch.HasDiscount)
	assert.True(t, *fb.lastSearch.HasDiscount)
}

func TestSearch_LimitClamped(t *testing.T) {
	fb := &fakeBackend{total: 1}
	router := newTestRouter(fb)

	doRequest(t, router, http.MethodGet, "/v1/api/search?limit=500")

	require.NotNil(t, fb.lastSearch)
	assert.Equal(t, domain.MaxLimit, fb.lastSearch.Limit)
}

func TestSearch_UnknownSortByFallsBack(t *testing.T) {
	fb := &fakeBackend{total: 1}
	router := newTestRouter(fb)

	w, body := doRequest(t, router, http.MethodGet, "/v1/api/search?q=tai+nghe&sortBy=cheapest")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	// The key passes through unchanged; the query builder treats it as
	// relevance.
	require.NotNil(t, fb.lastSearch)
	assert.Equal(t, "cheapest", fb.lastSearch.SortBy)
}

func TestSearch_InvalidParams(t *testing.T) {
	router := newTestRouter(&fakeBackend{})

	tests := []struct {
		name   string
		target string
	}{
		{"bad sortOrder", "/v1/api/search?sortOrder=sideways"},
		{"non-numeric minPrice", "/v1/api/search?minPrice=abc"},
		{"negative minPrice", "/v1/api/search?minPrice=-5"},
		{"minPrice above maxPrice", "/v1/api/search?minPrice=500&maxPrice=100"},
		{"rating above five", "/v1/api/search?minRating=6"},
		{"bad hasDiscount", "/v1/api/search?hasDiscount=maybe"},
		{"bad featured", "/v1/api/search?featured=yep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doRequest(t, router, http.MethodGet, tt.target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSuggestions(t *testing.T) {
	router := newTestRouter(&fakeBackend{})

	w, body := doRequest(t, router, http.MethodGet, "/v1/api/search/suggestions?q=tai")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tai", body["query"])
	suggestions := body["data"].([]any)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "tai bluetooth", suggestions[0].(map[string]any)["text"])
}

func TestSuggestions_ShortPrefix(t *testing.T) {
	router := newTestRouter(&fakeBackend{})

	w, body := doRequest(t, router, http.MethodGet, "/v1/api/search/suggestions?q=t")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestFacets(t *testing.T) {
	router := newTestRouter(&fakeBackend{})

	w, body := doRequest(t, router, http.MethodGet, "/v1/api/search/facets?q=tai")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tai", body["query"])
	facets := body["data"].(map[string]any)
	assert.Len(t, facets["priceRanges"].([]any), 5)
	assert.Equal(t, "Có khuyến mãi", facets["hasDiscount"].(map[string]any)["label"])
}

func TestTrackView(t *testing.T) {
	router := newTestRouter(&fakeBackend{})

	w, body := doRequest(t, router, http.MethodPatch, "/v1/api/search/products/tai-nghe-bluetooth/views")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Product views incremented", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "p1", data["_id"])
	assert.Equal(t, float64(43), data["views"])
}

func TestTrackView_UnknownSlug(t *testing.T) {
	router := newTestRouter(&fakeBackend{})

	w, body := doRequest(t, router, http.MethodPatch, "/v1/api/search/products/khong-co/views")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestResync_RequiresToken(t *testing.T) {
	router := newTestRouter(&fakeBackend{})

	w, body := doRequest(t, router, http.MethodPost, "/v1/api/search/sync")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestResync_RequiresAdminRole(t *testing.T) {
	router := newTestRouter(&fakeBackend{})

	w, _ := doRequest(t, router, http.MethodPost, "/v1/api/search/sync",
		withBearer(signToken(t, "customer")))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestResync_Admin(t *testing.T) {
	router := newTestRouter(&fakeBackend{})

	w, body := doRequest(t, router, http.MethodPost, "/v1/api/search/sync",
		withBearer(signToken(t, "admin")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Products synchronized successfully", body["message"])
}
