package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/product-concierge/internal/models"
	pkgmdw "github.com/nguyentranbao-ct/product-concierge/internal/server/middleware"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugw(string, ...interface{}) {}
func (nopLogger) Infow(string, ...interface{})  {}
func (nopLogger) Warnw(string, ...interface{})  {}
func (nopLogger) Errorw(string, ...interface{}) {}

type fakeSearcher struct {
	result *models.SearchResult
	err    error
}

func (f *fakeSearcher) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error) {
	if f.err != nil {
		return &models.SearchResult{Status: models.StatusFailed}, f.err
	}
	return f.result, nil
}

type fakeProductFinder struct {
	product *models.Product
	err     error
}

func (f *fakeProductFinder) ProductBySKU(ctx context.Context, skuID string) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.product, nil
}

type fakeHistoryReader struct {
	searches  []models.SearchSummary
	err       error
	lastURN   string
	lastLimit int
}

func (f *fakeHistoryReader) RecentSearches(ctx context.Context, contactURN string, limit int) ([]models.SearchSummary, error) {
	f.lastURN = contactURN
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.searches, nil
}

func newTestServer(searcher Searcher, opts ...func(*testDeps)) *echo.Echo {
	deps := &testDeps{
		products: &fakeProductFinder{},
		history:  &fakeHistoryReader{},
	}
	for _, opt := range opts {
		opt(deps)
	}

	e := echo.New()
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = errorHandler(nopLogger{})

	handler := NewController(searcher, deps.products, deps.history)
	e.GET("/health", handler.Health)
	e.POST("/api/v1/search", handler.Search)
	e.GET("/api/v1/products/:sku_id", handler.ProductBySKU)
	e.GET("/api/v1/history", handler.History)
	return e
}

type testDeps struct {
	products ProductFinder
	history  HistoryReader
}

func withProducts(f ProductFinder) func(*testDeps) {
	return func(d *testDeps) { d.products = f }
}

func withHistory(f HistoryReader) func(*testDeps) {
	return func(d *testDeps) { d.history = f }
}

func doSearch(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSearchOK(t *testing.T) {
	searcher := &fakeSearcher{result: &models.SearchResult{
		Status:   models.StatusComplete,
		Products: []models.Product{{SKUID: "100", SellerID: "1"}},
	}}
	e := newTestServer(searcher)

	rec := doSearch(e, `{"query": "arroz", "max_products": 5}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"complete"`)
	assert.Contains(t, rec.Body.String(), `"sku_id":"100"`)
}

func TestSearchBadBody(t *testing.T) {
	e := newTestServer(&fakeSearcher{})

	rec := doSearch(e, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchValidationError(t *testing.T) {
	searcher := &fakeSearcher{
		err: models.NewValidationError(assert.AnError),
	}
	e := newTestServer(searcher)

	rec := doSearch(e, `{"query": "arroz"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request")
}

func TestSearchServiceError(t *testing.T) {
	searcher := &fakeSearcher{
		err: models.NewServiceError("intelligent_search", assert.AnError),
	}
	e := newTestServer(searcher)

	rec := doSearch(e, `{"query": "arroz"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream_failure")
	assert.Contains(t, rec.Body.String(), "intelligent_search")
}

func TestProductBySKU(t *testing.T) {
	finder := &fakeProductFinder{product: &models.Product{SKUID: "61556", SellerID: "store1000"}}
	e := newTestServer(&fakeSearcher{}, withProducts(finder))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/61556", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sku_id":"61556"`)
}

func TestProductBySKUNotFound(t *testing.T) {
	finder := &fakeProductFinder{err: models.ErrNotFound}
	e := newTestServer(&fakeSearcher{}, withProducts(finder))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/999", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistory(t *testing.T) {
	history := &fakeHistoryReader{searches: []models.SearchSummary{
		{Query: "arroz", Status: models.StatusComplete, ProductCount: 3},
	}}
	e := newTestServer(&fakeSearcher{}, withHistory(history))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?urn=whatsapp:5511999990000&limit=5", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"query":"arroz"`)
	assert.Equal(t, "whatsapp:5511999990000", history.lastURN)
	assert.Equal(t, 5, history.lastLimit)
}

func TestHistoryRequiresURN(t *testing.T) {
	e := newTestServer(&fakeSearcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryClampsLimit(t *testing.T) {
	history := &fakeHistoryReader{}
	e := newTestServer(&fakeSearcher{}, withHistory(history))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?urn=whatsapp:551199&limit=9000", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, history.lastLimit)
}

func TestHistoryDisabled(t *testing.T) {
	e := newTestServer(&fakeSearcher{}, withHistory(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?urn=whatsapp:551199", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	e := newTestServer(&fakeSearcher{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
