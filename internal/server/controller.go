package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/nguyentranbao-ct/product-concierge/internal/models"
)

// Searcher is the slice of the concierge the HTTP surface needs.
type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error)
}

// ProductFinder looks a single product up by its SKU id.
type ProductFinder interface {
	ProductBySKU(ctx context.Context, skuID string) (*models.Product, error)
}

// HistoryReader serves a contact's recent searches. A nil reader means
// the activity store is disabled.
type HistoryReader interface {
	RecentSearches(ctx context.Context, contactURN string, limit int) ([]models.SearchSummary, error)
}

type Controller interface {
	Search(c echo.Context) error
	ProductBySKU(c echo.Context) error
	History(c echo.Context) error
	Health(c echo.Context) error
}

type controller struct {
	concierge Searcher
	products  ProductFinder
	history   HistoryReader
}

func NewController(concierge Searcher, products ProductFinder, history HistoryReader) Controller {
	return &controller{
		concierge: concierge,
		products:  products,
		history:   history,
	}
}

func (h *controller) Search(c echo.Context) error {
	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	// field validation happens inside Search so the kafka consumer gets
	// the same checks; a failure surfaces as a ValidationError
	result, err := h.concierge.Search(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *controller) ProductBySKU(c echo.Context) error {
	skuID := c.Param("sku_id")
	if skuID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sku id is required")
	}

	product, err := h.products.ProductBySKU(c.Request().Context(), skuID)
	if errors.Is(err, models.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 50
)

func (h *controller) History(c echo.Context) error {
	if h.history == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search history is not enabled")
	}

	urn := c.QueryParam("urn")
	if urn == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "urn is required")
	}
	limit := cast.ToInt(c.QueryParam("limit"))
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}

	searches, err := h.history.RecentSearches(c.Request().Context(), urn, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"searches": searches})
}

func (h *controller) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "product-concierge",
	})
}
