package concierge

import (
	"context"

	"github.com/nguyentranbao-ct/product-concierge/internal/models"
)

// QueryService is the commerce backend the pipeline searches against.
// Plugins receive it as a read-only handle; they must not cache results
// across requests.
type QueryService interface {
	// Search runs the intelligent search and returns SKU-level products
	// in relevance order, at most maxProducts entries.
	Search(ctx context.Context, maxProducts int, sc *SearchContext) ([]models.Product, error)

	// SimulateCart checks fulfillment for a set of cart items under the
	// current region and seller constraints.
	SimulateCart(ctx context.Context, items []models.CartItem, sc *SearchContext) (*models.CartSimulation, error)

	// ResolveRegion maps a postal code to a region and its sellers.
	// Returns models.ErrRegionNotServed when no seller covers the code.
	ResolveRegion(ctx context.Context, postalCode string, tradePolicy int, countryCode string) (*models.Region, error)
}

// StockService answers availability for the stock evaluator. SimulateCart
// carries the full search context so the resolved region, sellers and
// postal code scope the simulation; QueryAvailability is the single-item
// fallback for SKUs the simulation did not answer.
type StockService interface {
	SimulateCart(ctx context.Context, items []models.CartItem, sc *SearchContext) (*models.CartSimulation, error)
	QueryAvailability(ctx context.Context, skuID, sellerID string, quantity int, sc *SearchContext) (*models.SimulationItem, error)
}

// ActivityRecorder persists one record per finished search request.
// Recording is best-effort; failures never affect the result.
type ActivityRecorder interface {
	RecordSearch(ctx context.Context, sc *SearchContext, result *models.SearchResult) error
}
