package concierge

import (
	"context"
	"fmt"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/goccy/go-json"
	"github.com/nguyentranbao-ct/product-concierge/internal/models"
)

// StockEvaluator annotates products with availability and enforces the
// result size limits. Annotation and filtering are separate steps so
// after_stock_check plugins can still observe unavailable entries.
type StockEvaluator struct {
	stock StockService
}

func NewStockEvaluator(stock StockService) *StockEvaluator {
	return &StockEvaluator{stock: stock}
}

// Check tags every product with its availability under the request's
// region, sellers and postal code. The whole list goes through one cart
// simulation; a SKU the simulation did not answer falls back to a
// single-item lookup, and a fallback failure marks just that item
// unavailable. The output has one entry per input entry in input order.
// A failure of the simulation itself aborts the check.
func (e *StockEvaluator) Check(ctx context.Context, products []models.Product, sc *SearchContext) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return []models.Product{}, nil
	}

	quantity := sc.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	items := make([]models.CartItem, len(products))
	for i, p := range products {
		seller := p.SellerID
		if seller == "" {
			seller = "1"
		}
		items[i] = models.CartItem{SKUID: p.SKUID, Quantity: quantity, SellerID: seller}
	}

	sim, err := e.stock.SimulateCart(ctx, items, sc)
	if err != nil {
		return nil, fmt.Errorf("simulate cart: %w", err)
	}
	best := bestLineBySKU(sim.Items)

	checked := make([]models.Product, len(products))
	for i, p := range products {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, ok := best[p.SKUID]
		if !ok {
			line = e.lookupItem(ctx, p, quantity, sc)
		}
		applyLine(&p, line)
		checked[i] = p
	}
	return checked, nil
}

// bestLineBySKU keeps the highest-quantity simulation line per SKU. A
// regionalized simulation answers once per seller; the deepest stock wins.
func bestLineBySKU(lines []models.SimulationItem) map[string]*models.SimulationItem {
	best := make(map[string]*models.SimulationItem, len(lines))
	for i := range lines {
		line := &lines[i]
		current, ok := best[line.SKUID]
		if !ok || line.Quantity > current.Quantity {
			best[line.SKUID] = line
		}
	}
	return best
}

func (e *StockEvaluator) lookupItem(ctx context.Context, p models.Product, quantity int, sc *SearchContext) *models.SimulationItem {
	line, err := e.stock.QueryAvailability(ctx, p.SKUID, p.SellerID, quantity, sc)
	if err != nil {
		log.Warnw(ctx, "availability lookup failed, marking item unavailable",
			"sku_id", p.SKUID,
			"seller_id", p.SellerID,
			"region_id", sc.RegionID,
			"error", err,
		)
		return nil
	}
	return line
}

// applyLine copies the winning simulation line onto the product. The
// simulation's seller replaces the search's seller because that is who
// the region can actually fulfill through.
func applyLine(p *models.Product, line *models.SimulationItem) {
	if line == nil || !line.Available() {
		p.Available = false
		return
	}
	p.Available = true
	p.AvailableQuantity = line.Quantity
	p.MeasurementUnit = line.MeasurementUnit
	p.UnitMultiplier = line.UnitMultiplier
	if line.SellerID != "" {
		p.SellerID = line.SellerID
	}
}

// Filter drops unavailable products, preserving the order of the rest.
func (e *StockEvaluator) Filter(products []models.Product) []models.Product {
	filtered := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Available {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// LimitSize truncates to at most maxCount entries, keeping the prefix.
// Upstream order is relevance order, so the prefix is the best slice.
func (e *StockEvaluator) LimitSize(products []models.Product, maxCount int) []models.Product {
	if maxCount < 0 {
		maxCount = 0
	}
	if len(products) <= maxCount {
		return products
	}
	return products[:maxCount]
}

// LimitPayload drops lowest-relevance products until the serialized list
// fits into maxKB kilobytes. With maxKB <= 0 the list passes unchanged.
func (e *StockEvaluator) LimitPayload(products []models.Product, maxKB int) []models.Product {
	if maxKB <= 0 {
		return products
	}
	for len(products) > 0 {
		data, err := json.Marshal(products)
		if err != nil {
			// Products come from JSON in the first place, this should
			// not happen; keep the list rather than guessing.
			return products
		}
		if len(data) <= maxKB*1024 {
			break
		}
		products = products[:len(products)-1]
	}
	return products
}
