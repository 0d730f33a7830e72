package wholesale

import (
	"context"
	"fmt"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/go-resty/resty/v2"
	gocache "github.com/patrickmn/go-cache"

	"github.com/nguyentranbao-ct/product-concierge/internal/concierge"
	"github.com/nguyentranbao-ct/product-concierge/internal/models"
	"github.com/nguyentranbao-ct/product-concierge/pkg/util"
)

// Plugin enriches stock-checked products with wholesale pricing: the
// minimum quantity and the per-unit price at that quantity. Lookups go
// to the store's fixed-prices API and are cached per SKU.
type Plugin struct {
	rest          *resty.Client
	fixedPriceURL string
	cache         *gocache.Cache
}

const cacheTTL = 10 * time.Minute

func New(fixedPriceURL string) *Plugin {
	return &Plugin{
		rest:          util.NewRestyClient(),
		fixedPriceURL: fixedPriceURL,
		cache:         gocache.New(cacheTTL, 2*cacheTTL),
	}
}

func (p *Plugin) Name() string {
	return "wholesale"
}

type fixedPrice struct {
	MinQuantity int     `json:"minQuantity"`
	Value       float64 `json:"value"`
}

func (p *Plugin) AfterStockCheck(ctx context.Context, products []models.Product, sc *concierge.SearchContext, query concierge.QueryService) ([]models.Product, error) {
	if p.fixedPriceURL == "" {
		return products, nil
	}

	for i, product := range products {
		if !product.Available {
			continue
		}

		price, err := p.lookup(ctx, product.SKUID, product.SellerID)
		if err != nil {
			// wholesale pricing is an enrichment; a missed lookup keeps
			// the product on its regular price
			log.Warnw(ctx, "fixed price lookup failed",
				"sku_id", product.SKUID,
				"seller_id", product.SellerID,
				"error", err,
			)
			continue
		}
		if price == nil || price.MinQuantity <= 1 {
			continue
		}

		products[i].MinQuantity = util.Ptr(price.MinQuantity)
		products[i].WholesalePrice = util.Ptr(price.Value)
	}

	return products, nil
}

func (p *Plugin) lookup(ctx context.Context, skuID, sellerID string) (*fixedPrice, error) {
	cacheKey := skuID + "/" + sellerID
	if cached, ok := p.cache.Get(cacheKey); ok {
		return cached.(*fixedPrice), nil
	}

	var prices []fixedPrice
	resp, err := p.rest.R().
		SetContext(ctx).
		SetResult(&prices).
		Get(fmt.Sprintf("%s/%s/fixedprices/%s", p.fixedPriceURL, skuID, sellerID))
	if err != nil {
		return nil, fmt.Errorf("fetch fixed prices: %w", err)
	}
	if resp.StatusCode() == 404 {
		p.cache.Set(cacheKey, (*fixedPrice)(nil), gocache.DefaultExpiration)
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch fixed prices: status %d", resp.StatusCode())
	}

	var best *fixedPrice
	for i := range prices {
		if prices[i].MinQuantity > 1 && (best == nil || prices[i].MinQuantity < best.MinQuantity) {
			best = &prices[i]
		}
	}

	p.cache.Set(cacheKey, best, gocache.DefaultExpiration)
	return best, nil
}
