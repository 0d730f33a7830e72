package regionalization

import (
	"context"
	"errors"
	"fmt"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/nguyentranbao-ct/product-concierge/internal/concierge"
	"github.com/nguyentranbao-ct/product-concierge/internal/models"
	"github.com/nguyentranbao-ct/product-concierge/pkg/util"
)

// Plugin resolves the request's postal code into a region id and its
// sellers before the search runs, so the search and the stock check are
// scoped to what the contact's region can actually deliver.
type Plugin struct {
	defaultSeller string
	sellerRules   map[string][]string
}

type Option func(*Plugin)

// WithSellerRules overrides the region's seller list per delivery type.
// Keys are "pickup" and "delivery"; values are seller allowlists.
func WithSellerRules(rules map[string][]string) Option {
	return func(p *Plugin) {
		p.sellerRules = rules
	}
}

func New(defaultSeller string, opts ...Option) *Plugin {
	if defaultSeller == "" {
		defaultSeller = "1"
	}
	p := &Plugin{defaultSeller: defaultSeller}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plugin) Name() string {
	return "regionalization"
}

func (p *Plugin) BeforeSearch(ctx context.Context, sc *concierge.SearchContext, query concierge.QueryService) error {
	if sc.PostalCode == "" {
		sc.Sellers = []string{p.defaultSeller}
		return nil
	}

	region, err := query.ResolveRegion(ctx, sc.PostalCode, sc.TradePolicy, sc.CountryCode)
	if errors.Is(err, models.ErrRegionNotServed) {
		log.Infow(ctx, "postal code outside coverage, using default seller",
			"postal_code", sc.PostalCode,
		)
		sc.Sellers = []string{p.defaultSeller}
		sc.RegionMessage = fmt.Sprintf("postal code %s is not served by any seller", sc.PostalCode)
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve region for %s: %w", sc.PostalCode, err)
	}

	sc.RegionID = region.ID
	sc.Sellers = p.applySellerRules(region.Sellers, sc.DeliveryType)
	return nil
}

// applySellerRules intersects the region's sellers with the configured
// allowlist for the requested delivery type. Without a matching rule the
// region's sellers pass through unchanged.
func (p *Plugin) applySellerRules(sellers []string, deliveryType string) []string {
	if len(p.sellerRules) == 0 || deliveryType == "" {
		return sellers
	}
	allowed, ok := p.sellerRules[deliveryType]
	if !ok {
		return sellers
	}

	filtered := make([]string, 0, len(sellers))
	for _, seller := range sellers {
		if util.SliceIncludes(allowed, seller) {
			filtered = append(filtered, seller)
		}
	}
	if len(filtered) == 0 {
		// an empty intersection would hide every product; fall back to
		// the region's own sellers
		return sellers
	}
	return filtered
}
