package vtex

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/nguyentranbao-ct/product-concierge/internal/concierge"
	"github.com/nguyentranbao-ct/product-concierge/internal/config"
	"github.com/nguyentranbao-ct/product-concierge/internal/models"
	"github.com/nguyentranbao-ct/product-concierge/pkg/util"
)

// Client talks to the VTEX commerce APIs: intelligent search, checkout
// simulation and regionalization. It implements both the pipeline's
// QueryService and StockService contracts.
type Client interface {
	Search(ctx context.Context, maxProducts int, sc *concierge.SearchContext) ([]models.Product, error)
	SimulateCart(ctx context.Context, items []models.CartItem, sc *concierge.SearchContext) (*models.CartSimulation, error)
	ResolveRegion(ctx context.Context, postalCode string, tradePolicy int, countryCode string) (*models.Region, error)
	QueryAvailability(ctx context.Context, skuID, sellerID string, quantity int, sc *concierge.SearchContext) (*models.SimulationItem, error)
	ProductBySKU(ctx context.Context, skuID string) (*models.Product, error)
}

type client struct {
	rest          *resty.Client
	baseURL       string
	storeURL      string
	utmSource     string
	maxVariations int
}

func NewClient(conf *config.Config) Client {
	rest := util.NewRestyClient()
	if conf.VTEX.AppKey != "" && conf.VTEX.AppToken != "" {
		rest.SetHeaders(map[string]string{
			"X-VTEX-API-AppKey":   conf.VTEX.AppKey,
			"X-VTEX-API-AppToken": conf.VTEX.AppToken,
		})
	}
	maxVariations := conf.Search.MaxVariations
	if maxVariations <= 0 {
		maxVariations = 5
	}
	return &client{
		rest:          rest,
		baseURL:       strings.TrimRight(conf.VTEX.BaseURL, "/"),
		storeURL:      strings.TrimRight(conf.VTEX.StoreURL, "/"),
		utmSource:     conf.Search.UTMSource,
		maxVariations: maxVariations,
	}
}

func (c *client) Search(ctx context.Context, maxProducts int, sc *concierge.SearchContext) ([]models.Product, error) {
	query := strings.TrimSpace(sc.Query + " " + sc.BrandName)

	// Facet path segments narrow the search to the resolved trade policy
	// and region.
	var facets []string
	if sc.TradePolicy > 0 {
		facets = append(facets, fmt.Sprintf("trade-policy/%d", sc.TradePolicy))
	}
	if sc.RegionID != "" {
		facets = append(facets, "region-id/"+sc.RegionID)
	}
	path := strings.Join(facets, "/")
	if path != "" {
		path += "/"
	}

	searchURL := fmt.Sprintf(
		"%s/api/io/_v/api/intelligent-search/product_search/%s?query=%s&simulationBehavior=default&hideUnavailableItems=false&allowRedirect=false",
		c.baseURL, path, url.QueryEscape(query),
	)

	var raw searchResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&raw).
		Get(searchURL)
	if err != nil {
		return nil, fmt.Errorf("intelligent search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("intelligent search: status %d", resp.StatusCode())
	}

	return c.flattenProducts(raw.Products, maxProducts), nil
}

func (c *client) SimulateCart(ctx context.Context, items []models.CartItem, sc *concierge.SearchContext) (*models.CartSimulation, error) {
	if len(sc.Sellers) > 0 && sc.PostalCode != "" {
		return c.simulateBatch(ctx, items, sc)
	}
	return c.simulateSimple(ctx, items, sc)
}

func (c *client) simulateSimple(ctx context.Context, items []models.CartItem, sc *concierge.SearchContext) (*models.CartSimulation, error) {
	body := map[string]any{
		"items":   items,
		"country": sc.CountryCode,
	}
	if sc.PostalCode != "" {
		body["postalCode"] = sc.PostalCode
	}

	var sim models.CartSimulation
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&sim).
		Post(c.baseURL + "/api/checkout/pub/orderForms/simulation")
	if err != nil {
		return nil, fmt.Errorf("cart simulation: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cart simulation: status %d", resp.StatusCode())
	}
	return &sim, nil
}

// simulateBatch fans one simulation out over every seller of the region
// in a single backend call.
func (c *client) simulateBatch(ctx context.Context, items []models.CartItem, sc *concierge.SearchContext) (*models.CartSimulation, error) {
	skus := util.ConvertList(items, func(item models.CartItem) map[string]any {
		return map[string]any{
			"sku_id":   item.SKUID,
			"quantity": item.Quantity,
		}
	})
	body := map[string]any{
		"skus":        skus,
		"sellers":     sc.Sellers,
		"postal_code": sc.PostalCode,
	}

	var sim models.CartSimulation
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&sim).
		Post(c.baseURL + "/_v/api/simulations-batches?sc=1")
	if err != nil {
		return nil, fmt.Errorf("batch simulation: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("batch simulation: status %d", resp.StatusCode())
	}
	return &sim, nil
}

func (c *client) ResolveRegion(ctx context.Context, postalCode string, tradePolicy int, countryCode string) (*models.Region, error) {
	regionURL := fmt.Sprintf(
		"%s/api/checkout/pub/regions?country=%s&postalCode=%s&sc=%d",
		c.baseURL, url.QueryEscape(countryCode), url.QueryEscape(postalCode), tradePolicy,
	)

	var raw []regionResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&raw).
		Get(regionURL)
	if err != nil {
		return nil, fmt.Errorf("resolve region: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("resolve region: status %d", resp.StatusCode())
	}

	if len(raw) == 0 || raw[0].ID == "" {
		return nil, models.ErrRegionNotServed
	}

	region := &models.Region{ID: raw[0].ID}
	for _, seller := range raw[0].Sellers {
		if seller.ID != "" {
			region.Sellers = append(region.Sellers, seller.ID)
		}
	}
	if len(region.Sellers) == 0 {
		return nil, models.ErrRegionNotServed
	}
	return region, nil
}

// QueryAvailability simulates a one-line cart for the SKU and seller
// under the request's search context, so the resolved postal code and
// country still scope the fallback lookup. Returns models.ErrNotFound
// when the simulation does not answer for the SKU.
func (c *client) QueryAvailability(ctx context.Context, skuID, sellerID string, quantity int, sc *concierge.SearchContext) (*models.SimulationItem, error) {
	if quantity <= 0 {
		quantity = 1
	}
	if sellerID == "" {
		sellerID = "1"
	}
	sim, err := c.simulateSimple(ctx, []models.CartItem{{
		SKUID:    skuID,
		Quantity: quantity,
		SellerID: sellerID,
	}}, sc)
	if err != nil {
		return nil, err
	}

	for i := range sim.Items {
		if sim.Items[i].SKUID == skuID {
			return &sim.Items[i], nil
		}
	}
	return nil, models.ErrNotFound
}

func (c *client) ProductBySKU(ctx context.Context, skuID string) (*models.Product, error) {
	searchURL := fmt.Sprintf(
		"%s/api/io/_v/api/intelligent-search/product_search/?query=%s",
		c.baseURL, url.QueryEscape("sku.id:"+skuID),
	)

	var raw searchResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&raw).
		Get(searchURL)
	if err != nil {
		return nil, fmt.Errorf("search by sku: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search by sku: status %d", resp.StatusCode())
	}

	products := c.flattenProducts(raw.Products, 1)
	if len(products) == 0 {
		return nil, models.ErrNotFound
	}
	return &products[0], nil
}
