package models

// Product is a single sellable SKU offer as returned by the commerce
// search. The same SKU sold by two sellers is two distinct entries.
type Product struct {
	SKUID       string   `json:"sku_id"`
	Name        string   `json:"sku_name"`
	SellerID    string   `json:"seller_id"`
	Brand       string   `json:"brand,omitempty"`
	Description string   `json:"description,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	Variations  string   `json:"variations,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Link        string   `json:"product_link,omitempty"`

	Price           *float64 `json:"price,omitempty"`
	ListPrice       *float64 `json:"list_price,omitempty"`
	SpotPrice       *float64 `json:"spot_price,omitempty"`
	PixPrice        *float64 `json:"pix_price,omitempty"`
	CreditCardPrice *float64 `json:"credit_card_price,omitempty"`

	// Stock fields, populated by the availability check.
	Available         bool    `json:"available"`
	AvailableQuantity int     `json:"available_quantity,omitempty"`
	MeasurementUnit   string  `json:"measurement_unit,omitempty"`
	UnitMultiplier    float64 `json:"unit_multiplier,omitempty"`

	// Wholesale fields, populated by the wholesale plugin.
	MinQuantity    *int     `json:"min_quantity,omitempty"`
	WholesalePrice *float64 `json:"wholesale_price,omitempty"`

	// Extra holds plugin-attached data that has no dedicated field.
	Extra map[string]any `json:"extra,omitempty"`
}

// Key identifies a product entry. Availability and dedup are keyed by
// SKU + seller, not SKU alone.
func (p Product) Key() string {
	return p.SKUID + "/" + p.SellerID
}

// CartItem is one line of a cart simulation request.
type CartItem struct {
	SKUID    string `json:"id"`
	Quantity int    `json:"quantity"`
	SellerID string `json:"seller"`
}

// SimulationItem is one line of a cart simulation response.
type SimulationItem struct {
	SKUID           string  `json:"id"`
	SellerID        string  `json:"seller"`
	Availability    string  `json:"availability"`
	Quantity        int     `json:"quantity"`
	MeasurementUnit string  `json:"measurementUnit,omitempty"`
	UnitMultiplier  float64 `json:"unitMultiplier,omitempty"`
}

// Available reports whether the simulation line is fulfillable.
func (i SimulationItem) Available() bool {
	return i.Availability == "available"
}

// CartSimulation is the commerce backend's answer to a simulated checkout.
type CartSimulation struct {
	Items []SimulationItem `json:"items"`
}

// Region is the result of resolving a postal code.
type Region struct {
	ID      string   `json:"id"`
	Sellers []string `json:"sellers"`
}
