package models

import "time"

// ContactInfo identifies the chat contact a search was performed for.
// Plugins use it to deliver carousels, messages and tracking events.
type ContactInfo struct {
	URN         string `json:"urn,omitempty"`
	ChannelUUID string `json:"channel_uuid,omitempty"`
	Name        string `json:"name,omitempty"`
}

// SearchRequest is the caller-facing input of a concierge search.
type SearchRequest struct {
	Query        string            `json:"query" validate:"required"`
	BrandName    string            `json:"brand_name,omitempty"`
	MaxProducts  int               `json:"max_products,omitempty" validate:"omitempty,min=1,max=100"`
	Quantity     int               `json:"quantity,omitempty" validate:"omitempty,min=1"`
	PostalCode   string            `json:"postal_code,omitempty" validate:"omitempty,cep"`
	DeliveryType string            `json:"delivery_type,omitempty" validate:"omitempty,oneof=pickup delivery"`
	Contact      ContactInfo       `json:"contact,omitempty"`
	Credentials  map[string]string `json:"credentials,omitempty"`
}

// ResultStatus tells the caller how much of the pipeline succeeded.
type ResultStatus string

const (
	// StatusComplete means every stage and every plugin hook succeeded.
	StatusComplete ResultStatus = "complete"
	// StatusPartial means the product list is valid but at least one
	// plugin hook failed and its effect is missing.
	StatusPartial ResultStatus = "partial"
	// StatusFailed means a core stage failed and no products are returned.
	StatusFailed ResultStatus = "failed"
)

// PluginFailure records one failed plugin hook.
type PluginFailure struct {
	Plugin string `json:"plugin"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// SearchSummary is one past search of a contact, as served by the
// history endpoint. It carries no product payload, only the outcome.
type SearchSummary struct {
	Query        string       `json:"query"`
	PostalCode   string       `json:"postal_code,omitempty"`
	RegionID     string       `json:"region_id,omitempty"`
	Status       ResultStatus `json:"status"`
	ProductCount int          `json:"product_count"`
	CreatedAt    time.Time    `json:"created_at"`
}

// SearchResult is what a concierge search returns to the caller. Products
// only ever contains entries that passed stock filtering.
type SearchResult struct {
	Status         ResultStatus    `json:"status"`
	Products       []Product       `json:"products"`
	Extra          map[string]any  `json:"extra,omitempty"`
	RegionMessage  string          `json:"region_message,omitempty"`
	PluginFailures []PluginFailure `json:"plugin_failures,omitempty"`
	FailedStage    string          `json:"failed_stage,omitempty"`
}

// AddExtra attaches free-form data to the result.
func (r *SearchResult) AddExtra(key string, value any) {
	if r.Extra == nil {
		r.Extra = map[string]any{}
	}
	r.Extra[key] = value
}

// Clone deep-copies the result so a failing finalize hook cannot leak a
// half-applied mutation into the returned value.
func (r *SearchResult) Clone() *SearchResult {
	out := *r
	out.Products = make([]Product, len(r.Products))
	copy(out.Products, r.Products)
	for i := range out.Products {
		out.Products[i].Extra = cloneMap(r.Products[i].Extra)
		out.Products[i].Categories = cloneSlice(r.Products[i].Categories)
	}
	out.Extra = cloneMap(r.Extra)
	out.PluginFailures = cloneSlice(r.PluginFailures)
	return &out
}

func cloneMap[V any](in map[string]V) map[string]V {
	if in == nil {
		return nil
	}
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
