package concierge

import (
	"github.com/nguyentranbao-ct/product-concierge/internal/models"
)

// SearchContext is the mutable state bag threaded through every stage and
// plugin hook of one search request. It is never shared between requests;
// the pipeline hands each plugin a clone and only keeps it if the hook
// succeeds, so a failed mutation is discarded wholesale.
type SearchContext struct {
	// Input parameters.
	Query        string
	BrandName    string
	PostalCode   string
	Quantity     int
	CountryCode  string
	DeliveryType string
	TradePolicy  int

	// Populated by plugins before the search runs.
	RegionID      string
	Sellers       []string
	SellerRules   map[string][]string
	RegionMessage string

	// Caller-provided plugin inputs.
	Credentials map[string]string
	Contact     models.ContactInfo

	// Extra is free-form data a stage or plugin wants surfaced in the
	// final result. Missing keys mean "not yet resolved".
	Extra map[string]any
}

const defaultCountryCode = "BRA"

func NewSearchContext(req models.SearchRequest) *SearchContext {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	return &SearchContext{
		Query:        req.Query,
		BrandName:    req.BrandName,
		PostalCode:   req.PostalCode,
		Quantity:     quantity,
		CountryCode:  defaultCountryCode,
		DeliveryType: req.DeliveryType,
		TradePolicy:  1,
		Credentials:  req.Credentials,
		Contact:      req.Contact,
		Extra:        map[string]any{},
	}
}

// AddToResult stages extra data for inclusion in the final result.
// Later writes to the same key win.
func (sc *SearchContext) AddToResult(key string, value any) {
	if sc.Extra == nil {
		sc.Extra = map[string]any{}
	}
	sc.Extra[key] = value
}

// Credential returns a caller-provided credential, or empty when unset.
func (sc *SearchContext) Credential(key string) string {
	return sc.Credentials[key]
}

// Clone deep-copies the context. Maps and slices are copied so mutations
// on the clone never alias the original.
func (sc *SearchContext) Clone() *SearchContext {
	out := *sc
	out.Sellers = append([]string(nil), sc.Sellers...)
	if sc.SellerRules != nil {
		out.SellerRules = make(map[string][]string, len(sc.SellerRules))
		for k, v := range sc.SellerRules {
			out.SellerRules[k] = append([]string(nil), v...)
		}
	}
	if sc.Credentials != nil {
		out.Credentials = make(map[string]string, len(sc.Credentials))
		for k, v := range sc.Credentials {
			out.Credentials[k] = v
		}
	}
	out.Extra = make(map[string]any, len(sc.Extra))
	for k, v := range sc.Extra {
		out.Extra[k] = v
	}
	return &out
}
