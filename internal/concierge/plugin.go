package concierge

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/product-concierge/internal/models"
)

// Stage names, used in plugin failure records and error reporting.
const (
	StageBeforeSearch      = "before_search"
	StageIntelligentSearch = "intelligent_search"
	StageAfterSearch       = "after_search"
	StageCheckAvailability = "check_availability"
	StageAfterStockCheck   = "after_stock_check"
	StageFilterProducts    = "filter_products"
	StageFinalizeResult    = "finalize_result"
)

// Plugin is a named unit observing the search pipeline. A plugin opts into
// stages by additionally implementing one or more of the hook interfaces
// below; a stage it does not implement is an identity transform. Plugins
// must not keep per-request state on the receiver, the same instance
// serves every request.
type Plugin interface {
	Name() string
}

// BeforeSearcher mutates the search context before the search runs,
// e.g. resolving a postal code into a region id.
type BeforeSearcher interface {
	Plugin
	BeforeSearch(ctx context.Context, sc *SearchContext, query QueryService) error
}

// AfterSearcher may replace, filter or reorder the raw search results.
type AfterSearcher interface {
	Plugin
	AfterSearch(ctx context.Context, products []models.Product, sc *SearchContext, query QueryService) ([]models.Product, error)
}

// AfterStockChecker runs after availability annotation and before
// filtering, so it sees unavailable entries too.
type AfterStockChecker interface {
	Plugin
	AfterStockCheck(ctx context.Context, products []models.Product, sc *SearchContext, query QueryService) ([]models.Product, error)
}

// Finalizer enriches the assembled result or triggers a side effect such
// as sending a carousel or firing a tracking event.
type Finalizer interface {
	Plugin
	FinalizeResult(ctx context.Context, result *models.SearchResult, sc *SearchContext) error
}

// Registry holds the ordered plugin sequence. Hook invocation order is the
// registration order, identical across all stages.
type Registry struct {
	plugins []Plugin
	names   map[string]struct{}
}

func NewRegistry(plugins ...Plugin) (*Registry, error) {
	r := &Registry{names: make(map[string]struct{})}
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return fmt.Errorf("plugin cannot be nil")
	}
	name := p.Name()
	if name == "" {
		return fmt.Errorf("plugin name cannot be empty")
	}
	if _, exists := r.names[name]; exists {
		return fmt.Errorf("plugin %q is already registered", name)
	}
	r.names[name] = struct{}{}
	r.plugins = append(r.plugins, p)
	return nil
}

// Plugins returns the registered sequence in registration order.
func (r *Registry) Plugins() []Plugin {
	return r.plugins
}
