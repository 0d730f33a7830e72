package concierge

import (
	"context"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/go-playground/validator/v10"
	"github.com/nguyentranbao-ct/product-concierge/internal/models"
)

// Options tune result assembly. Zero values fall back to the defaults the
// original store deployments used.
type Options struct {
	MaxProducts  int
	MaxPayloadKB int
}

const (
	defaultMaxProducts  = 20
	defaultMaxPayloadKB = 20
)

// Concierge drives the fixed search pipeline:
//
//	before_search -> intelligent_search -> after_search ->
//	check_availability -> after_stock_check -> filter_products ->
//	finalize_result
//
// Plugin hooks fold sequentially in registration order. A failing hook is
// recorded, the plugin is skipped for the rest of the request, and the
// fold continues on the last good value. A failing core stage aborts the
// request.
type Concierge struct {
	query    QueryService
	stock    *StockEvaluator
	registry *Registry
	activity ActivityRecorder
	opts     Options
	validate *validator.Validate
}

func New(query QueryService, stock *StockEvaluator, registry *Registry, opts Options) *Concierge {
	if opts.MaxProducts <= 0 {
		opts.MaxProducts = defaultMaxProducts
	}
	if opts.MaxPayloadKB == 0 {
		opts.MaxPayloadKB = defaultMaxPayloadKB
	}
	return &Concierge{
		query:    query,
		stock:    stock,
		registry: registry,
		opts:     opts,
		validate: models.NewValidate(),
	}
}

// WithActivityRecorder enables best-effort persistence of finished
// searches. A nil recorder disables it.
func (c *Concierge) WithActivityRecorder(recorder ActivityRecorder) *Concierge {
	c.activity = recorder
	return c
}

// run tracks the per-request pipeline state: the plugin failure list and
// the set of plugins skipped after their first failure.
type run struct {
	failures []models.PluginFailure
	skipped  map[string]bool
}

func (r *run) fail(ctx context.Context, plugin Plugin, stage string, err error) {
	name := plugin.Name()
	log.Errorw(ctx, "plugin hook failed",
		"plugin", name,
		"stage", stage,
		"error", err,
	)
	r.failures = append(r.failures, models.PluginFailure{
		Plugin: name,
		Stage:  stage,
		Reason: err.Error(),
	})
	r.skipped[name] = true
}

// Search executes one full pipeline run and returns the assembled result.
// The returned result is non-nil even on failure so callers can report
// the failing stage.
func (c *Concierge) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error) {
	if err := c.validate.Struct(req); err != nil {
		return &models.SearchResult{Status: models.StatusFailed}, models.NewValidationError(err)
	}

	maxProducts := req.MaxProducts
	if maxProducts <= 0 || maxProducts > c.opts.MaxProducts {
		maxProducts = c.opts.MaxProducts
	}

	sc := NewSearchContext(req)
	r := &run{skipped: make(map[string]bool)}

	// Stage 1: before_search fold over the context.
	for _, p := range c.registry.Plugins() {
		hook, ok := p.(BeforeSearcher)
		if !ok || r.skipped[p.Name()] {
			continue
		}
		next := sc.Clone()
		if err := hook.BeforeSearch(ctx, next, c.query); err != nil {
			r.fail(ctx, p, StageBeforeSearch, err)
			continue
		}
		sc = next
	}

	// Stage 2: intelligent_search.
	products, err := c.query.Search(ctx, maxProducts, sc)
	if err != nil {
		return c.abort(ctx, sc, StageIntelligentSearch, err)
	}
	log.Debugw(ctx, "search returned products",
		"query", sc.Query,
		"region_id", sc.RegionID,
		"count", len(products),
	)

	// Stage 3: after_search fold over the product list.
	for _, p := range c.registry.Plugins() {
		hook, ok := p.(AfterSearcher)
		if !ok || r.skipped[p.Name()] {
			continue
		}
		next, err := hook.AfterSearch(ctx, cloneProducts(products), sc, c.query)
		if err != nil {
			r.fail(ctx, p, StageAfterSearch, err)
			continue
		}
		products = next
	}

	// Stage 4: check_availability. Stock may have changed since the
	// search indexed it, so the check runs even when the search already
	// reported stock.
	checked, err := c.stock.Check(ctx, products, sc)
	if err != nil {
		return c.abort(ctx, sc, StageCheckAvailability, err)
	}

	// Stage 5: after_stock_check fold, before filtering so plugins can
	// observe unavailable entries.
	for _, p := range c.registry.Plugins() {
		hook, ok := p.(AfterStockChecker)
		if !ok || r.skipped[p.Name()] {
			continue
		}
		next, err := hook.AfterStockCheck(ctx, cloneProducts(checked), sc, c.query)
		if err != nil {
			r.fail(ctx, p, StageAfterStockCheck, err)
			continue
		}
		checked = next
	}

	// Stage 6: filter_products.
	filtered := c.stock.Filter(checked)
	filtered = c.stock.LimitSize(filtered, maxProducts)
	filtered = c.stock.LimitPayload(filtered, c.opts.MaxPayloadKB)

	result := c.buildResult(filtered, sc)

	// Stage 7: finalize_result fold over the assembled result.
	for _, p := range c.registry.Plugins() {
		hook, ok := p.(Finalizer)
		if !ok || r.skipped[p.Name()] {
			continue
		}
		next := result.Clone()
		if err := hook.FinalizeResult(ctx, next, sc); err != nil {
			r.fail(ctx, p, StageFinalizeResult, err)
			continue
		}
		result = next
	}

	result.PluginFailures = r.failures
	if len(r.failures) > 0 {
		result.Status = models.StatusPartial
	}

	c.record(ctx, sc, result)
	return result, nil
}

func (c *Concierge) buildResult(products []models.Product, sc *SearchContext) *models.SearchResult {
	result := &models.SearchResult{
		Status:        models.StatusComplete,
		Products:      products,
		RegionMessage: sc.RegionMessage,
	}
	if len(sc.Extra) > 0 {
		result.Extra = make(map[string]any, len(sc.Extra))
		for k, v := range sc.Extra {
			result.Extra[k] = v
		}
	}
	return result
}

func (c *Concierge) abort(ctx context.Context, sc *SearchContext, stage string, err error) (*models.SearchResult, error) {
	serviceErr := models.NewServiceError(stage, err)
	log.Errorw(ctx, "search pipeline aborted",
		"stage", stage,
		"query", sc.Query,
		"error", err,
	)
	result := &models.SearchResult{
		Status:      models.StatusFailed,
		FailedStage: stage,
	}
	c.record(ctx, sc, result)
	return result, serviceErr
}

func (c *Concierge) record(ctx context.Context, sc *SearchContext, result *models.SearchResult) {
	if c.activity == nil {
		return
	}
	if err := c.activity.RecordSearch(ctx, sc, result); err != nil {
		log.Warnw(ctx, "failed to record search activity", "error", err)
	}
}

func cloneProducts(products []models.Product) []models.Product {
	out := make([]models.Product, len(products))
	copy(out, products)
	return out
}
