package kafka

import (
	"context"
	"errors"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"

	"github.com/nguyentranbao-ct/product-concierge/internal/models"
)

const retryDelay = 5 * time.Second

// Searcher is the slice of the concierge the consumer needs.
type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error)
}

// EventHandler processes one decoded search event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *SearchEvent) error
}

// eventHandler runs the search pipeline for consumed events. The result
// itself is not published anywhere; delivery to the contact happens
// through the finalize plugins.
type eventHandler struct {
	concierge Searcher
}

func NewEventHandler(concierge Searcher) EventHandler {
	return &eventHandler{
		concierge: concierge,
	}
}

func (h *eventHandler) HandleEvent(ctx context.Context, event *SearchEvent) error {
	result, err := h.concierge.Search(ctx, event.Data)
	if err != nil {
		// upstream failures are worth another attempt, bad requests are not
		var serviceErr *models.ServiceError
		if errors.As(err, &serviceErr) {
			return NewRetryError(err, retryDelay)
		}
		return err
	}

	log.Infow(ctx, "search event processed",
		"query", event.Data.Query,
		"status", result.Status,
		"products", len(result.Products),
		"plugin_failures", len(result.PluginFailures),
	)
	return nil
}
