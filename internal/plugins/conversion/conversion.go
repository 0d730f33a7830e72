package conversion

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nguyentranbao-ct/product-concierge/internal/concierge"
	"github.com/nguyentranbao-ct/product-concierge/internal/config"
	"github.com/nguyentranbao-ct/product-concierge/internal/models"
	"github.com/nguyentranbao-ct/product-concierge/internal/repo/weni"
)

// Plugin reports a conversion event for every search that produced
// products, so ad attribution sees the lead. Searches with no results
// or no channel context are not reported.
type Plugin struct {
	weni weni.Client
	conf config.ConversionConfig
}

func New(client weni.Client, conf config.ConversionConfig) *Plugin {
	return &Plugin{weni: client, conf: conf}
}

func (p *Plugin) Name() string {
	return "conversion"
}

func (p *Plugin) FinalizeResult(ctx context.Context, result *models.SearchResult, sc *concierge.SearchContext) error {
	if len(result.Products) == 0 {
		return nil
	}
	if sc.Contact.ChannelUUID == "" || sc.Contact.URN == "" {
		return nil
	}

	eventType := p.conf.EventType
	if eventType == "" {
		eventType = "lead"
	}

	event := &weni.ConversionEvent{
		EventID:     uuid.NewString(),
		EventType:   eventType,
		ChannelUUID: sc.Contact.ChannelUUID,
		URN:         sc.Contact.URN,
	}
	if err := p.weni.SendConversionEvent(ctx, event); err != nil {
		return fmt.Errorf("report conversion: %w", err)
	}

	result.AddExtra("conversion_event_id", event.EventID)
	return nil
}
