package flowtrigger

import (
	"context"
	"fmt"

	log "github.com/carousell/ct-go/pkg/logger/log_context"

	"github.com/nguyentranbao-ct/product-concierge/internal/concierge"
	"github.com/nguyentranbao-ct/product-concierge/internal/config"
	"github.com/nguyentranbao-ct/product-concierge/internal/models"
	"github.com/nguyentranbao-ct/product-concierge/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/product-concierge/internal/repo/weni"
)

// Plugin starts a follow-up flow for the contact after a search, passing
// the outcome as flow params. With trigger_once the flow fires at most
// once per contact, tracked through the flow-session store.
type Plugin struct {
	weni     weni.Client
	sessions mongodb.FlowSessionRepository
	conf     config.FlowTriggerConfig
}

func New(client weni.Client, sessions mongodb.FlowSessionRepository, conf config.FlowTriggerConfig) *Plugin {
	return &Plugin{weni: client, sessions: sessions, conf: conf}
}

func (p *Plugin) Name() string {
	return "flowtrigger"
}

func (p *Plugin) FinalizeResult(ctx context.Context, result *models.SearchResult, sc *concierge.SearchContext) error {
	if p.conf.FlowUUID == "" {
		return fmt.Errorf("flow uuid not configured")
	}
	if sc.Contact.URN == "" {
		return nil
	}

	if p.conf.TriggerOnce {
		if p.sessions == nil {
			return fmt.Errorf("trigger_once needs a flow session store")
		}
		first, err := p.sessions.MarkTriggered(ctx, p.conf.FlowUUID, sc.Contact.URN)
		if err != nil {
			return fmt.Errorf("mark flow triggered: %w", err)
		}
		if !first {
			log.Debugw(ctx, "flow already triggered for contact",
				"flow_uuid", p.conf.FlowUUID,
				"contact_urn", sc.Contact.URN,
			)
			return nil
		}
	}

	start := &weni.FlowStart{
		FlowUUID: p.conf.FlowUUID,
		URN:      sc.Contact.URN,
		Params: map[string]any{
			"query":         sc.Query,
			"product_count": len(result.Products),
			"status":        string(result.Status),
		},
	}
	if err := p.weni.StartFlow(ctx, start); err != nil {
		return fmt.Errorf("start flow: %w", err)
	}

	result.AddExtra("flow_started", p.conf.FlowUUID)
	return nil
}
