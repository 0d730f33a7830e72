package sendmessage

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/product-concierge/internal/concierge"
	"github.com/nguyentranbao-ct/product-concierge/internal/models"
	"github.com/nguyentranbao-ct/product-concierge/internal/repo/weni"
	"github.com/nguyentranbao-ct/product-concierge/pkg/tmplx"
)

const defaultTemplate = `{{ if .Products -}}
Encontrei {{ len .Products }} produto{{ if gt (len .Products) 1 }}s{{ end }} para "{{ .Query }}".
{{- else -}}
Não encontrei produtos para "{{ .Query }}".
{{- end }}
{{- if .RegionMessage }}

{{ .RegionMessage }}
{{- end }}`

// Plugin broadcasts a short templated summary of the search outcome to
// the requesting contact.
type Plugin struct {
	weni weni.Client
	tmpl *tmplx.Template
}

// New builds the plugin with the default summary template. Template text
// overrides come in through WithTemplate.
func New(client weni.Client, opts ...Option) (*Plugin, error) {
	p := &Plugin{
		weni: client,
		tmpl: tmplx.MustParse("search_summary", defaultTemplate),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

type Option func(*Plugin) error

func WithTemplate(text string) Option {
	return func(p *Plugin) error {
		tmpl, err := tmplx.Parse("search_summary", text)
		if err != nil {
			return err
		}
		p.tmpl = tmpl
		return nil
	}
}

func (p *Plugin) Name() string {
	return "sendmessage"
}

type summaryData struct {
	Query         string
	Products      []models.Product
	RegionMessage string
}

func (p *Plugin) FinalizeResult(ctx context.Context, result *models.SearchResult, sc *concierge.SearchContext) error {
	if sc.Contact.URN == "" {
		return nil
	}

	text, err := p.tmpl.Render(summaryData{
		Query:         sc.Query,
		Products:      result.Products,
		RegionMessage: result.RegionMessage,
	})
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	broadcastID, err := p.weni.SendBroadcast(ctx, &weni.BroadcastMessage{
		URN:  sc.Contact.URN,
		Text: text.String(),
	})
	if err != nil {
		return fmt.Errorf("send summary: %w", err)
	}

	result.AddExtra("summary_broadcast_id", broadcastID)
	return nil
}
