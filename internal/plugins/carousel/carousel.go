package carousel

import (
	"context"
	"fmt"

	log "github.com/carousell/ct-go/pkg/logger/log_context"

	"github.com/nguyentranbao-ct/product-concierge/internal/concierge"
	"github.com/nguyentranbao-ct/product-concierge/internal/config"
	"github.com/nguyentranbao-ct/product-concierge/internal/models"
	"github.com/nguyentranbao-ct/product-concierge/internal/repo/weni"
	"github.com/nguyentranbao-ct/product-concierge/pkg/tmplx"
	"github.com/nguyentranbao-ct/product-concierge/pkg/util"
)

var (
	titleTemplate = tmplx.MustParse("carousel_title", `{{ truncate 80 .Name }}`)
	bodyTemplate  = tmplx.MustParse("carousel_body",
		`{{ if gt .Price 0.0 }}{{ money .Price }}{{ end }}{{ if .Unit }} / {{ .Unit }}{{ end }}`)
	headerTemplate = tmplx.MustParse("carousel_header",
		`Encontrei {{ len .Products }} produto{{ if gt (len .Products) 1 }}s{{ end }} para "{{ .Query }}":`)
)

// Plugin turns the final product list into a WhatsApp carousel and, when
// auto-send is on, delivers it to the requesting contact.
type Plugin struct {
	weni weni.Client
	conf config.CarouselConfig
}

func New(client weni.Client, conf config.CarouselConfig) *Plugin {
	return &Plugin{weni: client, conf: conf}
}

func (p *Plugin) Name() string {
	return "carousel"
}

type headerData struct {
	Query    string
	Products []models.Product
}

func (p *Plugin) FinalizeResult(ctx context.Context, result *models.SearchResult, sc *concierge.SearchContext) error {
	if len(result.Products) == 0 {
		return nil
	}

	products := result.Products
	if p.conf.MaxItems > 0 && len(products) > p.conf.MaxItems {
		products = products[:p.conf.MaxItems]
	}

	cards := make([]weni.CarouselCard, 0, len(products))
	for _, product := range products {
		card, err := buildCard(product)
		if err != nil {
			log.Warnw(ctx, "skipping carousel card",
				"sku_id", product.SKUID,
				"error", err,
			)
			continue
		}
		cards = append(cards, card)
	}
	if len(cards) == 0 {
		return fmt.Errorf("no renderable carousel cards")
	}

	header, err := headerTemplate.Render(headerData{Query: sc.Query, Products: products})
	if err != nil {
		return fmt.Errorf("render carousel header: %w", err)
	}

	msg := &weni.CarouselMessage{
		URN:   sc.Contact.URN,
		Text:  header.String(),
		Cards: cards,
	}
	result.AddExtra("carousel", msg)

	if !p.conf.AutoSend {
		return nil
	}
	if sc.Contact.URN == "" {
		return fmt.Errorf("auto-send enabled but request has no contact urn")
	}

	broadcastID, err := p.weni.SendCarousel(ctx, msg)
	if err != nil {
		return fmt.Errorf("send carousel: %w", err)
	}

	result.AddExtra("carousel_sent", true)
	result.AddExtra("carousel_broadcast_id", broadcastID)
	return nil
}

type cardData struct {
	Name  string
	Price float64
	Unit  string
}

func buildCard(product models.Product) (weni.CarouselCard, error) {
	data := cardData{
		Name:  product.Name,
		Price: util.Val(product.SpotPrice),
		Unit:  product.MeasurementUnit,
	}
	if data.Price == 0 {
		data.Price = util.Val(product.Price)
	}

	title, err := titleTemplate.Render(data)
	if err != nil {
		return weni.CarouselCard{}, fmt.Errorf("render title: %w", err)
	}
	body, err := bodyTemplate.Render(data)
	if err != nil {
		return weni.CarouselCard{}, fmt.Errorf("render body: %w", err)
	}
	return weni.CarouselCard{
		Title:    title.String(),
		Body:     body.String(),
		ImageURL: product.ImageURL,
		Link:     product.Link,
	}, nil
}
