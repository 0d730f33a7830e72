package weni

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/nguyentranbao-ct/product-concierge/internal/config"
	"github.com/nguyentranbao-ct/product-concierge/pkg/util"
)

// BroadcastMessage is a plain WhatsApp broadcast to one contact.
type BroadcastMessage struct {
	URN          string   `json:"urn"`
	Text         string   `json:"text"`
	Attachments  []string `json:"attachments,omitempty"`
	QuickReplies []string `json:"quick_replies,omitempty"`
}

// CarouselCard is one product card of a carousel broadcast.
type CarouselCard struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	ImageURL string `json:"image_url,omitempty"`
	Link     string `json:"link,omitempty"`
}

// CarouselMessage is a WhatsApp carousel broadcast to one contact.
type CarouselMessage struct {
	URN   string         `json:"urn"`
	Text  string         `json:"text"`
	Cards []CarouselCard `json:"cards"`
}

// FlowStart triggers one flow run for one contact.
type FlowStart struct {
	FlowUUID string         `json:"flow"`
	URN      string         `json:"urns"`
	Params   map[string]any `json:"params,omitempty"`
}

// ConversionEvent reports one Meta conversions API event.
type ConversionEvent struct {
	EventID     string `json:"event_id"`
	EventType   string `json:"event_type"`
	ChannelUUID string `json:"channel_uuid"`
	URN         string `json:"contact_urn"`
	Value       string `json:"value,omitempty"`
}

// Client is the messaging surface plugins deliver through. The pipeline
// itself never calls it.
type Client interface {
	SendBroadcast(ctx context.Context, msg *BroadcastMessage) (string, error)
	SendCarousel(ctx context.Context, msg *CarouselMessage) (string, error)
	StartFlow(ctx context.Context, start *FlowStart) error
	SendConversionEvent(ctx context.Context, event *ConversionEvent) error
}

type client struct {
	rest *resty.Client
	conf config.WeniConfig
}

func NewClient(conf *config.Config) Client {
	return &client{
		rest: util.NewRestyClient(),
		conf: conf.Weni,
	}
}

// authorize picks the static-token external API when a token is set and
// falls back to the JWT internal API otherwise.
func (c *client) authorize(req *resty.Request) (*resty.Request, string, error) {
	if c.conf.Token != "" {
		return req.SetHeader("Authorization", "Token "+c.conf.Token), c.conf.BroadcastURL, nil
	}
	if c.conf.JWTToken != "" {
		return req.SetHeader("Authorization", "Bearer "+c.conf.JWTToken), c.conf.InternalURL, nil
	}
	return nil, "", fmt.Errorf("no weni credentials configured")
}

type broadcastResponse struct {
	ID int64 `json:"id"`
}

func (c *client) SendBroadcast(ctx context.Context, msg *BroadcastMessage) (string, error) {
	if msg.URN == "" {
		return "", fmt.Errorf("broadcast needs a contact urn")
	}

	body := map[string]any{
		"urns": []string{msg.URN},
		"msg": map[string]any{
			"text":        msg.Text,
			"attachments": msg.Attachments,
		},
	}
	if len(msg.QuickReplies) > 0 {
		body["msg"].(map[string]any)["quick_replies"] = msg.QuickReplies
	}

	return c.postBroadcast(ctx, body)
}

func (c *client) SendCarousel(ctx context.Context, msg *CarouselMessage) (string, error) {
	if msg.URN == "" {
		return "", fmt.Errorf("carousel needs a contact urn")
	}
	if len(msg.Cards) == 0 {
		return "", fmt.Errorf("carousel needs at least one card")
	}

	cards := util.ConvertList(msg.Cards, func(card CarouselCard) map[string]any {
		entry := map[string]any{
			"title": card.Title,
			"body":  card.Body,
		}
		if card.ImageURL != "" {
			entry["attachments"] = []string{card.ImageURL}
		}
		if card.Link != "" {
			entry["link"] = card.Link
		}
		return entry
	})

	body := map[string]any{
		"urns": []string{msg.URN},
		"msg": map[string]any{
			"text":     msg.Text,
			"carousel": cards,
		},
	}

	return c.postBroadcast(ctx, body)
}

func (c *client) postBroadcast(ctx context.Context, body map[string]any) (string, error) {
	req, endpoint, err := c.authorize(c.rest.R())
	if err != nil {
		return "", err
	}

	// flows replies with JSON but not always with the matching
	// Content-Type header; force decoding either way
	var result broadcastResponse
	resp, err := req.
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		ForceContentType("application/json").
		Post(endpoint)
	if err != nil {
		return "", fmt.Errorf("send broadcast: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("send broadcast: status %d", resp.StatusCode())
	}
	return fmt.Sprintf("%d", result.ID), nil
}

func (c *client) StartFlow(ctx context.Context, start *FlowStart) error {
	if start.FlowUUID == "" {
		return fmt.Errorf("flow start needs a flow uuid")
	}
	if start.URN == "" {
		return fmt.Errorf("flow start needs a contact urn")
	}

	req, _, err := c.authorize(c.rest.R())
	if err != nil {
		return err
	}

	body := map[string]any{
		"flow": start.FlowUUID,
		"urns": []string{start.URN},
	}
	if len(start.Params) > 0 {
		body["params"] = start.Params
	}

	resp, err := req.
		SetContext(ctx).
		SetBody(body).
		Post(c.conf.FlowStartURL)
	if err != nil {
		return fmt.Errorf("start flow: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("start flow: status %d", resp.StatusCode())
	}
	return nil
}

func (c *client) SendConversionEvent(ctx context.Context, event *ConversionEvent) error {
	if event.ChannelUUID == "" {
		return fmt.Errorf("conversion event needs a channel uuid")
	}

	req, _, err := c.authorize(c.rest.R())
	if err != nil {
		return err
	}

	resp, err := req.
		SetContext(ctx).
		SetBody(event).
		Post(c.conf.ConversionURL)
	if err != nil {
		return fmt.Errorf("send conversion event: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("send conversion event: status %d", resp.StatusCode())
	}
	return nil
}
