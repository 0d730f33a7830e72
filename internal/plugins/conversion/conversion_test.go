package conversion

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/product-concierge/internal/concierge"
	"github.com/nguyentranbao-ct/product-concierge/internal/config"
	"github.com/nguyentranbao-ct/product-concierge/internal/models"
	"github.com/nguyentranbao-ct/product-concierge/internal/repo/weni"
)

type fakeWeni struct {
	event    *weni.ConversionEvent
	eventErr error
}

func (f *fakeWeni) SendBroadcast(ctx context.Context, msg *weni.BroadcastMessage) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeWeni) SendCarousel(ctx context.Context, msg *weni.CarouselMessage) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeWeni) StartFlow(ctx context.Context, start *weni.FlowStart) error {
	return errors.New("not implemented")
}

func (f *fakeWeni) SendConversionEvent(ctx context.Context, event *weni.ConversionEvent) error {
	if f.eventErr != nil {
		return f.eventErr
	}
	f.event = event
	return nil
}

func newContext() *concierge.SearchContext {
	return concierge.NewSearchContext(models.SearchRequest{
		Query: "café",
		Contact: models.ContactInfo{
			URN:         "whatsapp:5511977776666",
			ChannelUUID: "0af47ed2-0b52-4cb9-a9ee-0f4b7bbd7e0f",
		},
	})
}

func result(n int) *models.SearchResult {
	products := make([]models.Product, n)
	return &models.SearchResult{Status: models.StatusComplete, Products: products}
}

func TestReportsLead(t *testing.T) {
	client := &fakeWeni{}
	p := New(client, config.ConversionConfig{EventType: "lead"})

	res := result(3)
	err := p.FinalizeResult(context.Background(), res, newContext())
	require.NoError(t, err)

	require.NotNil(t, client.event)
	assert.Equal(t, "lead", client.event.EventType)
	assert.Equal(t, "0af47ed2-0b52-4cb9-a9ee-0f4b7bbd7e0f", client.event.ChannelUUID)
	assert.Equal(t, "whatsapp:5511977776666", client.event.URN)

	_, err = uuid.Parse(client.event.EventID)
	require.NoError(t, err)
	assert.Equal(t, client.event.EventID, res.Extra["conversion_event_id"])
}

func TestEventIDsAreUnique(t *testing.T) {
	client := &fakeWeni{}
	p := New(client, config.ConversionConfig{})

	require.NoError(t, p.FinalizeResult(context.Background(), result(1), newContext()))
	first := client.event.EventID
	require.NoError(t, p.FinalizeResult(context.Background(), result(1), newContext()))
	assert.NotEqual(t, first, client.event.EventID)
}

func TestDefaultsToLead(t *testing.T) {
	client := &fakeWeni{}
	p := New(client, config.ConversionConfig{})

	require.NoError(t, p.FinalizeResult(context.Background(), result(1), newContext()))
	assert.Equal(t, "lead", client.event.EventType)
}

func TestNoProductsIsNoop(t *testing.T) {
	client := &fakeWeni{}
	p := New(client, config.ConversionConfig{})

	require.NoError(t, p.FinalizeResult(context.Background(), result(0), newContext()))
	assert.Nil(t, client.event)
}

func TestNoChannelIsNoop(t *testing.T) {
	client := &fakeWeni{}
	p := New(client, config.ConversionConfig{})

	sc := concierge.NewSearchContext(models.SearchRequest{Query: "café"})
	require.NoError(t, p.FinalizeResult(context.Background(), result(1), sc))
	assert.Nil(t, client.event)
}

func TestReportFailure(t *testing.T) {
	client := &fakeWeni{eventErr: errors.New("conversions api down")}
	p := New(client, config.ConversionConfig{})

	err := p.FinalizeResult(context.Background(), result(1), newContext())
	require.Error(t, err)
	assert.ErrorContains(t, err, "conversions api down")
}
