package flowtrigger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/product-concierge/internal/concierge"
	"github.com/nguyentranbao-ct/product-concierge/internal/config"
	"github.com/nguyentranbao-ct/product-concierge/internal/models"
	"github.com/nguyentranbao-ct/product-concierge/internal/repo/weni"
)

type fakeWeni struct {
	start    *weni.FlowStart
	startErr error
}

func (f *fakeWeni) SendBroadcast(ctx context.Context, msg *weni.BroadcastMessage) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeWeni) SendCarousel(ctx context.Context, msg *weni.CarouselMessage) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeWeni) StartFlow(ctx context.Context, start *weni.FlowStart) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.start = start
	return nil
}

func (f *fakeWeni) SendConversionEvent(ctx context.Context, event *weni.ConversionEvent) error {
	return errors.New("not implemented")
}

type fakeSessions struct {
	triggered map[string]bool
	err       error
}

func (f *fakeSessions) MarkTriggered(ctx context.Context, flowUUID, contactURN string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.triggered == nil {
		f.triggered = map[string]bool{}
	}
	key := flowUUID + "/" + contactURN
	if f.triggered[key] {
		return false, nil
	}
	f.triggered[key] = true
	return true, nil
}

const flowUUID = "9bd1b932-cd02-4e3e-8bbd-6a5d55b1e1f9"

func newContext() *concierge.SearchContext {
	return concierge.NewSearchContext(models.SearchRequest{
		Query:   "leite",
		Contact: models.ContactInfo{URN: "whatsapp:5511966665555"},
	})
}

func result() *models.SearchResult {
	return &models.SearchResult{
		Status:   models.StatusComplete,
		Products: []models.Product{{SKUID: "1"}, {SKUID: "2"}},
	}
}

func TestStartsFlowWithParams(t *testing.T) {
	client := &fakeWeni{}
	p := New(client, &fakeSessions{}, config.FlowTriggerConfig{FlowUUID: flowUUID, TriggerOnce: true})

	res := result()
	err := p.FinalizeResult(context.Background(), res, newContext())
	require.NoError(t, err)

	require.NotNil(t, client.start)
	assert.Equal(t, flowUUID, client.start.FlowUUID)
	assert.Equal(t, "whatsapp:5511966665555", client.start.URN)
	assert.Equal(t, "leite", client.start.Params["query"])
	assert.Equal(t, 2, client.start.Params["product_count"])
	assert.Equal(t, "complete", client.start.Params["status"])
	assert.Equal(t, flowUUID, res.Extra["flow_started"])
}

func TestTriggerOncePerContact(t *testing.T) {
	client := &fakeWeni{}
	sessions := &fakeSessions{}
	p := New(client, sessions, config.FlowTriggerConfig{FlowUUID: flowUUID, TriggerOnce: true})

	require.NoError(t, p.FinalizeResult(context.Background(), result(), newContext()))
	require.NotNil(t, client.start)

	client.start = nil
	res := result()
	require.NoError(t, p.FinalizeResult(context.Background(), res, newContext()))
	assert.Nil(t, client.start)
	assert.Empty(t, res.Extra)
}

func TestTriggerEveryTime(t *testing.T) {
	client := &fakeWeni{}
	p := New(client, nil, config.FlowTriggerConfig{FlowUUID: flowUUID, TriggerOnce: false})

	require.NoError(t, p.FinalizeResult(context.Background(), result(), newContext()))
	client.start = nil
	require.NoError(t, p.FinalizeResult(context.Background(), result(), newContext()))
	assert.NotNil(t, client.start)
}

func TestNoContactIsNoop(t *testing.T) {
	client := &fakeWeni{}
	p := New(client, &fakeSessions{}, config.FlowTriggerConfig{FlowUUID: flowUUID})

	sc := concierge.NewSearchContext(models.SearchRequest{Query: "leite"})
	require.NoError(t, p.FinalizeResult(context.Background(), result(), sc))
	assert.Nil(t, client.start)
}

func TestMissingFlowUUID(t *testing.T) {
	p := New(&fakeWeni{}, &fakeSessions{}, config.FlowTriggerConfig{})
	err := p.FinalizeResult(context.Background(), result(), newContext())
	require.Error(t, err)
}

func TestSessionStoreFailure(t *testing.T) {
	client := &fakeWeni{}
	sessions := &fakeSessions{err: errors.New("mongo down")}
	p := New(client, sessions, config.FlowTriggerConfig{FlowUUID: flowUUID, TriggerOnce: true})

	err := p.FinalizeResult(context.Background(), result(), newContext())
	require.Error(t, err)
	assert.Nil(t, client.start)
}

func TestStartFailure(t *testing.T) {
	client := &fakeWeni{startErr: errors.New("flows api down")}
	p := New(client, nil, config.FlowTriggerConfig{FlowUUID: flowUUID})

	err := p.FinalizeResult(context.Background(), result(), newContext())
	require.Error(t, err)
	assert.ErrorContains(t, err, "flows api down")
}
