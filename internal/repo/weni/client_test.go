package weni

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/product-concierge/internal/config"
)

func newTestClient(conf config.WeniConfig) Client {
	return NewClient(&config.Config{Weni: conf})
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestSendBroadcast(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 4711}`))
	}))
	defer srv.Close()

	client := newTestClient(config.WeniConfig{
		Token:        "secret",
		BroadcastURL: srv.URL,
	})

	id, err := client.SendBroadcast(context.Background(), &BroadcastMessage{
		URN:  "whatsapp:5511999990000",
		Text: "achei 3 produtos",
	})
	require.NoError(t, err)
	assert.Equal(t, "4711", id)
	assert.Equal(t, "Token secret", gotAuth)
	assert.Equal(t, []any{"whatsapp:5511999990000"}, gotBody["urns"])

	msg, ok := gotBody["msg"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "achei 3 produtos", msg["text"])
}

func TestSendBroadcastJWTFallback(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 1}`))
	}))
	defer srv.Close()

	client := newTestClient(config.WeniConfig{
		JWTToken:    "jwt-token",
		InternalURL: srv.URL,
	})

	_, err := client.SendBroadcast(context.Background(), &BroadcastMessage{
		URN:  "whatsapp:5511999990000",
		Text: "oi",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer jwt-token", gotAuth)
}

func TestSendBroadcastMissingContentType(t *testing.T) {
	// flows sometimes answers JSON without the Content-Type header; the
	// broadcast id must still decode
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`{"id": 4711}`))
	}))
	defer srv.Close()

	client := newTestClient(config.WeniConfig{
		Token:        "secret",
		BroadcastURL: srv.URL,
	})

	id, err := client.SendBroadcast(context.Background(), &BroadcastMessage{
		URN:  "whatsapp:5511999990000",
		Text: "oi",
	})
	require.NoError(t, err)
	assert.Equal(t, "4711", id)
}

func TestSendBroadcastNoCredentials(t *testing.T) {
	client := newTestClient(config.WeniConfig{})

	_, err := client.SendBroadcast(context.Background(), &BroadcastMessage{
		URN:  "whatsapp:5511999990000",
		Text: "oi",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials")
}

func TestSendBroadcastNoURN(t *testing.T) {
	client := newTestClient(config.WeniConfig{Token: "secret"})

	_, err := client.SendBroadcast(context.Background(), &BroadcastMessage{Text: "oi"})
	require.Error(t, err)
}

func TestSendCarousel(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 99}`))
	}))
	defer srv.Close()

	client := newTestClient(config.WeniConfig{
		Token:        "secret",
		BroadcastURL: srv.URL,
	})

	id, err := client.SendCarousel(context.Background(), &CarouselMessage{
		URN:  "whatsapp:5511999990000",
		Text: "Encontrei 2 produtos",
		Cards: []CarouselCard{
			{Title: "Arroz 5kg", Body: "R$ 22,90", ImageURL: "https://img/1.jpg", Link: "https://store/p/1"},
			{Title: "Feijão 1kg", Body: "R$ 8,50"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "99", id)

	msg, ok := gotBody["msg"].(map[string]any)
	require.True(t, ok)
	cards, ok := msg["carousel"].([]any)
	require.True(t, ok)
	require.Len(t, cards, 2)

	first, ok := cards[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Arroz 5kg", first["title"])
	assert.Equal(t, []any{"https://img/1.jpg"}, first["attachments"])
	assert.Equal(t, "https://store/p/1", first["link"])

	second, ok := cards[1].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, second, "attachments")
}

func TestSendCarouselNoCards(t *testing.T) {
	client := newTestClient(config.WeniConfig{Token: "secret"})

	_, err := client.SendCarousel(context.Background(), &CarouselMessage{
		URN: "whatsapp:5511999990000",
	})
	require.Error(t, err)
}

func TestStartFlow(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeBody(t, r)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := newTestClient(config.WeniConfig{
		Token:        "secret",
		FlowStartURL: srv.URL,
	})

	err := client.StartFlow(context.Background(), &FlowStart{
		FlowUUID: "0b8a...flow",
		URN:      "whatsapp:5511999990000",
		Params:   map[string]any{"query": "arroz"},
	})
	require.NoError(t, err)
	assert.Equal(t, "0b8a...flow", gotBody["flow"])

	params, ok := gotBody["params"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "arroz", params["query"])
}

func TestStartFlowUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := newTestClient(config.WeniConfig{
		Token:        "secret",
		FlowStartURL: srv.URL,
	})

	err := client.StartFlow(context.Background(), &FlowStart{
		FlowUUID: "0b8a...flow",
		URN:      "whatsapp:5511999990000",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestSendConversionEvent(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeBody(t, r)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient(config.WeniConfig{
		Token:         "secret",
		ConversionURL: srv.URL,
	})

	err := client.SendConversionEvent(context.Background(), &ConversionEvent{
		EventID:     "evt-1",
		EventType:   "lead",
		ChannelUUID: "chan-1",
		URN:         "whatsapp:5511999990000",
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", gotBody["event_id"])
	assert.Equal(t, "lead", gotBody["event_type"])
}

func TestSendConversionEventNoChannel(t *testing.T) {
	client := newTestClient(config.WeniConfig{Token: "secret"})

	err := client.SendConversionEvent(context.Background(), &ConversionEvent{EventID: "evt-1"})
	require.Error(t, err)
}
