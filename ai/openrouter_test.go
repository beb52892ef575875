package ai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbuddy/core"
)

func newTestRelay(ts *httptest.Server) *Relay {
	conf := &core.Config{}
	conf.OpenRouter.BaseURL = ts.URL
	conf.OpenRouter.ApiKey = "test-key"
	conf.OpenRouter.Model = "test-model"
	conf.OpenRouter.MaxTokens = 300
	conf.OpenRouter.Referer = "http://localhost:5173"
	conf.OpenRouter.Title = "stock-buddy"
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRelay(conf, log, ts.Client())
}

func relayFault(t *testing.T, err error) *core.Fault {
	t.Helper()
	var fault *core.Fault
	require.ErrorAs(t, err, &fault)
	return fault
}

func TestComplete_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "stock-buddy", r.Header.Get("X-Title"))

		var request ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "test-model", request.Model)
		assert.Equal(t, 300, request.MaxTokens)
		require.Len(t, request.Messages, 1)
		require.Len(t, request.Messages[0].Content, 2)
		assert.Equal(t, "text", request.Messages[0].Content[0].Type)
		assert.Equal(t, "what is this?", request.Messages[0].Content[0].Text)
		assert.Equal(t, "image_url", request.Messages[0].Content[1].Type)
		assert.Equal(t, "https://i.ibb.co/x/p.png", request.Messages[0].Content[1].ImageURL.URL)

		_, _ = w.Write([]byte(`{"id":"gen-1","model":"test-model","choices":[{"message":{"role":"assistant","content":"A chart."}}]}`))
	}))
	defer ts.Close()

	reply, err := newTestRelay(ts).Complete(context.Background(), "what is this?", "https://i.ibb.co/x/p.png")
	require.NoError(t, err)
	assert.Equal(t, "A chart.", reply)
}

func TestComplete_TextOnlyHasSinglePart(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.Len(t, request.Messages[0].Content, 1)
		assert.Equal(t, "text", request.Messages[0].Content[0].Type)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi"}}]}`))
	}))
	defer ts.Close()

	_, err := newTestRelay(ts).Complete(context.Background(), "hello", "")
	require.NoError(t, err)
}

func TestComplete_EmptyReply(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	_, err := newTestRelay(ts).Complete(context.Background(), "hello", "")
	assert.Equal(t, core.FaultEmptyReply, relayFault(t, err).Kind)
}

func TestComplete_QuotaExceeded(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"code":402,"message":"Prompt tokens limit exceeded: 2000 > 1239"}}`))
	}))
	defer ts.Close()

	_, err := newTestRelay(ts).Complete(context.Background(), "hello", "")
	fault := relayFault(t, err)
	assert.Equal(t, core.FaultQuotaExceeded, fault.Kind)
	assert.Equal(t, "Prompt too large", fault.Message)
}

func TestComplete_ImageExtractionFailed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Failed to extract 1 image(s) from the request"}}`))
	}))
	defer ts.Close()

	_, err := newTestRelay(ts).Complete(context.Background(), "hello", "https://i.ibb.co/x/p.png")
	fault := relayFault(t, err)
	assert.Equal(t, core.FaultImageExtraction, fault.Kind)
	assert.Equal(t, "https://i.ibb.co/x/p.png", fault.ImageURL)
}

func TestComplete_GenericUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"upstream exploded"}}`))
	}))
	defer ts.Close()

	_, err := newTestRelay(ts).Complete(context.Background(), "hello", "")
	fault := relayFault(t, err)
	assert.Equal(t, core.FaultUpstream, fault.Kind)
	assert.Contains(t, fault.Detail, "upstream exploded")
}

func TestComplete_NonJSONErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html><body>502 Bad Gateway</body></html>"))
	}))
	defer ts.Close()

	_, err := newTestRelay(ts).Complete(context.Background(), "hello", "")
	fault := relayFault(t, err)
	assert.Equal(t, core.FaultUpstream, fault.Kind)
	assert.Equal(t, "AI response failed", fault.Message)
	assert.Contains(t, fault.Detail, "502")
}

func TestListModels(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"id":"model-a"},{"id":"model-b"}]}`))
	}))
	defer ts.Close()

	models, err := newTestRelay(ts).ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"model-a", "model-b"}, models)
}
