package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPWebhookCaller_PostsJSON(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	caller := NewHTTPWebhookCaller()

	status, err := caller.CallWebhook(context.Background(), server.URL, map[string]any{
		"lead_id": "lead-1",
		"event":   "rule_matched",
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "lead-1", received["lead_id"])
}

func TestHTTPWebhookCaller_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	caller := NewHTTPWebhookCaller()

	status, err := caller.CallWebhook(context.Background(), server.URL, map[string]any{})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestHTTPWebhookCaller_ConnectionRefused(t *testing.T) {
	caller := NewHTTPWebhookCaller()

	_, err := caller.CallWebhook(context.Background(), "http://127.0.0.1:1/hook", map[string]any{})

	assert.Error(t, err)
}
