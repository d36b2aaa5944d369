package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultWebhookTimeout = 30 * time.Second

// HTTPWebhookCaller delivers webhook payloads with a plain HTTP POST.
type HTTPWebhookCaller struct {
	client  *http.Client
	timeout time.Duration
}

func NewHTTPWebhookCaller() *HTTPWebhookCaller {
	return &HTTPWebhookCaller{
		client:  &http.Client{},
		timeout: defaultWebhookTimeout,
	}
}

func (c *HTTPWebhookCaller) CallWebhook(ctx context.Context, url string, payload map[string]any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return resp.StatusCode, nil
}
