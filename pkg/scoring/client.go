// Package scoring provides the HTTP client for the external lead scoring
// service. The routing engine never computes scores itself.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gcamillo/leadflow/pkg/models"
)

const requestTimeout = 10 * time.Second

type HTTPClient struct {
	logger  *slog.Logger
	baseURL string
	client  *http.Client
}

func NewHTTPClient(logger *slog.Logger, baseURL string) *HTTPClient {
	return &HTTPClient{
		logger:  logger.With("module", "scoring"),
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

func (c *HTTPClient) LeadProfile(ctx context.Context, leadID string) (*models.LeadProfile, error) {
	var profile models.LeadProfile
	if err := c.get(ctx, leadID, fmt.Sprintf("%s/leads/%s/profile", c.baseURL, leadID), &profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

func (c *HTTPClient) LeadScore(ctx context.Context, leadID string) (*models.LeadScore, error) {
	var score models.LeadScore
	if err := c.get(ctx, leadID, fmt.Sprintf("%s/leads/%s/score", c.baseURL, leadID), &score); err != nil {
		return nil, err
	}

	return &score, nil
}

func (c *HTTPClient) get(ctx context.Context, leadID, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build scoring request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("scoring request failed: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("lead %s not known to the scoring service", leadID)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("scoring service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode scoring response: %w", err)
	}

	return nil
}
