package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gcamillo/leadflow/pkg/delivery"
	"github.com/gcamillo/leadflow/pkg/models"
)

// WebhookHandler posts the lead snapshot plus any configured extra fields to
// an external URL.
type WebhookHandler struct {
	logger *slog.Logger
	clock  clockwork.Clock
	caller delivery.WebhookCaller
}

func NewWebhookHandler(logger *slog.Logger, clock clockwork.Clock, caller delivery.WebhookCaller) *WebhookHandler {
	return &WebhookHandler{
		logger: logger.With("action_type", models.ActionWebhook),
		clock:  clock,
		caller: caller,
	}
}

func (h *WebhookHandler) Type() models.ActionType { return models.ActionWebhook }

func (h *WebhookHandler) Execute(ctx context.Context, execCtx ExecutionContext, action *models.Action) (map[string]any, error) {
	config := action.Webhook
	if config == nil {
		return nil, missingConfigError(h.Type())
	}

	payload := map[string]any{
		"lead_profile": execCtx.Profile,
		"lead_score":   execCtx.Score,
		"timestamp":    h.clock.Now().UTC().Format(time.RFC3339),
	}
	for key, value := range config.Extra {
		payload[key] = value
	}

	status, err := h.caller.CallWebhook(ctx, config.URL, payload)
	if err != nil {
		return nil, fmt.Errorf("webhook call to %s failed: %w", config.URL, err)
	}

	h.logger.Info("Webhook delivered", "lead_id", execCtx.Profile.ID, "url", config.URL, "status", status)

	return map[string]any{
		"url":    config.URL,
		"status": status,
	}, nil
}

func (h *WebhookHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url":   map[string]any{"type": "string", "minLength": 1, "format": "uri"},
			"extra": map[string]any{"type": "object"},
		},
		"required": []string{"url"},
	}
}
