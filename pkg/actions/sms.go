package actions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gcamillo/leadflow/pkg/delivery"
	"github.com/gcamillo/leadflow/pkg/models"
)

// SMSHandler fails fast when the lead has no phone channel.
type SMSHandler struct {
	logger *slog.Logger
	sender delivery.SMSSender
}

func NewSMSHandler(logger *slog.Logger, sender delivery.SMSSender) *SMSHandler {
	return &SMSHandler{
		logger: logger.With("action_type", models.ActionSendSMS),
		sender: sender,
	}
}

func (h *SMSHandler) Type() models.ActionType { return models.ActionSendSMS }

func (h *SMSHandler) Execute(ctx context.Context, execCtx ExecutionContext, action *models.Action) (map[string]any, error) {
	config := action.SMS
	if config == nil {
		return nil, missingConfigError(h.Type())
	}

	if execCtx.Profile.Phone == "" {
		return nil, fmt.Errorf("lead %s has no phone number", execCtx.Profile.ID)
	}

	sms := delivery.SMS{
		To:      execCtx.Profile.Phone,
		Message: config.Message,
	}

	if err := h.sender.SendSMS(ctx, sms); err != nil {
		return nil, fmt.Errorf("failed to send SMS to lead %s: %w", execCtx.Profile.ID, err)
	}

	h.logger.Info("SMS sent", "lead_id", execCtx.Profile.ID)

	return map[string]any{"to": sms.To}, nil
}

func (h *SMSHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"message"},
	}
}
