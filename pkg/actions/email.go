package actions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gcamillo/leadflow/pkg/delivery"
	"github.com/gcamillo/leadflow/pkg/models"
)

type EmailHandler struct {
	logger *slog.Logger
	sender delivery.EmailSender
}

func NewEmailHandler(logger *slog.Logger, sender delivery.EmailSender) *EmailHandler {
	return &EmailHandler{
		logger: logger.With("action_type", models.ActionSendEmail),
		sender: sender,
	}
}

func (h *EmailHandler) Type() models.ActionType { return models.ActionSendEmail }

func (h *EmailHandler) Execute(ctx context.Context, execCtx ExecutionContext, action *models.Action) (map[string]any, error) {
	config := action.Email
	if config == nil {
		return nil, missingConfigError(h.Type())
	}

	if execCtx.Profile.Email == "" {
		return nil, fmt.Errorf("lead %s has no email address", execCtx.Profile.ID)
	}

	email := delivery.Email{
		To:       execCtx.Profile.Email,
		Template: config.Template,
		Subject:  config.Subject,
		Vars:     config.Vars,
	}

	if err := h.sender.SendEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to send email to lead %s: %w", execCtx.Profile.ID, err)
	}

	h.logger.Info("Email sent", "lead_id", execCtx.Profile.ID, "template", config.Template)

	return map[string]any{
		"to":       email.To,
		"template": email.Template,
	}, nil
}

func (h *EmailHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"template": map[string]any{"type": "string", "minLength": 1},
			"subject":  map[string]any{"type": "string"},
			"vars":     map[string]any{"type": "object"},
		},
		"required": []string{"template"},
	}
}
