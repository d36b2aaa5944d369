package actions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gcamillo/leadflow/pkg/delivery"
	"github.com/gcamillo/leadflow/pkg/models"
)

type CRMHandler struct {
	logger  *slog.Logger
	updater delivery.CRMUpdater
}

func NewCRMHandler(logger *slog.Logger, updater delivery.CRMUpdater) *CRMHandler {
	return &CRMHandler{
		logger:  logger.With("action_type", models.ActionUpdateCRM),
		updater: updater,
	}
}

func (h *CRMHandler) Type() models.ActionType { return models.ActionUpdateCRM }

func (h *CRMHandler) Execute(ctx context.Context, execCtx ExecutionContext, action *models.Action) (map[string]any, error) {
	config := action.CRM
	if config == nil {
		return nil, missingConfigError(h.Type())
	}

	if len(config.Fields) == 0 {
		return nil, fmt.Errorf("crm update for lead %s has no fields", execCtx.Profile.ID)
	}

	if err := h.updater.UpdateCRM(ctx, execCtx.Profile.ID, config.Fields); err != nil {
		return nil, fmt.Errorf("failed to update CRM for lead %s: %w", execCtx.Profile.ID, err)
	}

	h.logger.Info("CRM updated", "lead_id", execCtx.Profile.ID, "fields", len(config.Fields))

	return map[string]any{"updated_fields": len(config.Fields)}, nil
}

func (h *CRMHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"fields": map[string]any{"type": "object", "minProperties": 1},
		},
		"required": []string{"fields"},
	}
}
