package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gcamillo/leadflow/pkg/assignment"
	"github.com/gcamillo/leadflow/pkg/eventbus"
	"github.com/gcamillo/leadflow/pkg/events"
	"github.com/gcamillo/leadflow/pkg/models"
)

// AssignHandler writes the lead assignment table. Last write wins, even
// across concurrently running rule executions.
type AssignHandler struct {
	logger *slog.Logger
	table  assignment.Table
	bus    eventbus.EventBus
}

func NewAssignHandler(logger *slog.Logger, table assignment.Table, bus eventbus.EventBus) *AssignHandler {
	return &AssignHandler{
		logger: logger.With("action_type", models.ActionAssignToUser),
		table:  table,
		bus:    bus,
	}
}

func (h *AssignHandler) Type() models.ActionType { return models.ActionAssignToUser }

func (h *AssignHandler) Execute(ctx context.Context, execCtx ExecutionContext, action *models.Action) (map[string]any, error) {
	config := action.Assign
	if config == nil {
		return nil, missingConfigError(h.Type())
	}

	leadID := execCtx.Profile.ID

	if err := h.table.Assign(ctx, leadID, config.UserID); err != nil {
		return nil, fmt.Errorf("failed to assign lead %s to %s: %w", leadID, config.UserID, err)
	}

	h.logger.Info("Lead assigned", "lead_id", leadID, "user_id", config.UserID, "priority", config.Priority)

	if h.bus != nil {
		event := events.LeadAssigned{
			BaseEvent: events.BaseEvent{
				ID:        h.bus.GenerateID(),
				Type:      events.LeadAssignedEvent,
				Timestamp: time.Now().UTC(),
				LeadID:    leadID,
			},
			UserID: config.UserID,
			RuleID: execCtx.RuleID,
			Notify: config.Notify,
		}
		if err := h.bus.Publish(ctx, leadID, event); err != nil {
			h.logger.Warn("Failed to publish assignment event", "lead_id", leadID, "error", err)
		}
	}

	return map[string]any{
		"assigned_to": config.UserID,
		"priority":    config.Priority,
		"notified":    config.Notify,
	}, nil
}

func (h *AssignHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id":  map[string]any{"type": "string", "minLength": 1, "description": "User or team the lead is assigned to"},
			"priority": map[string]any{"type": "string"},
			"notify":   map[string]any{"type": "boolean"},
		},
		"required": []string{"user_id"},
	}
}
