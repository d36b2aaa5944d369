package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gcamillo/leadflow/pkg/assignment"
	"github.com/gcamillo/leadflow/pkg/delivery"
	"github.com/gcamillo/leadflow/pkg/models"
)

type CallHandler struct {
	logger *slog.Logger
	clock  clockwork.Clock
	store  delivery.TaskStore
	table  assignment.Table
}

func NewCallHandler(logger *slog.Logger, clock clockwork.Clock, store delivery.TaskStore, table assignment.Table) *CallHandler {
	return &CallHandler{
		logger: logger.With("action_type", models.ActionScheduleCall),
		clock:  clock,
		store:  store,
		table:  table,
	}
}

func (h *CallHandler) Type() models.ActionType { return models.ActionScheduleCall }

func (h *CallHandler) Execute(ctx context.Context, execCtx ExecutionContext, action *models.Action) (map[string]any, error) {
	config := action.Call
	if config == nil {
		return nil, missingConfigError(h.Type())
	}

	leadID := execCtx.Profile.ID

	owner, err := resolveOwner(ctx, h.logger, h.table, leadID, config.AssignTo)
	if err != nil {
		return nil, err
	}

	scheduledFor := h.clock.Now().UTC()
	if config.WithinHours > 0 {
		scheduledFor = scheduledFor.Add(time.Duration(config.WithinHours) * time.Hour)
	}

	call := delivery.Call{
		LeadID:       leadID,
		AssignTo:     owner,
		ScheduledFor: scheduledFor,
		Notes:        config.Notes,
	}

	if err := h.store.ScheduleCall(ctx, call); err != nil {
		return nil, fmt.Errorf("failed to schedule call for lead %s: %w", leadID, err)
	}

	h.logger.Info("Call scheduled", "lead_id", leadID, "assign_to", owner, "scheduled_for", scheduledFor)

	return map[string]any{
		"assign_to":     owner,
		"scheduled_for": scheduledFor.Format(time.RFC3339),
	}, nil
}

func (h *CallHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"assign_to":    map[string]any{"type": "string"},
			"within_hours": map[string]any{"type": "integer", "minimum": 0},
			"notes":        map[string]any{"type": "string"},
		},
	}
}
