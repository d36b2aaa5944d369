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

// TaskHandler creates a follow-up task. A symbolic "assigned_user" owner is
// resolved against the assignment table when the action runs, so an earlier
// assignment from a concurrent rule can change the task owner.
type TaskHandler struct {
	logger *slog.Logger
	clock  clockwork.Clock
	store  delivery.TaskStore
	table  assignment.Table
}

func NewTaskHandler(logger *slog.Logger, clock clockwork.Clock, store delivery.TaskStore, table assignment.Table) *TaskHandler {
	return &TaskHandler{
		logger: logger.With("action_type", models.ActionCreateTask),
		clock:  clock,
		store:  store,
		table:  table,
	}
}

func (h *TaskHandler) Type() models.ActionType { return models.ActionCreateTask }

func (h *TaskHandler) Execute(ctx context.Context, execCtx ExecutionContext, action *models.Action) (map[string]any, error) {
	config := action.Task
	if config == nil {
		return nil, missingConfigError(h.Type())
	}

	leadID := execCtx.Profile.ID

	owner, err := resolveOwner(ctx, h.logger, h.table, leadID, config.AssignTo)
	if err != nil {
		return nil, err
	}

	task := delivery.Task{
		LeadID:      leadID,
		Title:       config.Title,
		Description: config.Description,
		AssignTo:    owner,
		Priority:    config.Priority,
	}

	if config.DueInHours > 0 {
		dueAt := h.clock.Now().UTC().Add(time.Duration(config.DueInHours) * time.Hour)
		task.DueAt = &dueAt
	}

	if err := h.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task for lead %s: %w", leadID, err)
	}

	h.logger.Info("Task created", "lead_id", leadID, "title", task.Title, "assign_to", owner)

	result := map[string]any{
		"title":     task.Title,
		"assign_to": owner,
	}
	if task.DueAt != nil {
		result["due_at"] = task.DueAt.Format(time.RFC3339)
	}

	return result, nil
}

func (h *TaskHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":        map[string]any{"type": "string", "minLength": 1},
			"description":  map[string]any{"type": "string"},
			"assign_to":    map[string]any{"type": "string", "description": "Owner user ID, or \"assigned_user\" to resolve from the assignment table"},
			"due_in_hours": map[string]any{"type": "integer", "minimum": 0},
			"priority":     map[string]any{"type": "string"},
		},
		"required": []string{"title"},
	}
}
