package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gcamillo/leadflow/pkg/models"
)

// SequenceHandler starts an independent nurture enrollment for the lead.
// A missing sequence ID is a configuration error surfaced to the executor.
type SequenceHandler struct {
	logger   *slog.Logger
	enroller Enroller
}

func NewSequenceHandler(logger *slog.Logger, enroller Enroller) *SequenceHandler {
	return &SequenceHandler{
		logger:   logger.With("action_type", models.ActionAddToSequence),
		enroller: enroller,
	}
}

func (h *SequenceHandler) Type() models.ActionType { return models.ActionAddToSequence }

func (h *SequenceHandler) Execute(ctx context.Context, execCtx ExecutionContext, action *models.Action) (map[string]any, error) {
	config := action.Sequence
	if config == nil {
		return nil, missingConfigError(h.Type())
	}

	startDelay := time.Duration(config.StartDelayMinutes) * time.Minute

	enrollment, err := h.enroller.Enroll(ctx, config.SequenceID, execCtx.Profile.ID, startDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to enroll lead %s in sequence %s: %w", execCtx.Profile.ID, config.SequenceID, err)
	}

	h.logger.Info("Lead enrolled in sequence",
		"lead_id", execCtx.Profile.ID,
		"sequence_id", config.SequenceID,
		"enrollment_id", enrollment.ID)

	return map[string]any{
		"sequence_id":   config.SequenceID,
		"enrollment_id": enrollment.ID,
	}, nil
}

func (h *SequenceHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sequence_id":         map[string]any{"type": "string", "minLength": 1},
			"start_delay_minutes": map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"sequence_id"},
	}
}
