package web

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/gcamillo/leadflow/pkg/models"
)

// validateActions checks each action's tagged config against the per-type
// JSON schema published by the registry.
func (h *Handlers) validateActions(actions []models.Action) error {
	schemas := h.engine.ActionSchemas()

	for i, action := range actions {
		if err := action.Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}

		schema, ok := schemas[action.Type]
		if !ok {
			return fmt.Errorf("action %d: type %q not registered", i, action.Type)
		}

		config := actionConfig(action)
		if config == nil {
			continue
		}

		raw, err := json.Marshal(config)
		if err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}

		result, err := gojsonschema.Validate(
			gojsonschema.NewGoLoader(schema),
			gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}

		if !result.Valid() {
			return fmt.Errorf("action %d (%s): %s", i, action.Type, result.Errors()[0].String())
		}
	}

	return nil
}

func actionConfig(action models.Action) any {
	switch action.Type {
	case models.ActionAssignToUser:
		return action.Assign
	case models.ActionSendEmail:
		return action.Email
	case models.ActionCreateTask:
		return action.Task
	case models.ActionAddToSequence:
		return action.Sequence
	case models.ActionScheduleCall:
		return action.Call
	case models.ActionSendSMS:
		return action.SMS
	case models.ActionWebhook:
		return action.Webhook
	case models.ActionUpdateCRM:
		return action.CRM
	default:
		return nil
	}
}
