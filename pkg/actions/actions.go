// Package actions implements the per-type handlers behind routing rule
// actions and the registry that dispatches to them.
package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gcamillo/leadflow/pkg/assignment"
	"github.com/gcamillo/leadflow/pkg/delivery"
	"github.com/gcamillo/leadflow/pkg/eventbus"
	"github.com/gcamillo/leadflow/pkg/models"
)

// ExecutionContext carries the lead and execution identity into a handler.
type ExecutionContext struct {
	ExecutionID string
	RuleID      string
	RuleName    string
	Profile     *models.LeadProfile
	Score       *models.LeadScore
}

// Handler executes one action type. Execute returns a result payload for the
// action record, or an error that the executor records as a failed action.
type Handler interface {
	Type() models.ActionType
	Execute(ctx context.Context, execCtx ExecutionContext, action *models.Action) (map[string]any, error)
	Schema() map[string]any
}

// Enroller starts a nurture sequence enrollment. Implemented by the sequence
// runner; declared here so handlers stay decoupled from it.
type Enroller interface {
	Enroll(ctx context.Context, sequenceID, leadID string, startDelay time.Duration) (*models.Enrollment, error)
}

type Registry struct {
	logger   *slog.Logger
	handlers map[models.ActionType]Handler
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger.With("module", "actions"),
		handlers: make(map[models.ActionType]Handler),
	}
}

func (r *Registry) Register(handler Handler) {
	r.handlers[handler.Type()] = handler
}

func (r *Registry) Handler(actionType models.ActionType) (Handler, error) {
	handler, ok := r.handlers[actionType]
	if !ok {
		return nil, fmt.Errorf("action type %q not registered", actionType)
	}

	return handler, nil
}

// Dispatch resolves the handler for the action's type and executes it.
func (r *Registry) Dispatch(ctx context.Context, execCtx ExecutionContext, action *models.Action) (map[string]any, error) {
	handler, err := r.Handler(action.Type)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Dispatching action",
		"action_type", action.Type,
		"execution_id", execCtx.ExecutionID,
		"lead_id", execCtx.Profile.ID)

	return handler.Execute(ctx, execCtx, action)
}

// Schemas returns the configuration JSON schema per registered action type.
func (r *Registry) Schemas() map[models.ActionType]map[string]any {
	schemas := make(map[models.ActionType]map[string]any, len(r.handlers))
	for actionType, handler := range r.handlers {
		schemas[actionType] = handler.Schema()
	}

	return schemas
}

// Deps bundles what the built-in handlers need.
type Deps struct {
	Logger      *slog.Logger
	Clock       clockwork.Clock
	Assignments assignment.Table
	Providers   delivery.Providers
	Enroller    Enroller
	EventBus    eventbus.EventBus
}

// NewDefaultRegistry registers every built-in handler.
func NewDefaultRegistry(deps Deps) *Registry {
	registry := NewRegistry(deps.Logger)

	registry.Register(NewAssignHandler(deps.Logger, deps.Assignments, deps.EventBus))
	registry.Register(NewEmailHandler(deps.Logger, deps.Providers.Email))
	registry.Register(NewTaskHandler(deps.Logger, deps.Clock, deps.Providers.Tasks, deps.Assignments))
	registry.Register(NewSequenceHandler(deps.Logger, deps.Enroller))
	registry.Register(NewCallHandler(deps.Logger, deps.Clock, deps.Providers.Tasks, deps.Assignments))
	registry.Register(NewSMSHandler(deps.Logger, deps.Providers.SMS))
	registry.Register(NewWebhookHandler(deps.Logger, deps.Clock, deps.Providers.Webhook))
	registry.Register(NewCRMHandler(deps.Logger, deps.Providers.CRM))

	return registry
}

// resolveOwner maps the symbolic "assigned_user" reference to the current
// assignment table entry at dispatch time. Unresolvable references come back
// empty so the task lands unassigned instead of failing the action.
func resolveOwner(ctx context.Context, logger *slog.Logger, table assignment.Table, leadID, assignTo string) (string, error) {
	if assignTo != models.AssignedUserRef {
		return assignTo, nil
	}

	owner, found, err := table.Lookup(ctx, leadID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve assigned user for lead %s: %w", leadID, err)
	}

	if !found {
		logger.Warn("No assignment found for symbolic owner reference", "lead_id", leadID)

		return "", nil
	}

	return owner, nil
}

func missingConfigError(actionType models.ActionType) error {
	return fmt.Errorf("action type %q is missing its config", actionType)
}
