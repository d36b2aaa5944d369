// Package workflow contains the two state machines of the routing engine: the
// workflow executor that runs a matched rule's action pipeline, and the
// sequence runner that walks nurture enrollments. Both suspend on durable
// timers and resume from persisted cursors.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gcamillo/leadflow/pkg/actions"
	"github.com/gcamillo/leadflow/pkg/conditions"
	"github.com/gcamillo/leadflow/pkg/eventbus"
	"github.com/gcamillo/leadflow/pkg/events"
	"github.com/gcamillo/leadflow/pkg/models"
	"github.com/gcamillo/leadflow/pkg/persistence"
	"github.com/gcamillo/leadflow/pkg/rules"
)

// Scoring looks up the lead profile and score from the external scoring
// engine. Resumed state machines re-fetch both instead of persisting
// snapshots, so a resumed action sees current lead data.
type Scoring interface {
	LeadProfile(ctx context.Context, leadID string) (*models.LeadProfile, error)
	LeadScore(ctx context.Context, leadID string) (*models.LeadScore, error)
}

// Executor runs a matched rule's actions against a lead, strictly in array
// order. Per-action failures are recorded and never abort the execution;
// "failed" status is reserved for errors that prevent action processing
// entirely.
type Executor struct {
	logger     *slog.Logger
	clock      clockwork.Clock
	registry   *actions.Registry
	rules      *rules.Repository
	scoring    Scoring
	executions persistence.ExecutionRepository
	timers     persistence.TimerRepository
	bus        eventbus.EventBus
	newID      func() string
}

func NewExecutor(
	logger *slog.Logger,
	clock clockwork.Clock,
	registry *actions.Registry,
	ruleRepo *rules.Repository,
	scoring Scoring,
	executions persistence.ExecutionRepository,
	timers persistence.TimerRepository,
	bus eventbus.EventBus,
	newID func() string,
) *Executor {
	return &Executor{
		logger:     logger.With("module", "workflow"),
		clock:      clock,
		registry:   registry,
		rules:      ruleRepo,
		scoring:    scoring,
		executions: executions,
		timers:     timers,
		bus:        bus,
		newID:      newID,
	}
}

// Start creates an execution for the matched rule and advances it until it
// either finishes or suspends on a delayed action. The returned record
// reflects whatever state was reached.
func (e *Executor) Start(ctx context.Context, profile *models.LeadProfile, score *models.LeadScore, rule *models.RoutingRule) (*models.WorkflowExecution, error) {
	execution := &models.WorkflowExecution{
		ID:              e.newID(),
		LeadID:          profile.ID,
		RuleID:          rule.ID,
		RuleName:        rule.Name,
		Status:          models.ExecutionInProgress,
		ExecutedActions: make([]models.ActionRecord, 0, len(rule.Actions)),
		StartedAt:       e.clock.Now().UTC(),
	}

	if err := e.executions.Save(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to create execution record: %w", err)
	}

	e.publish(ctx, profile.ID, events.ExecutionStarted{
		BaseEvent:   e.baseEvent(events.ExecutionStartedEvent, profile.ID),
		ExecutionID: execution.ID,
		RuleID:      rule.ID,
		RuleName:    rule.Name,
	})

	e.logger.Info("Execution started",
		"execution_id", execution.ID,
		"lead_id", profile.ID,
		"rule_id", rule.ID,
		"actions", len(rule.Actions))

	return e.run(ctx, execution, profile, score, rule, false)
}

// Resume continues a suspended execution after its delay timer fired. The
// first pending action's delay is considered served.
func (e *Executor) Resume(ctx context.Context, executionID string) error {
	execution, err := e.executions.ByID(ctx, executionID)
	if err != nil {
		return fmt.Errorf("failed to load execution %s: %w", executionID, err)
	}

	if execution.IsTerminal() {
		return nil
	}

	rule, err := e.rules.FetchByID(execution.RuleID)
	if err != nil {
		return e.fail(ctx, execution, fmt.Errorf("rule %s no longer exists: %w", execution.RuleID, err))
	}

	profile, err := e.scoring.LeadProfile(ctx, execution.LeadID)
	if err != nil {
		return e.fail(ctx, execution, fmt.Errorf("failed to load lead profile: %w", err))
	}

	score, err := e.scoring.LeadScore(ctx, execution.LeadID)
	if err != nil {
		return e.fail(ctx, execution, fmt.Errorf("failed to load lead score: %w", err))
	}

	_, err = e.run(ctx, execution, profile, score, rule, true)

	return err
}

// Cancel marks an active execution cancelled and drops its pending timers.
// History up to the cancellation point is preserved.
func (e *Executor) Cancel(ctx context.Context, executionID string) error {
	execution, err := e.executions.ByID(ctx, executionID)
	if err != nil {
		return err
	}

	if execution.IsTerminal() {
		return fmt.Errorf("execution %s is already %s", executionID, execution.Status)
	}

	execution.Status = models.ExecutionCancelled
	now := e.clock.Now().UTC()
	execution.CompletedAt = &now

	if err := e.executions.Save(ctx, execution); err != nil {
		return fmt.Errorf("failed to save cancelled execution: %w", err)
	}

	e.dropTimers(ctx, executionID)

	e.publish(ctx, execution.LeadID, events.ExecutionCancelled{
		BaseEvent:   e.baseEvent(events.ExecutionCancelledEvent, execution.LeadID),
		ExecutionID: execution.ID,
		RuleID:      execution.RuleID,
	})

	e.logger.Info("Execution cancelled", "execution_id", executionID)

	return nil
}

// run advances the execution from its NextAction cursor. delayServed marks
// the first pending action's delay as already waited out.
func (e *Executor) run(ctx context.Context, execution *models.WorkflowExecution, profile *models.LeadProfile, score *models.LeadScore, rule *models.RoutingRule, delayServed bool) (*models.WorkflowExecution, error) {
	execCtx := actions.ExecutionContext{
		ExecutionID: execution.ID,
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		Profile:     profile,
		Score:       score,
	}

	for execution.NextAction < len(rule.Actions) {
		if cancelled, current := e.cancelledExternally(ctx, execution.ID); cancelled {
			return current, nil
		}

		action := rule.Actions[execution.NextAction]

		if action.DelayMinutes > 0 && !delayServed {
			return execution, e.suspend(ctx, execution, action.DelayMinutes)
		}

		delayServed = false

		record := e.dispatch(ctx, execCtx, &action)

		execution.ExecutedActions = append(execution.ExecutedActions, record)
		execution.NextAction++

		if err := e.executions.Save(ctx, execution); err != nil {
			e.logger.Error("Failed to persist execution progress",
				"execution_id", execution.ID, "error", err)
		}

		e.publish(ctx, execution.LeadID, events.ActionExecuted{
			BaseEvent:   e.baseEvent(events.ActionExecutedEvent, execution.LeadID),
			ExecutionID: execution.ID,
			ActionType:  record.ActionType,
			Status:      record.Status,
			Error:       record.Error,
		})
	}

	return e.complete(ctx, execution)
}

// dispatch gates the action on its own conditions and hands it to the
// registry. Both gate skips and handler failures come back as records; an
// error never escapes a single action.
func (e *Executor) dispatch(ctx context.Context, execCtx actions.ExecutionContext, action *models.Action) models.ActionRecord {
	now := e.clock.Now().UTC()
	record := models.ActionRecord{
		ActionType: action.Type,
		ExecutedAt: &now,
	}

	if len(action.Conditions) > 0 && !conditions.EvaluateAll(action.Conditions, execCtx.Profile, execCtx.Score) {
		record.Status = models.ActionStatusCompleted
		record.Skipped = true

		e.logger.Debug("Action skipped by conditions",
			"execution_id", execCtx.ExecutionID, "action_type", action.Type)

		return record
	}

	result, err := e.registry.Dispatch(ctx, execCtx, action)
	if err != nil {
		record.Status = models.ActionStatusFailed
		record.Error = err.Error()

		e.logger.Warn("Action failed",
			"execution_id", execCtx.ExecutionID,
			"action_type", action.Type,
			"error", err)

		return record
	}

	record.Status = models.ActionStatusCompleted
	record.Result = result

	return record
}

func (e *Executor) suspend(ctx context.Context, execution *models.WorkflowExecution, delayMinutes int) error {
	now := e.clock.Now().UTC()
	timer := &models.Timer{
		ID:        e.newID(),
		Kind:      models.TimerExecution,
		OwnerID:   execution.ID,
		FireAt:    now.Add(time.Duration(delayMinutes) * time.Minute),
		CreatedAt: now,
	}

	if err := e.timers.Save(ctx, timer); err != nil {
		return e.fail(ctx, execution, fmt.Errorf("failed to schedule delay timer: %w", err))
	}

	if err := e.executions.Save(ctx, execution); err != nil {
		return e.fail(ctx, execution, fmt.Errorf("failed to persist suspended execution: %w", err))
	}

	e.logger.Info("Execution suspended for delay",
		"execution_id", execution.ID,
		"next_action", execution.NextAction,
		"fire_at", timer.FireAt)

	return nil
}

func (e *Executor) complete(ctx context.Context, execution *models.WorkflowExecution) (*models.WorkflowExecution, error) {
	now := e.clock.Now().UTC()
	execution.Status = models.ExecutionCompleted
	execution.CompletedAt = &now

	if err := e.executions.Save(ctx, execution); err != nil {
		// The in-memory record is already complete; the audit write must not
		// unwind it.
		e.logger.Error("Failed to persist completed execution",
			"execution_id", execution.ID, "error", err)
	}

	var failures int

	for _, record := range execution.ExecutedActions {
		if record.Status == models.ActionStatusFailed {
			failures++
		}
	}

	e.publish(ctx, execution.LeadID, events.ExecutionCompleted{
		BaseEvent:    e.baseEvent(events.ExecutionCompletedEvent, execution.LeadID),
		ExecutionID:  execution.ID,
		RuleID:       execution.RuleID,
		ActionsRun:   len(execution.ExecutedActions),
		ActionsError: failures,
	})

	e.logger.Info("Execution completed",
		"execution_id", execution.ID,
		"actions_run", len(execution.ExecutedActions),
		"actions_failed", failures)

	return execution, nil
}

func (e *Executor) fail(ctx context.Context, execution *models.WorkflowExecution, cause error) error {
	now := e.clock.Now().UTC()
	execution.Status = models.ExecutionFailed
	execution.CompletedAt = &now

	if execution.Metadata == nil {
		execution.Metadata = map[string]any{}
	}

	execution.Metadata["error"] = cause.Error()

	if err := e.executions.Save(ctx, execution); err != nil {
		e.logger.Error("Failed to persist failed execution",
			"execution_id", execution.ID, "error", err)
	}

	e.publish(ctx, execution.LeadID, events.ExecutionFailed{
		BaseEvent:   e.baseEvent(events.ExecutionFailedEvent, execution.LeadID),
		ExecutionID: execution.ID,
		RuleID:      execution.RuleID,
		Error:       cause.Error(),
	})

	e.logger.Error("Execution failed", "execution_id", execution.ID, "error", cause)

	return cause
}

// cancelledExternally re-reads the persisted status so an external cancel is
// honored at the next action boundary.
func (e *Executor) cancelledExternally(ctx context.Context, executionID string) (bool, *models.WorkflowExecution) {
	current, err := e.executions.ByID(ctx, executionID)
	if err != nil {
		return false, nil
	}

	if current.Status == models.ExecutionCancelled {
		e.logger.Info("Execution cancelled externally, stopping", "execution_id", executionID)

		return true, current
	}

	return false, nil
}

func (e *Executor) dropTimers(ctx context.Context, ownerID string) {
	timers, err := e.timers.ByOwner(ctx, ownerID)
	if err != nil {
		e.logger.Warn("Failed to list timers for cancelled owner", "owner_id", ownerID, "error", err)

		return
	}

	for _, timer := range timers {
		if err := e.timers.Delete(ctx, timer.ID); err != nil && !persistence.IsTimerNotFound(err) {
			e.logger.Warn("Failed to delete timer", "timer_id", timer.ID, "error", err)
		}
	}
}

func (e *Executor) baseEvent(eventType events.EventType, leadID string) events.BaseEvent {
	var id string
	if e.bus != nil {
		id = e.bus.GenerateID()
	}

	return events.BaseEvent{
		ID:        id,
		Type:      eventType,
		Timestamp: e.clock.Now().UTC(),
		LeadID:    leadID,
	}
}

func (e *Executor) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.bus == nil {
		return
	}

	if err := e.bus.Publish(ctx, key, event); err != nil {
		e.logger.Warn("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
