package engine

import (
	"context"

	"github.com/gcamillo/leadflow/pkg/models"
)

// Configuration API. Rule and sequence mutations are atomic with respect to
// concurrently running matchers and executors: readers see the old or the
// new version, never a partial update.

func (e *Engine) AddRoutingRule(rule *models.RoutingRule) (*models.RoutingRule, error) {
	return e.rules.Create(rule)
}

func (e *Engine) UpdateRoutingRule(id string, rule *models.RoutingRule) (*models.RoutingRule, error) {
	return e.rules.Update(id, rule)
}

func (e *Engine) DeleteRoutingRule(id string) error {
	return e.rules.Delete(id)
}

func (e *Engine) RoutingRule(id string) (*models.RoutingRule, error) {
	return e.rules.FetchByID(id)
}

func (e *Engine) RoutingRules() []*models.RoutingRule {
	return e.rules.FetchAll()
}

func (e *Engine) AddNurtureSequence(sequence *models.NurtureSequence) (*models.NurtureSequence, error) {
	return e.sequences.Create(sequence)
}

func (e *Engine) UpdateNurtureSequence(id string, sequence *models.NurtureSequence) (*models.NurtureSequence, error) {
	return e.sequences.Update(id, sequence)
}

func (e *Engine) NurtureSequence(id string) (*models.NurtureSequence, error) {
	return e.sequences.FetchByID(id)
}

func (e *Engine) NurtureSequences() []*models.NurtureSequence {
	return e.sequences.FetchAll()
}

// Observability queries.

// ActiveWorkflows returns executions that have not reached a terminal state.
func (e *Engine) ActiveWorkflows(ctx context.Context) ([]*models.WorkflowExecution, error) {
	return e.store.Executions().Active(ctx)
}

func (e *Engine) Execution(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	return e.store.Executions().ByID(ctx, id)
}

func (e *Engine) LeadExecutions(ctx context.Context, leadID string) ([]*models.WorkflowExecution, error) {
	return e.store.Executions().ByLead(ctx, leadID)
}

// LeadAssignment returns the current owner of a lead, if any. The assignment
// table is last-write-wins; readers must tolerate staleness.
func (e *Engine) LeadAssignment(ctx context.Context, leadID string) (string, bool, error) {
	return e.table.Lookup(ctx, leadID)
}

func (e *Engine) Enrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	return e.store.Enrollments().ByID(ctx, id)
}

func (e *Engine) ActiveEnrollments(ctx context.Context) ([]*models.Enrollment, error) {
	return e.store.Enrollments().Active(ctx)
}

// Cancellation. Both are honored at the next action or step boundary and
// preserve history up to the cancellation point.

func (e *Engine) CancelExecution(ctx context.Context, id string) error {
	return e.executor.Cancel(ctx, id)
}

func (e *Engine) CancelEnrollment(ctx context.Context, id string) error {
	return e.runner.Cancel(ctx, id)
}

// CheckEscalations runs one escalation sweep immediately.
func (e *Engine) CheckEscalations(ctx context.Context) ([]models.Escalation, error) {
	return e.sweeper.Sweep(ctx)
}

// ActionSchemas exposes the per-type config schemas for API validation.
func (e *Engine) ActionSchemas() map[models.ActionType]map[string]any {
	return e.registry.Schemas()
}

func (e *Engine) HealthCheck(ctx context.Context) error {
	return e.store.HealthCheck(ctx)
}
