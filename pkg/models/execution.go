package models

import "time"

// ExecutionStatus is the lifecycle state of a workflow execution.
type ExecutionStatus string

const (
	ExecutionPending    ExecutionStatus = "pending"
	ExecutionInProgress ExecutionStatus = "in_progress"
	ExecutionCompleted  ExecutionStatus = "completed"
	ExecutionFailed     ExecutionStatus = "failed"
	ExecutionCancelled  ExecutionStatus = "cancelled"
)

type ActionStatus string

const (
	ActionStatusPending   ActionStatus = "pending"
	ActionStatusCompleted ActionStatus = "completed"
	ActionStatusFailed    ActionStatus = "failed"
)

// ActionRecord is the audit entry for one action of an execution, in
// declaration order. A gated action that did not run is recorded as completed
// with Skipped set.
type ActionRecord struct {
	ActionType ActionType     `json:"action_type"`
	Status     ActionStatus   `json:"status"`
	Skipped    bool           `json:"skipped,omitempty"`
	ExecutedAt *time.Time     `json:"executed_at,omitempty"`
	Result     map[string]any `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// WorkflowExecution is one run of a matched rule against a lead. One lead may
// have several concurrent executions, one per matched rule. ExecutedActions is
// append-only and the record is immutable once the status is terminal.
type WorkflowExecution struct {
	ID              string          `json:"id"`
	LeadID          string          `json:"lead_id"`
	UserID          string          `json:"user_id,omitempty"`
	RuleID          string          `json:"rule_id"`
	RuleName        string          `json:"rule_name"`
	Status          ExecutionStatus `json:"status"`
	ExecutedActions []ActionRecord  `json:"executed_actions"`
	NextAction      int             `json:"next_action"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
}

// IsTerminal reports whether the execution can no longer advance.
func (e *WorkflowExecution) IsTerminal() bool {
	switch e.Status {
	case ExecutionCompleted, ExecutionFailed, ExecutionCancelled:
		return true
	default:
		return false
	}
}
