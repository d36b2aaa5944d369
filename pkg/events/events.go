// Package events defines event types for lead routing lifecycle
// notifications.
package events

import (
	"time"

	"github.com/gcamillo/leadflow/pkg/models"
)

type EventType string

const Topic = "leadflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	LeadProcessedEvent EventType = "lead.processed"
	LeadAssignedEvent  EventType = "lead.assigned"

	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionCancelledEvent EventType = "execution.cancelled"
	ActionExecutedEvent     EventType = "execution.action.executed"

	EnrollmentStartedEvent   EventType = "enrollment.started"
	EnrollmentAdvancedEvent  EventType = "enrollment.advanced"
	EnrollmentCompletedEvent EventType = "enrollment.completed"

	EscalationRaisedEvent EventType = "escalation.raised"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	LeadID    string         `json:"lead_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type LeadProcessed struct {
	BaseEvent

	Quality      models.LeadQuality `json:"quality"`
	TotalScore   float64            `json:"total_score"`
	MatchedRules []string           `json:"matched_rules"`
}

func (e LeadProcessed) GetType() EventType { return LeadProcessedEvent }

type LeadAssigned struct {
	BaseEvent

	UserID string `json:"user_id"`
	RuleID string `json:"rule_id,omitempty"`
	Notify bool   `json:"notify,omitempty"`
}

func (e LeadAssigned) GetType() EventType { return LeadAssignedEvent }

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	RuleID      string `json:"rule_id"`
	RuleName    string `json:"rule_name"`
}

func (e ExecutionStarted) GetType() EventType { return ExecutionStartedEvent }

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID  string `json:"execution_id"`
	RuleID       string `json:"rule_id"`
	ActionsRun   int    `json:"actions_run"`
	ActionsError int    `json:"actions_error"`
}

func (e ExecutionCompleted) GetType() EventType { return ExecutionCompletedEvent }

type ExecutionFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	RuleID      string `json:"rule_id"`
	Error       string `json:"error"`
}

func (e ExecutionFailed) GetType() EventType { return ExecutionFailedEvent }

type ExecutionCancelled struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	RuleID      string `json:"rule_id"`
}

func (e ExecutionCancelled) GetType() EventType { return ExecutionCancelledEvent }

type ActionExecuted struct {
	BaseEvent

	ExecutionID string              `json:"execution_id"`
	ActionType  models.ActionType   `json:"action_type"`
	Status      models.ActionStatus `json:"status"`
	Error       string              `json:"error,omitempty"`
}

func (e ActionExecuted) GetType() EventType { return ActionExecutedEvent }

type EnrollmentStarted struct {
	BaseEvent

	EnrollmentID string `json:"enrollment_id"`
	SequenceID   string `json:"sequence_id"`
}

func (e EnrollmentStarted) GetType() EventType { return EnrollmentStartedEvent }

type EnrollmentAdvanced struct {
	BaseEvent

	EnrollmentID string          `json:"enrollment_id"`
	SequenceID   string          `json:"sequence_id"`
	StepID       string          `json:"step_id"`
	StepType     models.StepType `json:"step_type"`
}

func (e EnrollmentAdvanced) GetType() EventType { return EnrollmentAdvancedEvent }

type EnrollmentCompleted struct {
	BaseEvent

	EnrollmentID string `json:"enrollment_id"`
	SequenceID   string `json:"sequence_id"`
}

func (e EnrollmentCompleted) GetType() EventType { return EnrollmentCompletedEvent }

type EscalationRaised struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	RuleID      string `json:"rule_id"`
	EscalateTo  string `json:"escalate_to"`
	Reason      string `json:"reason"`
}

func (e EscalationRaised) GetType() EventType { return EscalationRaisedEvent }
