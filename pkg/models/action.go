package models

import "fmt"

type ActionType string

const (
	ActionAssignToUser  ActionType = "assign_to_user"
	ActionSendEmail     ActionType = "send_email"
	ActionCreateTask    ActionType = "create_task"
	ActionAddToSequence ActionType = "add_to_sequence"
	ActionScheduleCall  ActionType = "schedule_call"
	ActionSendSMS       ActionType = "send_sms"
	ActionWebhook       ActionType = "webhook"
	ActionUpdateCRM     ActionType = "update_crm"
)

// AssignedUserRef is the symbolic owner reference resolved against the lead
// assignment table at dispatch time, not at rule-match time.
const AssignedUserRef = "assigned_user"

// Action is one step of a routing rule's pipeline. Exactly one config variant
// matching Type must be set. DelayMinutes is a pre-execution wait relative to
// the previous action's completion.
type Action struct {
	Type         ActionType  `json:"type" validate:"required"`
	DelayMinutes int         `json:"delay_minutes,omitempty"`
	Conditions   []Condition `json:"conditions,omitempty"`

	Assign   *AssignConfig   `json:"assign,omitempty"`
	Email    *EmailConfig    `json:"email,omitempty"`
	Task     *TaskConfig     `json:"task,omitempty"`
	Sequence *SequenceConfig `json:"sequence,omitempty"`
	Call     *CallConfig     `json:"call,omitempty"`
	SMS      *SMSConfig      `json:"sms,omitempty"`
	Webhook  *WebhookConfig  `json:"webhook,omitempty"`
	CRM      *CRMConfig      `json:"crm,omitempty"`
}

type AssignConfig struct {
	UserID   string `json:"user_id" validate:"required"`
	Priority string `json:"priority,omitempty"`
	Notify   bool   `json:"notify,omitempty"`
}

type EmailConfig struct {
	Template string            `json:"template" validate:"required"`
	Subject  string            `json:"subject,omitempty"`
	Vars     map[string]string `json:"vars,omitempty"`
}

type TaskConfig struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	AssignTo    string `json:"assign_to"`
	DueInHours  int    `json:"due_in_hours,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

type SequenceConfig struct {
	SequenceID        string `json:"sequence_id" validate:"required"`
	StartDelayMinutes int    `json:"start_delay_minutes,omitempty"`
}

type CallConfig struct {
	AssignTo    string `json:"assign_to"`
	WithinHours int    `json:"within_hours,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type SMSConfig struct {
	Message string `json:"message" validate:"required"`
}

type WebhookConfig struct {
	URL   string         `json:"url" validate:"required,url"`
	Extra map[string]any `json:"extra,omitempty"`
}

type CRMConfig struct {
	Fields map[string]any `json:"fields" validate:"required"`
}

// Validate checks that the config variant matching the action type is present.
func (a Action) Validate() error {
	var ok bool

	switch a.Type {
	case ActionAssignToUser:
		ok = a.Assign != nil
	case ActionSendEmail:
		ok = a.Email != nil
	case ActionCreateTask:
		ok = a.Task != nil
	case ActionAddToSequence:
		ok = a.Sequence != nil
	case ActionScheduleCall:
		ok = a.Call != nil
	case ActionSendSMS:
		ok = a.SMS != nil
	case ActionWebhook:
		ok = a.Webhook != nil
	case ActionUpdateCRM:
		ok = a.CRM != nil
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}

	if !ok {
		return fmt.Errorf("action type %q is missing its config", a.Type)
	}

	return nil
}
