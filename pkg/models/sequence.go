package models

import "time"

// NurtureSequence is a long-lived directed graph of nurture steps.
// TargetAudience is advisory metadata; enrollment is always explicit through
// an add_to_sequence action.
type NurtureSequence struct {
	ID             string        `json:"id"`
	Name           string        `json:"name" validate:"required,min=3"`
	Description    string        `json:"description"`
	TargetAudience []Condition   `json:"target_audience,omitempty"`
	Steps          []NurtureStep `json:"steps" validate:"required,min=1,dive"`
	IsActive       bool          `json:"is_active"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type StepType string

const (
	StepEmail     StepType = "email"
	StepSMS       StepType = "sms"
	StepCall      StepType = "call"
	StepTask      StepType = "task"
	StepWait      StepType = "wait"
	StepCondition StepType = "condition"
)

// NurtureStep is one node of a sequence graph. A condition step branches to
// AlternativeStepID when its conditions evaluate false, otherwise to
// NextStepID. A step without NextStepID is terminal.
type NurtureStep struct {
	ID                string       `json:"id"   validate:"required"`
	Name              string       `json:"name"`
	Type              StepType     `json:"type" validate:"required"`
	DelayHours        float64      `json:"delay_hours"`
	Content           *StepContent `json:"content,omitempty"`
	Conditions        []Condition  `json:"conditions,omitempty"`
	NextStepID        *string      `json:"next_step_id,omitempty"`
	AlternativeStepID *string      `json:"alternative_step_id,omitempty"`
}

// StepContent carries the message material for content-bearing step types.
type StepContent struct {
	Subject  string `json:"subject,omitempty"`
	Template string `json:"template,omitempty"`
	Message  string `json:"message,omitempty"`
	Title    string `json:"title,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// StepRecord is the audit entry for one executed sequence step.
type StepRecord struct {
	StepID     string     `json:"step_id"`
	Type       StepType   `json:"type"`
	Status     string     `json:"status"`
	ExecutedAt *time.Time `json:"executed_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Enrollment tracks one lead's independent progress through a sequence.
// Multiple enrollments may run concurrently for the same lead with no mutual
// awareness.
type Enrollment struct {
	ID            string           `json:"id"`
	SequenceID    string           `json:"sequence_id"`
	LeadID        string           `json:"lead_id"`
	CurrentStepID string           `json:"current_step_id"`
	Status        EnrollmentStatus `json:"status"`
	History       []StepRecord     `json:"history,omitempty"`
	StartedAt     time.Time        `json:"started_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the enrollment can no longer advance.
func (e *Enrollment) IsTerminal() bool {
	return e.Status == EnrollmentCompleted || e.Status == EnrollmentCancelled
}
