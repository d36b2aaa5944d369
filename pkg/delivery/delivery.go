// Package delivery defines the narrow interfaces through which the engine
// reaches external providers. Real email/SMS/CRM integrations live in the
// host application; the engine only formats payloads and calls these.
package delivery

import (
	"context"
	"time"
)

type Email struct {
	To       string            `json:"to"`
	Template string            `json:"template"`
	Subject  string            `json:"subject,omitempty"`
	Vars     map[string]string `json:"vars,omitempty"`
}

type SMS struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type Task struct {
	LeadID      string     `json:"lead_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssignTo    string     `json:"assign_to,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
}

type Call struct {
	LeadID       string    `json:"lead_id"`
	AssignTo     string    `json:"assign_to,omitempty"`
	ScheduledFor time.Time `json:"scheduled_for"`
	Notes        string    `json:"notes,omitempty"`
}

type EmailSender interface {
	SendEmail(ctx context.Context, email Email) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, sms SMS) error
}

// WebhookCaller posts a JSON payload to an external URL.
type WebhookCaller interface {
	CallWebhook(ctx context.Context, url string, payload map[string]any) (int, error)
}

type CRMUpdater interface {
	UpdateCRM(ctx context.Context, leadID string, fields map[string]any) error
}

// TaskStore persists tasks and scheduled calls for humans to work through.
type TaskStore interface {
	CreateTask(ctx context.Context, task Task) error
	ScheduleCall(ctx context.Context, call Call) error
}

// Providers bundles every delivery dependency the action handlers need.
type Providers struct {
	Email   EmailSender
	SMS     SMSSender
	Webhook WebhookCaller
	CRM     CRMUpdater
	Tasks   TaskStore
}
