package delivery

import (
	"context"
	"log/slog"
)

// LogProviders returns a Providers bundle that only logs. Useful for local
// development and as a safe default until the host wires real integrations.
func LogProviders(logger *slog.Logger) Providers {
	l := &logDelivery{logger: logger.With("module", "delivery")}

	return Providers{
		Email:   l,
		SMS:     l,
		Webhook: NewHTTPWebhookCaller(),
		CRM:     l,
		Tasks:   l,
	}
}

type logDelivery struct {
	logger *slog.Logger
}

func (l *logDelivery) SendEmail(_ context.Context, email Email) error {
	l.logger.Info("Would send email", "to", email.To, "template", email.Template, "subject", email.Subject)

	return nil
}

func (l *logDelivery) SendSMS(_ context.Context, sms SMS) error {
	l.logger.Info("Would send SMS", "to", sms.To, "message", sms.Message)

	return nil
}

func (l *logDelivery) UpdateCRM(_ context.Context, leadID string, fields map[string]any) error {
	l.logger.Info("Would update CRM", "lead_id", leadID, "fields", fields)

	return nil
}

func (l *logDelivery) CreateTask(_ context.Context, task Task) error {
	l.logger.Info("Would create task", "lead_id", task.LeadID, "title", task.Title, "assign_to", task.AssignTo)

	return nil
}

func (l *logDelivery) ScheduleCall(_ context.Context, call Call) error {
	l.logger.Info("Would schedule call", "lead_id", call.LeadID, "assign_to", call.AssignTo, "at", call.ScheduledFor)

	return nil
}
