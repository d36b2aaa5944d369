package actions

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcamillo/leadflow/pkg/assignment"
	"github.com/gcamillo/leadflow/pkg/delivery"
	"github.com/gcamillo/leadflow/pkg/models"
)

type fakeEmailSender struct {
	sent []delivery.Email
	err  error
}

func (f *fakeEmailSender) SendEmail(_ context.Context, email delivery.Email) error {
	if f.err != nil {
		return f.err
	}

	f.sent = append(f.sent, email)

	return nil
}

type fakeSMSSender struct {
	sent []delivery.SMS
}

func (f *fakeSMSSender) SendSMS(_ context.Context, sms delivery.SMS) error {
	f.sent = append(f.sent, sms)

	return nil
}

type fakeTaskStore struct {
	tasks []delivery.Task
	calls []delivery.Call
}

func (f *fakeTaskStore) CreateTask(_ context.Context, task delivery.Task) error {
	f.tasks = append(f.tasks, task)

	return nil
}

func (f *fakeTaskStore) ScheduleCall(_ context.Context, call delivery.Call) error {
	f.calls = append(f.calls, call)

	return nil
}

type fakeWebhookCaller struct {
	url     string
	payload map[string]any
	status  int
}

func (f *fakeWebhookCaller) CallWebhook(_ context.Context, url string, payload map[string]any) (int, error) {
	f.url = url
	f.payload = payload

	return f.status, nil
}

type fakeCRMUpdater struct {
	leadID string
	fields map[string]any
}

func (f *fakeCRMUpdater) UpdateCRM(_ context.Context, leadID string, fields map[string]any) error {
	f.leadID = leadID
	f.fields = fields

	return nil
}

type fakeEnroller struct {
	enrollment *models.Enrollment
	err        error

	sequenceID string
	leadID     string
	startDelay time.Duration
}

func (f *fakeEnroller) Enroll(_ context.Context, sequenceID, leadID string, startDelay time.Duration) (*models.Enrollment, error) {
	f.sequenceID = sequenceID
	f.leadID = leadID
	f.startDelay = startDelay

	return f.enrollment, f.err
}

func testExecCtx() ExecutionContext {
	return ExecutionContext{
		ExecutionID: "exec-1",
		RuleID:      "rule-1",
		RuleName:    "hot_leads_immediate",
		Profile: &models.LeadProfile{
			ID:    "lead-1",
			Email: "jordan@example.com",
			Phone: "+15550001111",
		},
		Score: &models.LeadScore{TotalScore: 450, Quality: models.QualityHot},
	}
}

func TestRegistryDispatchUnknownType(t *testing.T) {
	registry := NewRegistry(slog.Default())

	_, err := registry.Dispatch(context.Background(), testExecCtx(), &models.Action{Type: "teleport_lead"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestAssignHandlerWritesTable(t *testing.T) {
	ctx := context.Background()
	table := assignment.NewMemoryTable()
	handler := NewAssignHandler(slog.Default(), table, nil)

	result, err := handler.Execute(ctx, testExecCtx(), &models.Action{
		Type:   models.ActionAssignToUser,
		Assign: &models.AssignConfig{UserID: "sales-team-lead", Priority: "high", Notify: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "sales-team-lead", result["assigned_to"])

	owner, found, err := table.Lookup(ctx, "lead-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "sales-team-lead", owner)
}

func TestAssignHandlerMissingConfig(t *testing.T) {
	handler := NewAssignHandler(slog.Default(), assignment.NewMemoryTable(), nil)

	_, err := handler.Execute(context.Background(), testExecCtx(), &models.Action{Type: models.ActionAssignToUser})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing its config")
}

func TestEmailHandler(t *testing.T) {
	sender := &fakeEmailSender{}
	handler := NewEmailHandler(slog.Default(), sender)

	result, err := handler.Execute(context.Background(), testExecCtx(), &models.Action{
		Type:  models.ActionSendEmail,
		Email: &models.EmailConfig{Template: "hot_lead_welcome", Subject: "Welcome"},
	})
	require.NoError(t, err)
	assert.Equal(t, "jordan@example.com", result["to"])

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "hot_lead_welcome", sender.sent[0].Template)
}

func TestEmailHandlerNoAddress(t *testing.T) {
	handler := NewEmailHandler(slog.Default(), &fakeEmailSender{})

	execCtx := testExecCtx()
	execCtx.Profile.Email = ""

	_, err := handler.Execute(context.Background(), execCtx, &models.Action{
		Type:  models.ActionSendEmail,
		Email: &models.EmailConfig{Template: "hot_lead_welcome"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no email address")
}

func TestSMSHandlerFailsFastWithoutPhone(t *testing.T) {
	sender := &fakeSMSSender{}
	handler := NewSMSHandler(slog.Default(), sender)

	execCtx := testExecCtx()
	execCtx.Profile.Phone = ""

	_, err := handler.Execute(context.Background(), execCtx, &models.Action{
		Type: models.ActionSendSMS,
		SMS:  &models.SMSConfig{Message: "Quick question about your trial"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no phone number")
	assert.Empty(t, sender.sent)
}

func TestTaskHandlerResolvesAssignedUserAtDispatchTime(t *testing.T) {
	ctx := context.Background()
	table := assignment.NewMemoryTable()
	store := &fakeTaskStore{}
	clock := clockwork.NewFakeClock()
	handler := NewTaskHandler(slog.Default(), clock, store, table)

	action := &models.Action{
		Type: models.ActionCreateTask,
		Task: &models.TaskConfig{Title: "Call within 1 hour", AssignTo: models.AssignedUserRef, DueInHours: 1},
	}

	// No assignment yet: the task lands unassigned rather than failing.
	_, err := handler.Execute(ctx, testExecCtx(), action)
	require.NoError(t, err)
	require.Len(t, store.tasks, 1)
	assert.Empty(t, store.tasks[0].AssignTo)

	require.NoError(t, table.Assign(ctx, "lead-1", "senior-closer"))

	_, err = handler.Execute(ctx, testExecCtx(), action)
	require.NoError(t, err)
	require.Len(t, store.tasks, 2)
	assert.Equal(t, "senior-closer", store.tasks[1].AssignTo)
	require.NotNil(t, store.tasks[1].DueAt)
	assert.Equal(t, clock.Now().UTC().Add(time.Hour), *store.tasks[1].DueAt)
}

func TestCallHandlerSchedulesWithinWindow(t *testing.T) {
	ctx := context.Background()
	table := assignment.NewMemoryTable()
	require.NoError(t, table.Assign(ctx, "lead-1", "sales-team-lead"))

	store := &fakeTaskStore{}
	clock := clockwork.NewFakeClock()
	handler := NewCallHandler(slog.Default(), clock, store, table)

	_, err := handler.Execute(ctx, testExecCtx(), &models.Action{
		Type: models.ActionScheduleCall,
		Call: &models.CallConfig{AssignTo: models.AssignedUserRef, WithinHours: 2},
	})
	require.NoError(t, err)

	require.Len(t, store.calls, 1)
	assert.Equal(t, "sales-team-lead", store.calls[0].AssignTo)
	assert.Equal(t, clock.Now().UTC().Add(2*time.Hour), store.calls[0].ScheduledFor)
}

func TestSequenceHandlerEnrolls(t *testing.T) {
	enroller := &fakeEnroller{enrollment: &models.Enrollment{ID: "enrollment-1"}}
	handler := NewSequenceHandler(slog.Default(), enroller)

	result, err := handler.Execute(context.Background(), testExecCtx(), &models.Action{
		Type:     models.ActionAddToSequence,
		Sequence: &models.SequenceConfig{SequenceID: "cold_lead_nurture", StartDelayMinutes: 30},
	})
	require.NoError(t, err)

	assert.Equal(t, "enrollment-1", result["enrollment_id"])
	assert.Equal(t, "cold_lead_nurture", enroller.sequenceID)
	assert.Equal(t, "lead-1", enroller.leadID)
	assert.Equal(t, 30*time.Minute, enroller.startDelay)
}

func TestSequenceHandlerMissingSequence(t *testing.T) {
	enroller := &fakeEnroller{err: errors.New("sequence not found")}
	handler := NewSequenceHandler(slog.Default(), enroller)

	_, err := handler.Execute(context.Background(), testExecCtx(), &models.Action{
		Type:     models.ActionAddToSequence,
		Sequence: &models.SequenceConfig{SequenceID: "missing"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sequence not found")
}

func TestWebhookHandlerPayload(t *testing.T) {
	caller := &fakeWebhookCaller{status: 200}
	clock := clockwork.NewFakeClock()
	handler := NewWebhookHandler(slog.Default(), clock, caller)

	execCtx := testExecCtx()

	result, err := handler.Execute(context.Background(), execCtx, &models.Action{
		Type:    models.ActionWebhook,
		Webhook: &models.WebhookConfig{URL: "https://crm.example.com/hooks/leads", Extra: map[string]any{"source": "router"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 200, result["status"])
	assert.Equal(t, "https://crm.example.com/hooks/leads", caller.url)
	assert.Equal(t, execCtx.Profile, caller.payload["lead_profile"])
	assert.Equal(t, execCtx.Score, caller.payload["lead_score"])
	assert.Equal(t, "router", caller.payload["source"])
	assert.NotEmpty(t, caller.payload["timestamp"])
}

func TestCRMHandler(t *testing.T) {
	updater := &fakeCRMUpdater{}
	handler := NewCRMHandler(slog.Default(), updater)

	_, err := handler.Execute(context.Background(), testExecCtx(), &models.Action{
		Type: models.ActionUpdateCRM,
		CRM:  &models.CRMConfig{Fields: map[string]any{"lifecycle_stage": "nurture"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "lead-1", updater.leadID)
	assert.Equal(t, "nurture", updater.fields["lifecycle_stage"])
}

func TestDefaultRegistryCoversAllTypes(t *testing.T) {
	registry := NewDefaultRegistry(Deps{
		Logger:      slog.Default(),
		Clock:       clockwork.NewFakeClock(),
		Assignments: assignment.NewMemoryTable(),
		Providers: delivery.Providers{
			Email:   &fakeEmailSender{},
			SMS:     &fakeSMSSender{},
			Webhook: &fakeWebhookCaller{},
			CRM:     &fakeCRMUpdater{},
			Tasks:   &fakeTaskStore{},
		},
		Enroller: &fakeEnroller{enrollment: &models.Enrollment{ID: "enrollment-1"}},
	})

	for _, actionType := range []models.ActionType{
		models.ActionAssignToUser,
		models.ActionSendEmail,
		models.ActionCreateTask,
		models.ActionAddToSequence,
		models.ActionScheduleCall,
		models.ActionSendSMS,
		models.ActionWebhook,
		models.ActionUpdateCRM,
	} {
		handler, err := registry.Handler(actionType)
		require.NoError(t, err, actionType)
		assert.Equal(t, actionType, handler.Type())
		assert.NotEmpty(t, handler.Schema())
	}

	assert.Len(t, registry.Schemas(), 8)
}
