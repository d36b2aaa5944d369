package engine_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcamillo/leadflow/pkg/engine"
	"github.com/gcamillo/leadflow/pkg/models"
	"github.com/gcamillo/leadflow/pkg/persistence"
	"github.com/gcamillo/leadflow/pkg/persistence/file"
)

var errNoProfile = errors.New("lead profile not found")

type stubScoring struct {
	profiles map[string]*models.LeadProfile
	scores   map[string]*models.LeadScore
}

func (s *stubScoring) LeadProfile(_ context.Context, leadID string) (*models.LeadProfile, error) {
	profile, ok := s.profiles[leadID]
	if !ok {
		return nil, errNoProfile
	}

	return profile, nil
}

func (s *stubScoring) LeadScore(_ context.Context, leadID string) (*models.LeadScore, error) {
	score, ok := s.scores[leadID]
	if !ok {
		return nil, errNoProfile
	}

	return score, nil
}

func hotScoring() *stubScoring {
	return &stubScoring{
		profiles: map[string]*models.LeadProfile{
			"lead-hot": {
				ID:    "lead-hot",
				Email: "dana@example.com",
				Phone: "+15550003333",
				Intent: map[string]any{
					"urgency": "immediate",
				},
			},
			"lead-cold": {
				ID:    "lead-cold",
				Email: "sam@example.com",
			},
		},
		scores: map[string]*models.LeadScore{
			"lead-hot":  {TotalScore: 450, Quality: models.QualityHot},
			"lead-cold": {TotalScore: 80, Quality: models.QualityCold},
		},
	}
}

func newEngine(t *testing.T) (*engine.Engine, persistence.Persistence, *clockwork.FakeClock) {
	t.Helper()

	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()

	e, err := engine.New(engine.Config{
		Logger:      slog.Default(),
		Clock:       clock,
		Persistence: store,
		Scoring:     hotScoring(),
	})
	require.NoError(t, err)

	return e, store, clock
}

func TestNewRequiresPersistenceAndScoring(t *testing.T) {
	_, err := engine.New(engine.Config{Scoring: hotScoring()})
	require.Error(t, err)

	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	_, err = engine.New(engine.Config{Persistence: store})
	require.Error(t, err)
}

func TestProcessLeadHotLead(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()

	executions, err := e.ProcessLead(ctx, "lead-hot")
	require.NoError(t, err)

	// The hot lead with immediate urgency and a 450 score matches both the
	// urgency override and the hot lead rule.
	require.Len(t, executions, 2)

	for _, execution := range executions {
		assert.Equal(t, models.ExecutionCompleted, execution.Status)
		assert.Equal(t, "lead-hot", execution.LeadID)
	}

	owner, found, err := e.LeadAssignment(ctx, "lead-hot")
	require.NoError(t, err)
	require.True(t, found)
	// Concurrent rule executions race on the assignment register; either
	// writer may have landed last.
	assert.Contains(t, []string{"senior-closer", "sales-team-lead"}, owner)
}

func TestProcessLeadColdLeadEnrolls(t *testing.T) {
	e, store, _ := newEngine(t)
	ctx := context.Background()

	executions, err := e.ProcessLead(ctx, "lead-cold")
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, "cold_leads_nurture", executions[0].RuleID)

	enrollments, err := store.Enrollments().Active(ctx)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, "cold_lead_nurture", enrollments[0].SequenceID)
}

func TestProcessLeadUnknownLead(t *testing.T) {
	e, _, _ := newEngine(t)

	_, err := e.ProcessLead(context.Background(), "lead-unknown")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errNoProfile))
}

func TestRuleCRUDPassthrough(t *testing.T) {
	e, _, _ := newEngine(t)

	created, err := e.AddRoutingRule(&models.RoutingRule{
		Name:     "manual_review",
		IsActive: true,
		Priority: 7,
		Actions: []models.Action{
			{Type: models.ActionCreateTask, Task: &models.TaskConfig{Title: "Review manually"}},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	fetched, err := e.RoutingRule(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "manual_review", fetched.Name)

	require.NoError(t, e.DeleteRoutingRule(created.ID))

	_, err = e.RoutingRule(created.ID)
	require.Error(t, err)
}

func TestCancelExecutionThroughEngine(t *testing.T) {
	e, store, _ := newEngine(t)
	ctx := context.Background()

	_, err := e.AddRoutingRule(&models.RoutingRule{
		ID:       "slow_rule",
		Name:     "slow_followup",
		IsActive: true,
		Priority: 99,
		Conditions: []models.Condition{
			{Type: models.ConditionQuality, Operator: models.OperatorEquals, Value: "cold"},
		},
		Actions: []models.Action{
			{Type: models.ActionSendEmail, DelayMinutes: 60, Email: &models.EmailConfig{Template: "later"}},
		},
	})
	require.NoError(t, err)

	executions, err := e.ProcessLead(ctx, "lead-cold")
	require.NoError(t, err)

	var suspended *models.WorkflowExecution

	for _, execution := range executions {
		if execution.Status == models.ExecutionInProgress {
			suspended = execution
		}
	}

	require.NotNil(t, suspended)
	require.NoError(t, e.CancelExecution(ctx, suspended.ID))

	cancelled, err := store.Executions().ByID(ctx, suspended.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionCancelled, cancelled.Status)
}

func TestEngineRecoversExecutionWithoutTimer(t *testing.T) {
	e, store, _ := newEngine(t)
	ctx := context.Background()

	// An in_progress execution with no pending timer models a process that
	// died between a timer firing and the executor advancing.
	stranded := &models.WorkflowExecution{
		ID:       "exec-stranded",
		LeadID:   "lead-cold",
		RuleID:   "cold_leads_nurture",
		RuleName: "cold_leads_nurture",
		Status:   models.ExecutionInProgress,
	}
	require.NoError(t, store.Executions().Save(ctx, stranded))

	require.NoError(t, e.Start(ctx))
	defer e.Stop(ctx)

	recovered, err := store.Executions().ByID(ctx, "exec-stranded")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionCompleted, recovered.Status)
}

func TestEscalationThroughEngine(t *testing.T) {
	e, store, clock := newEngine(t)
	ctx := context.Background()

	// Suspend a hot-rule execution, then let four hours pass.
	execution := &models.WorkflowExecution{
		ID:        "exec-1",
		LeadID:    "lead-hot",
		RuleID:    "hot_leads_immediate",
		RuleName:  "hot_leads_immediate",
		Status:    models.ExecutionInProgress,
		StartedAt: clock.Now().UTC(),
	}
	require.NoError(t, store.Executions().Save(ctx, execution))

	clock.Advance(5 * time.Hour)

	applied, err := e.CheckEscalations(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, "sales-manager", applied[0].EscalateTo)

	owner, found, err := e.LeadAssignment(ctx, "lead-hot")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "sales-manager", owner)
}

func TestActionSchemasExposed(t *testing.T) {
	e, _, _ := newEngine(t)

	schemas := e.ActionSchemas()
	assert.Len(t, schemas, 8)
	assert.Contains(t, schemas, models.ActionWebhook)
}
