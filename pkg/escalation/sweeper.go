package escalation

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	"github.com/gcamillo/leadflow/pkg/assignment"
	"github.com/gcamillo/leadflow/pkg/eventbus"
	"github.com/gcamillo/leadflow/pkg/events"
	"github.com/gcamillo/leadflow/pkg/models"
	"github.com/gcamillo/leadflow/pkg/persistence"
	"github.com/gcamillo/leadflow/pkg/rules"
)

const DefaultSchedule = "@every 10m"

// Sweeper periodically runs Check over the active executions and applies the
// resulting directives: the lead is reassigned to the escalation target and
// an event is published. Each execution escalates at most once.
type Sweeper struct {
	logger     *slog.Logger
	clock      clockwork.Clock
	cron       *cron.Cron
	rules      *rules.Repository
	executions persistence.ExecutionRepository
	table      assignment.Table
	bus        eventbus.EventBus
}

func NewSweeper(
	logger *slog.Logger,
	clock clockwork.Clock,
	ruleRepo *rules.Repository,
	executions persistence.ExecutionRepository,
	table assignment.Table,
	bus eventbus.EventBus,
) *Sweeper {
	return &Sweeper{
		logger:     logger.With("module", "escalation"),
		clock:      clock,
		cron:       cron.New(),
		rules:      ruleRepo,
		executions: executions,
		table:      table,
		bus:        bus,
	}
}

// Start schedules recurring sweeps. schedule is a cron expression or a
// descriptor like "@every 10m".
func (s *Sweeper) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	_, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("Escalation sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Escalation sweeper started", "schedule", schedule)

	return nil
}

func (s *Sweeper) Stop() {
	s.cron.Stop()
	s.logger.Info("Escalation sweeper stopped")
}

// Sweep runs one pass and returns the directives it applied.
func (s *Sweeper) Sweep(ctx context.Context) ([]models.Escalation, error) {
	active, err := s.executions.Active(ctx)
	if err != nil {
		return nil, err
	}

	rulesByID := make(map[string]*models.RoutingRule)
	for _, rule := range s.rules.FetchAll() {
		rulesByID[rule.ID] = rule
	}

	var applied []models.Escalation

	for _, escalation := range Check(active, rulesByID, s.clock.Now().UTC()) {
		if s.alreadyEscalated(active, escalation.ExecutionID) {
			continue
		}

		if err := s.apply(ctx, escalation); err != nil {
			s.logger.Error("Failed to apply escalation",
				"execution_id", escalation.ExecutionID, "error", err)

			continue
		}

		applied = append(applied, escalation)
	}

	if len(applied) > 0 {
		s.logger.Info("Escalations applied", "count", len(applied))
	}

	return applied, nil
}

func (s *Sweeper) apply(ctx context.Context, escalation models.Escalation) error {
	if err := s.table.Assign(ctx, escalation.LeadID, escalation.EscalateTo); err != nil {
		return err
	}

	execution, err := s.executions.ByID(ctx, escalation.ExecutionID)
	if err != nil {
		return err
	}

	if execution.Metadata == nil {
		execution.Metadata = map[string]any{}
	}

	execution.Metadata["escalated_to"] = escalation.EscalateTo
	execution.Metadata["escalated_at"] = s.clock.Now().UTC().Format(time.RFC3339)

	if err := s.executions.Save(ctx, execution); err != nil {
		return err
	}

	s.logger.Warn("Execution escalated",
		"execution_id", escalation.ExecutionID,
		"lead_id", escalation.LeadID,
		"escalate_to", escalation.EscalateTo,
		"elapsed", escalation.Elapsed)

	if s.bus != nil {
		event := events.EscalationRaised{
			BaseEvent: events.BaseEvent{
				ID:        s.bus.GenerateID(),
				Type:      events.EscalationRaisedEvent,
				Timestamp: s.clock.Now().UTC(),
				LeadID:    escalation.LeadID,
			},
			ExecutionID: escalation.ExecutionID,
			RuleID:      escalation.RuleID,
			EscalateTo:  escalation.EscalateTo,
			Reason:      escalation.Reason,
		}
		if err := s.bus.Publish(ctx, escalation.LeadID, event); err != nil {
			s.logger.Warn("Failed to publish escalation event", "error", err)
		}
	}

	return nil
}

func (s *Sweeper) alreadyEscalated(executions []*models.WorkflowExecution, executionID string) bool {
	for _, execution := range executions {
		if execution.ID != executionID {
			continue
		}

		_, done := execution.Metadata["escalated_to"]

		return done
	}

	return false
}
