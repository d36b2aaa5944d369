// Package engine wires the routing components into one facade: scoring
// lookup, rule matching, workflow execution, nurture sequences, durable
// timers and escalations behind a single API.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/gcamillo/leadflow/pkg/actions"
	"github.com/gcamillo/leadflow/pkg/assignment"
	"github.com/gcamillo/leadflow/pkg/delivery"
	"github.com/gcamillo/leadflow/pkg/escalation"
	"github.com/gcamillo/leadflow/pkg/eventbus"
	"github.com/gcamillo/leadflow/pkg/events"
	"github.com/gcamillo/leadflow/pkg/models"
	"github.com/gcamillo/leadflow/pkg/otelhelper"
	"github.com/gcamillo/leadflow/pkg/persistence"
	"github.com/gcamillo/leadflow/pkg/rules"
	"github.com/gcamillo/leadflow/pkg/scheduler"
	"github.com/gcamillo/leadflow/pkg/sequences"
	"github.com/gcamillo/leadflow/pkg/workflow"
)

// Config carries the engine's dependencies. Persistence and Scoring are
// required; everything else has a sensible default.
type Config struct {
	Logger      *slog.Logger
	Clock       clockwork.Clock
	Persistence persistence.Persistence
	EventBus    eventbus.EventBus
	Scoring     workflow.Scoring
	Assignments assignment.Table
	Providers   *delivery.Providers
	Rules       *rules.Repository
	Sequences   *sequences.Repository
	Tracer      trace.Tracer

	PollInterval       time.Duration
	EscalationSchedule string
}

type Engine struct {
	logger *slog.Logger
	clock  clockwork.Clock
	store  persistence.Persistence
	bus    eventbus.EventBus
	tracer trace.Tracer

	rules     *rules.Repository
	sequences *sequences.Repository
	matcher   *rules.Matcher
	table     assignment.Table
	scoring   workflow.Scoring
	registry  *actions.Registry
	executor  *workflow.Executor
	runner    *workflow.SequenceRunner
	poller    *scheduler.Poller
	sweeper   *escalation.Sweeper

	escalationSchedule string
}

func New(cfg Config) (*Engine, error) {
	if cfg.Persistence == nil {
		return nil, fmt.Errorf("engine requires a persistence layer")
	}

	if cfg.Scoring == nil {
		return nil, fmt.Errorf("engine requires a scoring provider")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	table := cfg.Assignments
	if table == nil {
		table = assignment.NewMemoryTable()
	}

	ruleRepo := cfg.Rules
	if ruleRepo == nil {
		ruleRepo = rules.NewDefaultRepository()
	}

	sequenceRepo := cfg.Sequences
	if sequenceRepo == nil {
		sequenceRepo = sequences.NewDefaultRepository()
	}

	providers := cfg.Providers
	if providers == nil {
		p := delivery.LogProviders(logger)
		providers = &p
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("leadflow")
	}

	newID := func() string { return uuid.New().String() }
	if cfg.EventBus != nil {
		newID = cfg.EventBus.GenerateID
	}

	runner := workflow.NewSequenceRunner(
		logger, clock, sequenceRepo, cfg.Scoring,
		cfg.Persistence.Enrollments(), cfg.Persistence.Timers(),
		cfg.EventBus, newID)

	registry := actions.NewDefaultRegistry(actions.Deps{
		Logger:      logger,
		Clock:       clock,
		Assignments: table,
		Providers:   *providers,
		Enroller:    runner,
		EventBus:    cfg.EventBus,
	})
	runner.SetRegistry(registry)

	executor := workflow.NewExecutor(
		logger, clock, registry, ruleRepo, cfg.Scoring,
		cfg.Persistence.Executions(), cfg.Persistence.Timers(),
		cfg.EventBus, newID)

	e := &Engine{
		logger:             logger.With("module", "engine"),
		clock:              clock,
		store:              cfg.Persistence,
		bus:                cfg.EventBus,
		tracer:             tracer,
		rules:              ruleRepo,
		sequences:          sequenceRepo,
		matcher:            rules.NewMatcher(logger),
		table:              table,
		scoring:            cfg.Scoring,
		registry:           registry,
		executor:           executor,
		runner:             runner,
		sweeper:            escalation.NewSweeper(logger, clock, ruleRepo, cfg.Persistence.Executions(), table, cfg.EventBus),
		escalationSchedule: cfg.EscalationSchedule,
	}

	e.poller = scheduler.NewPoller(logger, clock, cfg.Persistence.Timers(), e.resumeTimer, cfg.PollInterval)

	return e, nil
}

// Start launches the timer poller and escalation sweeper and resumes any
// state machine that was mid-flight when the previous process stopped.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.recover(ctx); err != nil {
		return err
	}

	e.poller.Start(ctx)

	if err := e.sweeper.Start(ctx, e.escalationSchedule); err != nil {
		return err
	}

	e.logger.Info("Engine started")

	return nil
}

func (e *Engine) Stop(ctx context.Context) {
	e.poller.Stop()
	e.sweeper.Stop()

	if e.bus != nil {
		if err := e.bus.Close(); err != nil {
			e.logger.Warn("Failed to close event bus", "error", err)
		}
	}

	e.logger.Info("Engine stopped")
}

// ProcessLead looks up the lead's profile and score, matches the active
// rules and starts one independent execution per match. The returned list
// includes failed executions with populated error metadata; only an
// unprocessable lead (no profile) returns an error.
func (e *Engine) ProcessLead(ctx context.Context, leadID string) ([]*models.WorkflowExecution, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.process_lead",
		attribute.String(otelhelper.LeadIDKey, leadID))
	defer span.End()

	profile, err := e.scoring.LeadProfile(ctx, leadID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("no profile for lead %s: %w", leadID, err)
	}

	score, err := e.scoring.LeadScore(ctx, leadID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to score lead %s: %w", leadID, err)
	}

	matched := e.matcher.Match(profile, score, e.rules.FetchAll())

	e.logger.Info("Lead matched",
		"lead_id", leadID,
		"quality", score.Quality,
		"total_score", score.TotalScore,
		"matched_rules", len(matched))

	executions := make([]*models.WorkflowExecution, len(matched))

	// One independent execution per matched rule. They run concurrently and
	// share nothing but the assignment table.
	var wg sync.WaitGroup

	for i, rule := range matched {
		wg.Add(1)

		go func(i int, rule *models.RoutingRule) {
			defer wg.Done()

			execution, err := e.executor.Start(ctx, profile, score, rule)
			if err != nil {
				e.logger.Error("Failed to start execution",
					"lead_id", leadID, "rule_id", rule.ID, "error", err)
			}

			executions[i] = execution
		}(i, rule)
	}

	wg.Wait()

	results := executions[:0]

	for _, execution := range executions {
		if execution != nil {
			results = append(results, execution)
		}
	}

	e.publishProcessed(ctx, profile, score, matched)

	return results, nil
}

func (e *Engine) publishProcessed(ctx context.Context, profile *models.LeadProfile, score *models.LeadScore, matched []*models.RoutingRule) {
	if e.bus == nil {
		return
	}

	ruleIDs := make([]string, 0, len(matched))
	for _, rule := range matched {
		ruleIDs = append(ruleIDs, rule.ID)
	}

	event := events.LeadProcessed{
		BaseEvent: events.BaseEvent{
			ID:        e.bus.GenerateID(),
			Type:      events.LeadProcessedEvent,
			Timestamp: e.clock.Now().UTC(),
			LeadID:    profile.ID,
		},
		Quality:      score.Quality,
		TotalScore:   score.TotalScore,
		MatchedRules: ruleIDs,
	}

	if err := e.bus.Publish(ctx, profile.ID, event); err != nil {
		e.logger.Warn("Failed to publish lead processed event", "error", err)
	}
}

// resumeTimer is the poller callback dispatching due timers to their state
// machine.
func (e *Engine) resumeTimer(ctx context.Context, timer *models.Timer) error {
	switch timer.Kind {
	case models.TimerExecution:
		return e.executor.Resume(ctx, timer.OwnerID)
	case models.TimerEnrollment:
		return e.runner.Advance(ctx, timer.OwnerID)
	default:
		return fmt.Errorf("unknown timer kind %q", timer.Kind)
	}
}

// recover resumes active executions and enrollments that have no pending
// timer, which happens when the process stopped between a timer firing and
// the state machine advancing. Anything with a timer still pending is picked
// up by the poller.
func (e *Engine) recover(ctx context.Context) error {
	active, err := e.store.Executions().Active(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active executions: %w", err)
	}

	for _, execution := range active {
		pending, err := e.store.Timers().ByOwner(ctx, execution.ID)
		if err != nil {
			return err
		}

		if len(pending) > 0 {
			continue
		}

		e.logger.Info("Recovering execution without pending timer", "execution_id", execution.ID)

		if err := e.executor.Resume(ctx, execution.ID); err != nil {
			e.logger.Error("Failed to recover execution", "execution_id", execution.ID, "error", err)
		}
	}

	enrollments, err := e.store.Enrollments().Active(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active enrollments: %w", err)
	}

	for _, enrollment := range enrollments {
		pending, err := e.store.Timers().ByOwner(ctx, enrollment.ID)
		if err != nil {
			return err
		}

		if len(pending) > 0 {
			continue
		}

		e.logger.Info("Recovering enrollment without pending timer", "enrollment_id", enrollment.ID)

		if err := e.runner.Advance(ctx, enrollment.ID); err != nil {
			e.logger.Error("Failed to recover enrollment", "enrollment_id", enrollment.ID, "error", err)
		}
	}

	return nil
}
