package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gcamillo/leadflow/pkg/actions"
	"github.com/gcamillo/leadflow/pkg/conditions"
	"github.com/gcamillo/leadflow/pkg/eventbus"
	"github.com/gcamillo/leadflow/pkg/events"
	"github.com/gcamillo/leadflow/pkg/models"
	"github.com/gcamillo/leadflow/pkg/persistence"
	"github.com/gcamillo/leadflow/pkg/sequences"
)

// SequenceRunner walks nurture enrollments through their sequence graph, one
// durable timer per step delay. Each enrollment is independent; two sequences
// running for the same lead have no awareness of each other.
type SequenceRunner struct {
	logger      *slog.Logger
	clock       clockwork.Clock
	sequences   *sequences.Repository
	scoring     Scoring
	enrollments persistence.EnrollmentRepository
	timers      persistence.TimerRepository
	bus         eventbus.EventBus
	newID       func() string

	registry *actions.Registry
}

func NewSequenceRunner(
	logger *slog.Logger,
	clock clockwork.Clock,
	sequenceRepo *sequences.Repository,
	scoring Scoring,
	enrollments persistence.EnrollmentRepository,
	timers persistence.TimerRepository,
	bus eventbus.EventBus,
	newID func() string,
) *SequenceRunner {
	return &SequenceRunner{
		logger:      logger.With("module", "sequences"),
		clock:       clock,
		sequences:   sequenceRepo,
		scoring:     scoring,
		enrollments: enrollments,
		timers:      timers,
		bus:         bus,
		newID:       newID,
	}
}

// SetRegistry wires the action registry used to execute content steps. Set
// once during startup; the registry itself depends on this runner through the
// add_to_sequence handler.
func (r *SequenceRunner) SetRegistry(registry *actions.Registry) {
	r.registry = registry
}

// Enroll starts a new enrollment at the sequence's first step. The first
// wake-up fires after startDelay plus the first step's own delay.
func (r *SequenceRunner) Enroll(ctx context.Context, sequenceID, leadID string, startDelay time.Duration) (*models.Enrollment, error) {
	sequence, err := r.sequences.FetchByID(sequenceID)
	if err != nil {
		return nil, err
	}

	if !sequence.IsActive {
		return nil, fmt.Errorf("nurture sequence %s is not active", sequenceID)
	}

	first := sequences.FirstStep(sequence)
	if first == nil {
		return nil, fmt.Errorf("nurture sequence %s has no steps", sequenceID)
	}

	now := r.clock.Now().UTC()
	enrollment := &models.Enrollment{
		ID:            r.newID(),
		SequenceID:    sequenceID,
		LeadID:        leadID,
		CurrentStepID: first.ID,
		Status:        models.EnrollmentActive,
		StartedAt:     now,
		UpdatedAt:     now,
	}

	if err := r.enrollments.Save(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	r.publish(ctx, leadID, events.EnrollmentStarted{
		BaseEvent:    r.baseEvent(events.EnrollmentStartedEvent, leadID),
		EnrollmentID: enrollment.ID,
		SequenceID:   sequenceID,
	})

	r.logger.Info("Lead enrolled",
		"enrollment_id", enrollment.ID,
		"sequence_id", sequenceID,
		"lead_id", leadID)

	delay := startDelay + stepDelay(first)
	if delay > 0 {
		if err := r.schedule(ctx, enrollment.ID, delay); err != nil {
			return nil, err
		}

		return enrollment, nil
	}

	if err := r.Advance(ctx, enrollment.ID); err != nil {
		return enrollment, err
	}

	return r.enrollments.ByID(ctx, enrollment.ID)
}

// Advance executes the enrollment's current step and moves the pointer. Steps
// whose successor has no delay run back to back; a delayed successor parks
// the enrollment on a timer.
func (r *SequenceRunner) Advance(ctx context.Context, enrollmentID string) error {
	enrollment, err := r.enrollments.ByID(ctx, enrollmentID)
	if err != nil {
		return fmt.Errorf("failed to load enrollment %s: %w", enrollmentID, err)
	}

	if enrollment.IsTerminal() {
		return nil
	}

	sequence, err := r.sequences.FetchByID(enrollment.SequenceID)
	if err != nil {
		return fmt.Errorf("sequence %s no longer exists: %w", enrollment.SequenceID, err)
	}

	profile, err := r.scoring.LeadProfile(ctx, enrollment.LeadID)
	if err != nil {
		return fmt.Errorf("failed to load lead profile: %w", err)
	}

	score, err := r.scoring.LeadScore(ctx, enrollment.LeadID)
	if err != nil {
		return fmt.Errorf("failed to load lead score: %w", err)
	}

	for {
		if cancelled, err := r.cancelledExternally(ctx, enrollment); cancelled || err != nil {
			return err
		}

		step, ok := sequences.StepByID(sequence, enrollment.CurrentStepID)
		if !ok {
			return fmt.Errorf("step %s not found in sequence %s", enrollment.CurrentStepID, sequence.ID)
		}

		next := r.executeStep(ctx, enrollment, sequence, step, profile, score)

		r.publish(ctx, enrollment.LeadID, events.EnrollmentAdvanced{
			BaseEvent:    r.baseEvent(events.EnrollmentAdvancedEvent, enrollment.LeadID),
			EnrollmentID: enrollment.ID,
			SequenceID:   sequence.ID,
			StepID:       step.ID,
			StepType:     step.Type,
		})

		if next == nil {
			return r.complete(ctx, enrollment)
		}

		nextStep, ok := sequences.StepByID(sequence, *next)
		if !ok {
			return fmt.Errorf("step %s not found in sequence %s", *next, sequence.ID)
		}

		enrollment.CurrentStepID = nextStep.ID
		enrollment.UpdatedAt = r.clock.Now().UTC()

		if err := r.enrollments.Save(ctx, enrollment); err != nil {
			return fmt.Errorf("failed to persist enrollment progress: %w", err)
		}

		if delay := stepDelay(nextStep); delay > 0 {
			return r.schedule(ctx, enrollment.ID, delay)
		}
	}
}

// Cancel marks an enrollment cancelled and drops its pending timer. History
// up to the cancellation point is preserved.
func (r *SequenceRunner) Cancel(ctx context.Context, enrollmentID string) error {
	enrollment, err := r.enrollments.ByID(ctx, enrollmentID)
	if err != nil {
		return err
	}

	if enrollment.IsTerminal() {
		return fmt.Errorf("enrollment %s is already %s", enrollmentID, enrollment.Status)
	}

	now := r.clock.Now().UTC()
	enrollment.Status = models.EnrollmentCancelled
	enrollment.UpdatedAt = now
	enrollment.CompletedAt = &now

	if err := r.enrollments.Save(ctx, enrollment); err != nil {
		return fmt.Errorf("failed to save cancelled enrollment: %w", err)
	}

	r.dropTimers(ctx, enrollmentID)

	r.logger.Info("Enrollment cancelled", "enrollment_id", enrollmentID)

	return nil
}

// executeStep performs the step's side effect and returns the successor step
// ID, nil when the enrollment is done. Delivery failures are recorded in the
// history and do not stop the walk.
func (r *SequenceRunner) executeStep(ctx context.Context, enrollment *models.Enrollment, sequence *models.NurtureSequence, step *models.NurtureStep, profile *models.LeadProfile, score *models.LeadScore) *string {
	now := r.clock.Now().UTC()
	record := models.StepRecord{
		StepID:     step.ID,
		Type:       step.Type,
		Status:     "completed",
		ExecutedAt: &now,
	}

	next := step.NextStepID

	switch step.Type {
	case models.StepWait:
		// The delay already happened before this step was reached.

	case models.StepCondition:
		if !conditions.EvaluateAll(step.Conditions, profile, score) {
			next = step.AlternativeStepID
		}

	default:
		if err := r.dispatchContent(ctx, enrollment, sequence, step, profile, score); err != nil {
			record.Status = "failed"
			record.Error = err.Error()

			r.logger.Warn("Sequence step failed",
				"enrollment_id", enrollment.ID,
				"step_id", step.ID,
				"error", err)
		}
	}

	enrollment.History = append(enrollment.History, record)

	return next
}

// dispatchContent maps a content-bearing step onto the equivalent routing
// action and runs it through the registry.
func (r *SequenceRunner) dispatchContent(ctx context.Context, enrollment *models.Enrollment, sequence *models.NurtureSequence, step *models.NurtureStep, profile *models.LeadProfile, score *models.LeadScore) error {
	if r.registry == nil {
		return fmt.Errorf("no action registry wired")
	}

	action, err := stepAction(step)
	if err != nil {
		return err
	}

	execCtx := actions.ExecutionContext{
		ExecutionID: enrollment.ID,
		RuleID:      sequence.ID,
		RuleName:    sequence.Name,
		Profile:     profile,
		Score:       score,
	}

	_, err = r.registry.Dispatch(ctx, execCtx, action)

	return err
}

// stepAction translates step content into the action the registry knows how
// to execute. Tasks and calls are owned by whoever the lead is currently
// assigned to.
func stepAction(step *models.NurtureStep) (*models.Action, error) {
	content := step.Content
	if content == nil {
		content = &models.StepContent{}
	}

	switch step.Type {
	case models.StepEmail:
		return &models.Action{
			Type:  models.ActionSendEmail,
			Email: &models.EmailConfig{Template: content.Template, Subject: content.Subject},
		}, nil
	case models.StepSMS:
		return &models.Action{
			Type: models.ActionSendSMS,
			SMS:  &models.SMSConfig{Message: content.Message},
		}, nil
	case models.StepCall:
		return &models.Action{
			Type: models.ActionScheduleCall,
			Call: &models.CallConfig{AssignTo: models.AssignedUserRef, Notes: content.Notes},
		}, nil
	case models.StepTask:
		return &models.Action{
			Type: models.ActionCreateTask,
			Task: &models.TaskConfig{Title: content.Title, Description: content.Notes, AssignTo: models.AssignedUserRef},
		}, nil
	default:
		return nil, fmt.Errorf("step type %q has no action equivalent", step.Type)
	}
}

func (r *SequenceRunner) complete(ctx context.Context, enrollment *models.Enrollment) error {
	now := r.clock.Now().UTC()
	enrollment.Status = models.EnrollmentCompleted
	enrollment.UpdatedAt = now
	enrollment.CompletedAt = &now

	if err := r.enrollments.Save(ctx, enrollment); err != nil {
		return fmt.Errorf("failed to persist completed enrollment: %w", err)
	}

	r.publish(ctx, enrollment.LeadID, events.EnrollmentCompleted{
		BaseEvent:    r.baseEvent(events.EnrollmentCompletedEvent, enrollment.LeadID),
		EnrollmentID: enrollment.ID,
		SequenceID:   enrollment.SequenceID,
	})

	r.logger.Info("Enrollment completed",
		"enrollment_id", enrollment.ID,
		"sequence_id", enrollment.SequenceID,
		"steps", len(enrollment.History))

	return nil
}

func (r *SequenceRunner) schedule(ctx context.Context, enrollmentID string, delay time.Duration) error {
	now := r.clock.Now().UTC()
	timer := &models.Timer{
		ID:        r.newID(),
		Kind:      models.TimerEnrollment,
		OwnerID:   enrollmentID,
		FireAt:    now.Add(delay),
		CreatedAt: now,
	}

	if err := r.timers.Save(ctx, timer); err != nil {
		return fmt.Errorf("failed to schedule enrollment timer: %w", err)
	}

	r.logger.Info("Enrollment suspended",
		"enrollment_id", enrollmentID,
		"fire_at", timer.FireAt)

	return nil
}

// cancelledExternally re-reads the persisted status so an external cancel is
// honored at the next step boundary.
func (r *SequenceRunner) cancelledExternally(ctx context.Context, enrollment *models.Enrollment) (bool, error) {
	current, err := r.enrollments.ByID(ctx, enrollment.ID)
	if err != nil {
		return false, nil
	}

	if current.Status == models.EnrollmentCancelled {
		r.logger.Info("Enrollment cancelled externally, stopping", "enrollment_id", enrollment.ID)

		return true, nil
	}

	return false, nil
}

func (r *SequenceRunner) dropTimers(ctx context.Context, ownerID string) {
	timers, err := r.timers.ByOwner(ctx, ownerID)
	if err != nil {
		r.logger.Warn("Failed to list timers for cancelled owner", "owner_id", ownerID, "error", err)

		return
	}

	for _, timer := range timers {
		if err := r.timers.Delete(ctx, timer.ID); err != nil && !persistence.IsTimerNotFound(err) {
			r.logger.Warn("Failed to delete timer", "timer_id", timer.ID, "error", err)
		}
	}
}

func (r *SequenceRunner) baseEvent(eventType events.EventType, leadID string) events.BaseEvent {
	var id string
	if r.bus != nil {
		id = r.bus.GenerateID()
	}

	return events.BaseEvent{
		ID:        id,
		Type:      eventType,
		Timestamp: r.clock.Now().UTC(),
		LeadID:    leadID,
	}
}

func (r *SequenceRunner) publish(ctx context.Context, key string, event eventbus.Event) {
	if r.bus == nil {
		return
	}

	if err := r.bus.Publish(ctx, key, event); err != nil {
		r.logger.Warn("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func stepDelay(step *models.NurtureStep) time.Duration {
	return time.Duration(step.DelayHours * float64(time.Hour))
}
