package workflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcamillo/leadflow/pkg/models"
)

// advanceDue fires every enrollment timer currently pending, simulating the
// poller after the fake clock moved past the due times.
func (h *harness) advanceDue(t *testing.T, enrollmentID string) {
	t.Helper()

	ctx := context.Background()

	due, err := h.store.Timers().Due(ctx, h.clock.Now().UTC())
	require.NoError(t, err)

	for _, timer := range due {
		require.NoError(t, h.store.Timers().Delete(ctx, timer.ID))

		if timer.Kind == models.TimerEnrollment && timer.OwnerID == enrollmentID {
			require.NoError(t, h.runner.Advance(ctx, enrollmentID))
		}
	}
}

func TestSequenceRunnerWalksEngagedPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	enrollment, err := h.runner.Enroll(ctx, "cold_lead_nurture", "lead-1", 0)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentActive, enrollment.Status)
	assert.Equal(t, "step-1", enrollment.CurrentStepID)

	// Step delays: 1h, 72h, 168h gate, 168h, 168h, 168h. The engaged lead
	// (email_opens > 0) takes the step-4 branch, six steps total.
	for _, hours := range []float64{1, 72, 168, 168, 168, 168} {
		h.clock.Advance(time.Duration(hours * float64(time.Hour)))
		h.advanceDue(t, enrollment.ID)
	}

	final, err := h.store.Enrollments().ByID(ctx, enrollment.ID)
	require.NoError(t, err)

	assert.Equal(t, models.EnrollmentCompleted, final.Status)
	require.NotNil(t, final.CompletedAt)
	require.Len(t, final.History, 6)

	walked := make([]string, 0, len(final.History))
	for _, record := range final.History {
		walked = append(walked, record.StepID)
	}

	assert.Equal(t, []string{"step-1", "step-2", "step-3", "step-4", "step-5", "step-6"}, walked)

	// Emails from steps 1, 2, 4, 6 and the SMS from step 5.
	assert.Len(t, h.providers.emails, 4)
	assert.Len(t, h.providers.smses, 1)
}

func TestSequenceRunnerBranchesToAlternative(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.scoring.profile.Engagement = map[string]any{"email_opens": 0}

	enrollment, err := h.runner.Enroll(ctx, "cold_lead_nurture", "lead-1", 0)
	require.NoError(t, err)

	// Unengaged leads skip the step-4 deep dive, five steps total.
	for _, hours := range []float64{1, 72, 168, 168, 168} {
		h.clock.Advance(time.Duration(hours * float64(time.Hour)))
		h.advanceDue(t, enrollment.ID)
	}

	final, err := h.store.Enrollments().ByID(ctx, enrollment.ID)
	require.NoError(t, err)

	assert.Equal(t, models.EnrollmentCompleted, final.Status)
	require.Len(t, final.History, 5)

	walked := make([]string, 0, len(final.History))
	for _, record := range final.History {
		walked = append(walked, record.StepID)
	}

	assert.Equal(t, []string{"step-1", "step-2", "step-3", "step-5", "step-6"}, walked)
}

func TestSequenceRunnerStartDelay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	enrollment, err := h.runner.Enroll(ctx, "cold_lead_nurture", "lead-1", 30*time.Minute)
	require.NoError(t, err)

	timers, err := h.store.Timers().ByOwner(ctx, enrollment.ID)
	require.NoError(t, err)
	require.Len(t, timers, 1)

	// 30m start delay plus step-1's own 1h delay.
	assert.Equal(t, h.clock.Now().UTC().Add(90*time.Minute), timers[0].FireAt)
	assert.Empty(t, h.providers.emails)
}

func TestSequenceRunnerMissingSequence(t *testing.T) {
	h := newHarness(t)

	_, err := h.runner.Enroll(context.Background(), "does_not_exist", "lead-1", 0)
	require.Error(t, err)
}

func TestSequenceRunnerCancelStopsAdvance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	enrollment, err := h.runner.Enroll(ctx, "cold_lead_nurture", "lead-1", 0)
	require.NoError(t, err)

	h.clock.Advance(time.Hour)
	h.advanceDue(t, enrollment.ID)

	require.NoError(t, h.runner.Cancel(ctx, enrollment.ID))

	timers, err := h.store.Timers().ByOwner(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Empty(t, timers)

	// A stale timer firing after cancellation is a no-op.
	require.NoError(t, h.runner.Advance(ctx, enrollment.ID))

	final, err := h.store.Enrollments().ByID(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentCancelled, final.Status)
	require.Len(t, final.History, 1)
	assert.Equal(t, "step-1", final.History[0].StepID)
}

func TestSequenceRunnerFailedStepDoesNotStopWalk(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// The check-in SMS at step-5 fails without a phone, but the breakup email
	// at step-6 still goes out.
	h.scoring.profile.Phone = ""

	enrollment, err := h.runner.Enroll(ctx, "cold_lead_nurture", "lead-1", 0)
	require.NoError(t, err)

	for _, hours := range []float64{1, 72, 168, 168, 168, 168} {
		h.clock.Advance(time.Duration(hours * float64(time.Hour)))
		h.advanceDue(t, enrollment.ID)
	}

	final, err := h.store.Enrollments().ByID(ctx, enrollment.ID)
	require.NoError(t, err)

	assert.Equal(t, models.EnrollmentCompleted, final.Status)
	require.Len(t, final.History, 6)

	assert.Equal(t, "failed", final.History[4].Status)
	assert.Contains(t, final.History[4].Error, "no phone number")
	assert.Equal(t, "completed", final.History[5].Status)
	assert.Len(t, h.providers.emails, 4)
}

func TestSequenceRunnerTaskStepResolvesOwner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.table.Assign(ctx, "lead-1", "warm-owner"))

	enrollment, err := h.runner.Enroll(ctx, "warm_lead_checkin", "lead-1", 0)
	require.NoError(t, err)

	for _, hours := range []float64{24, 72} {
		h.clock.Advance(time.Duration(hours * float64(time.Hour)))
		h.advanceDue(t, enrollment.ID)
	}

	final, err := h.store.Enrollments().ByID(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentCompleted, final.Status)

	require.Len(t, h.providers.tasks, 1)
	assert.Equal(t, "warm-owner", h.providers.tasks[0].AssignTo)
}

func TestSequenceRunnerIndependentEnrollments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.runner.Enroll(ctx, "cold_lead_nurture", "lead-1", 0)
	require.NoError(t, err)

	second, err := h.runner.Enroll(ctx, "warm_lead_checkin", "lead-1", 0)
	require.NoError(t, err)

	require.NotEqual(t, first.ID, second.ID)

	require.NoError(t, h.runner.Cancel(ctx, second.ID))

	stillActive, err := h.store.Enrollments().ByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentActive, stillActive.Status)
}
