package scheduler_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcamillo/leadflow/pkg/models"
	"github.com/gcamillo/leadflow/pkg/persistence"
	"github.com/gcamillo/leadflow/pkg/persistence/file"
	"github.com/gcamillo/leadflow/pkg/scheduler"
)

func newTimerRepo(t *testing.T) persistence.TimerRepository {
	t.Helper()

	p, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	return p.Timers()
}

func TestProcessDueFiresOnlyDueTimers(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	timers := newTimerRepo(t)

	now := clock.Now().UTC()

	require.NoError(t, timers.Save(ctx, &models.Timer{
		ID:      "timer-due",
		Kind:    models.TimerExecution,
		OwnerID: "exec-1",
		FireAt:  now.Add(-time.Minute),
	}))
	require.NoError(t, timers.Save(ctx, &models.Timer{
		ID:      "timer-future",
		Kind:    models.TimerExecution,
		OwnerID: "exec-2",
		FireAt:  now.Add(time.Hour),
	}))

	var fired []string

	resume := func(_ context.Context, timer *models.Timer) error {
		fired = append(fired, timer.ID)

		return nil
	}

	poller := scheduler.NewPoller(slog.Default(), clock, timers, resume, time.Second)
	poller.ProcessDue(ctx)

	assert.Equal(t, []string{"timer-due"}, fired)

	remaining, err := timers.Due(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "timer-future", remaining[0].ID)
}

func TestProcessDueDeletesTimerBeforeResume(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	timers := newTimerRepo(t)

	require.NoError(t, timers.Save(ctx, &models.Timer{
		ID:      "timer-1",
		Kind:    models.TimerEnrollment,
		OwnerID: "enrollment-1",
		FireAt:  clock.Now().UTC().Add(-time.Second),
	}))

	resume := func(ctx context.Context, timer *models.Timer) error {
		due, err := timers.Due(ctx, clock.Now().UTC())
		require.NoError(t, err)
		assert.Empty(t, due, "timer must be gone before the resume callback runs")

		return nil
	}

	poller := scheduler.NewPoller(slog.Default(), clock, timers, resume, time.Second)
	poller.ProcessDue(ctx)
}

func TestPollerFiresOnTick(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	timers := newTimerRepo(t)

	require.NoError(t, timers.Save(ctx, &models.Timer{
		ID:      "timer-1",
		Kind:    models.TimerExecution,
		OwnerID: "exec-1",
		FireAt:  clock.Now().UTC(),
	}))

	fired := make(chan string, 1)

	resume := func(_ context.Context, timer *models.Timer) error {
		fired <- timer.ID

		return nil
	}

	poller := scheduler.NewPoller(slog.Default(), clock, timers, resume, time.Second)
	poller.Start(ctx)
	defer poller.Stop()

	clock.BlockUntil(1)
	clock.Advance(time.Second)

	select {
	case id := <-fired:
		assert.Equal(t, "timer-1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire after tick")
	}
}
