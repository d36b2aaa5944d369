// Package scheduler resumes suspended executions and enrollments when their
// persisted timers come due. Delays are never implemented as in-process
// sleeps: a timer row plus this poller is what survives a restart.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gcamillo/leadflow/pkg/models"
	"github.com/gcamillo/leadflow/pkg/persistence"
)

const DefaultInterval = 15 * time.Second

// ResumeFunc is invoked for every due timer. The callback owns advancing the
// suspended state machine; the poller only fires and forgets.
type ResumeFunc func(ctx context.Context, timer *models.Timer) error

type Poller struct {
	logger   *slog.Logger
	clock    clockwork.Clock
	timers   persistence.TimerRepository
	resume   ResumeFunc
	interval time.Duration

	mu      sync.Mutex
	done    chan struct{}
	started bool
}

func NewPoller(logger *slog.Logger, clock clockwork.Clock, timers persistence.TimerRepository, resume ResumeFunc, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Poller{
		logger:   logger.With("module", "scheduler"),
		clock:    clock,
		timers:   timers,
		resume:   resume,
		interval: interval,
	}
}

// Start begins the centralized timer poller.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}

	p.done = make(chan struct{})
	p.started = true

	go p.run(ctx)

	p.logger.Info("Timer poller started", "interval", p.interval)
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	close(p.done)
	p.started = false

	p.logger.Info("Timer poller stopped")
}

func (p *Poller) run(ctx context.Context) {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.ProcessDue(ctx)
		}
	}
}

// ProcessDue fires every timer due at the current clock reading. It is
// exported so hosts and tests can drive the poller manually.
func (p *Poller) ProcessDue(ctx context.Context) {
	now := p.clock.Now().UTC()

	due, err := p.timers.Due(ctx, now)
	if err != nil {
		p.logger.Error("Failed to query due timers", "error", err)

		return
	}

	if len(due) > 0 {
		p.logger.Info("Processing due timers", "count", len(due))
	}

	for _, timer := range due {
		// Delete before resuming so a slow resume cannot double-fire on the
		// next tick. The state machines persist their own cursors, so a crash
		// between delete and resume is recovered by the restart sweep.
		if err := p.timers.Delete(ctx, timer.ID); err != nil && !persistence.IsTimerNotFound(err) {
			p.logger.Error("Failed to delete due timer", "timer_id", timer.ID, "error", err)

			continue
		}

		if err := p.resume(ctx, timer); err != nil {
			p.logger.Error("Failed to resume from timer",
				"timer_id", timer.ID,
				"kind", timer.Kind,
				"owner_id", timer.OwnerID,
				"error", err)
		}
	}
}
