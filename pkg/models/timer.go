package models

import "time"

// TimerKind identifies which state machine a timer resumes.
type TimerKind string

const (
	TimerExecution  TimerKind = "execution"
	TimerEnrollment TimerKind = "enrollment"
)

// Timer is a persisted due-time entry. Delays are implemented as timers plus a
// centralized poller instead of in-process sleeps, so in-flight delays survive
// a restart. OwnerID is the execution or enrollment the timer resumes.
type Timer struct {
	ID        string    `json:"id"`
	Kind      TimerKind `json:"kind"`
	OwnerID   string    `json:"owner_id"`
	FireAt    time.Time `json:"fire_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsDue checks if this timer is due at the given time.
func (t *Timer) IsDue(now time.Time) bool {
	return !t.FireAt.After(now)
}
