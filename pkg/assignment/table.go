// Package assignment tracks the current human owner of each lead. The table
// is a shared last-write-wins register: concurrent rule executions may race
// on it and the most recent write observed wins. Readers must tolerate
// staleness.
package assignment

import (
	"context"
	"sync"
)

type Table interface {
	// Assign records userID as the owner of leadID, replacing any previous
	// owner.
	Assign(ctx context.Context, leadID, userID string) error
	// Lookup returns the current owner of leadID. The bool reports whether an
	// assignment exists.
	Lookup(ctx context.Context, leadID string) (string, bool, error)
}

// MemoryTable is the in-process implementation used by tests and
// single-instance deployments.
type MemoryTable struct {
	mu     sync.RWMutex
	owners map[string]string
}

func NewMemoryTable() *MemoryTable {
	return &MemoryTable{
		owners: make(map[string]string),
	}
}

func (t *MemoryTable) Assign(_ context.Context, leadID, userID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.owners[leadID] = userID

	return nil
}

func (t *MemoryTable) Lookup(_ context.Context, leadID string) (string, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	userID, ok := t.owners[leadID]

	return userID, ok, nil
}
