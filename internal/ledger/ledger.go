// Package ledger tracks which lead ids have already produced a CRM record.
//
// A ledger is loaded fully at pipeline start and appended to synchronously
// as each lead is committed, so a crash mid-run leaves the persisted state
// consistent with exactly the leads committed before the crash. Ids are
// never removed.
package ledger

import (
	"context"
	"sync"
)

// Ledger is the dedup contract used by the pipeline.
type Ledger interface {
	// Load populates the in-memory set from persistent storage.
	Load(ctx context.Context) error

	// IsProcessed reports whether the lead id has already produced a CRM record.
	IsProcessed(leadID string) bool

	// MarkProcessed appends the lead id to persistent storage, then to the
	// in-memory set. It must be called only after the CRM record creation
	// succeeded. On a persist failure the in-memory set is still updated so
	// the current run does not duplicate; the error is returned for the
	// caller to report.
	MarkProcessed(ctx context.Context, leadID string) error

	// Count returns the number of ids currently known.
	Count() int

	Close() error
}

// memSet is the in-memory membership set shared by all backends. The mutex
// keeps the set safe if the orchestrator is ever parallelized; appends still
// rely on the single-writer commit path for ordering.
type memSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func newMemSet() *memSet {
	return &memSet{ids: make(map[string]struct{})}
}

func (m *memSet) has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.ids[id]
	return ok
}

func (m *memSet) add(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[id] = struct{}{}
}

func (m *memSet) reset(ids map[string]struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = ids
}

func (m *memSet) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}
