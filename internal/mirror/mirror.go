// Package mirror holds the client-side read mirror of a project's workflow
// state. The mirror is a display cache, never an authority: it cannot predict
// or apply phase transitions locally, and callers refresh it after every
// mutating call to pick up whatever the engine decided.
package mirror

import (
	"context"
	"sync"
	"time"

	"github.com/calliope-studio/portal/internal/domain"
)

// RequirementStatus is one checklist entry in a snapshot.
type RequirementStatus struct {
	ID        string
	Text      string
	Mandatory bool
	Kind      domain.RequirementKind
	Completed bool
}

// Snapshot is one project's workflow state as last observed at the source.
type Snapshot struct {
	ProjectID       string
	PhaseKey        domain.PhaseKey
	PhaseName       string
	ProgressPercent int
	Requirements    []RequirementStatus
	FetchedAt       time.Time
}

// Fetcher loads the authoritative state for a project. In production this is
// backed by the portal's GET endpoints (or the services directly, in-process).
type Fetcher interface {
	FetchSnapshot(ctx context.Context, projectID string) (*Snapshot, error)
}

type entry struct {
	snapshot *Snapshot
	version  uint64
}

// Mirror caches per-project snapshots with a monotonically increasing
// version, so consumers can detect staleness across invalidations. Safe for
// concurrent use.
type Mirror struct {
	fetcher Fetcher

	mu       sync.RWMutex
	entries  map[string]entry
	versions map[string]uint64 // survives Invalidate: versions never restart
}

func New(fetcher Fetcher) *Mirror {
	return &Mirror{
		fetcher:  fetcher,
		entries:  make(map[string]entry),
		versions: make(map[string]uint64),
	}
}

// Refresh replaces the project's cached snapshot with a fresh fetch and bumps
// its version. A fetch failure leaves the previous snapshot untouched.
func (m *Mirror) Refresh(ctx context.Context, projectID string) (*Snapshot, uint64, error) {
	snap, err := m.fetcher.FetchSnapshot(ctx, projectID)
	if err != nil {
		return nil, 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[projectID]++
	v := m.versions[projectID]
	m.entries[projectID] = entry{snapshot: snap, version: v}
	return snap, v, nil
}

// Get returns the cached snapshot and its version without touching the
// source. ok is false when nothing is cached.
func (m *Mirror) Get(projectID string) (*Snapshot, uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[projectID]
	if !ok {
		return nil, 0, false
	}
	return e.snapshot, e.version, true
}

// Invalidate drops the cached snapshot. The version counter is kept so the
// next Refresh still yields a strictly larger version.
func (m *Mirror) Invalidate(projectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, projectID)
}
