// Package store provides an in-memory engine.Store (for testing/dev).
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/suchithrkar/kci-upload-creation-tool/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	teams map[string]map[string]engine.Snapshot
}

func NewMemory() *Memory {
	return &Memory{teams: make(map[string]map[string]engine.Snapshot)}
}

// View executes fn against a point-in-time copy of the team's tables.
func (m *Memory) View(_ context.Context, team string, fn func(engine.ReadScope) error) error {
	m.mu.RLock()
	tables := copyTables(m.teams[team])
	m.mu.RUnlock()

	return fn(&memScope{tables: tables})
}

// Update executes fn against a working copy of the team's tables.
// The copy replaces the live state only if fn succeeds, so a failed
// run leaves the team untouched.
func (m *Memory) Update(_ context.Context, team string, fn func(engine.WriteScope) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	scope := &memScope{tables: copyTables(m.teams[team])}
	if err := fn(scope); err != nil {
		return err
	}

	m.teams[team] = scope.tables
	return nil
}

func copyTables(tables map[string]engine.Snapshot) map[string]engine.Snapshot {
	out := make(map[string]engine.Snapshot, len(tables))
	for name, snap := range tables {
		out[name] = snap
	}
	return out
}

type memScope struct {
	tables map[string]engine.Snapshot
}

func (s *memScope) Get(name string) (engine.Snapshot, bool, error) {
	snap, ok := s.tables[name]
	return snap, ok, nil
}

func (s *memScope) GetAll() ([]engine.Snapshot, error) {
	snaps := make([]engine.Snapshot, 0, len(s.tables))
	for _, snap := range s.tables {
		snaps = append(snaps, snap)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Name < snaps[j].Name })
	return snaps, nil
}

func (s *memScope) Put(snap engine.Snapshot) error {
	s.tables[snap.Name] = snap
	return nil
}

func (s *memScope) Delete(name string) error {
	delete(s.tables, name)
	return nil
}
