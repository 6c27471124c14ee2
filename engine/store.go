/*
store.go - Durable snapshot store contract

PURPOSE:
  Defines the interface between the engine and persistence. Each table
  is stored as a single snapshot row keyed by (team, table name): the
  full JSON-encoded row set plus a last-updated timestamp. Any
  transactional key-value store satisfies the contract.

SCOPES:
  View():   read-only scope; Get/GetAll only.
  Update(): read-write scope; adds Put/Delete. All writes inside one
            Update commit atomically, so a reconciliation run can
            rewrite Repair Cases, append Closed Case records and prune
            retention in a single consistent step.

TEAM ISOLATION:
  The team is part of every scope. Implementations must guarantee that
  no snapshot read or written inside a scope belongs to another team.

IMPLEMENTATIONS:
  - store/sqlite:      Production SQLite (one row per team+table, WAL)
  - engine/store:      In-memory for testing

SEE ALSO:
  - reconcile.go: The only writer of derived tables
  - store/sqlite/sqlite.go, engine/store/memory.go
*/
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// SNAPSHOT - One table's full row set
// =============================================================================

// Snapshot is the unit of persistence: a table's complete contents.
// Data holds the JSON encoding of the table's typed row slice (or
// config value); the engine never exposes partially-written tables.
type Snapshot struct {
	Name      string
	Data      json.RawMessage
	UpdatedAt time.Time
}

// =============================================================================
// STORE - Transactional snapshot persistence, scoped by team
// =============================================================================

// ReadScope is the read-only view of one team's tables.
type ReadScope interface {
	// Get returns the named snapshot. ok is false if it doesn't exist.
	Get(name string) (snap Snapshot, ok bool, err error)

	// GetAll returns every snapshot the team has.
	GetAll() ([]Snapshot, error)
}

// WriteScope extends ReadScope with mutations. All mutations within
// one Update() commit or roll back together.
type WriteScope interface {
	ReadScope

	// Put creates or replaces a snapshot.
	Put(snap Snapshot) error

	// Delete removes a snapshot. Deleting a missing snapshot is a no-op.
	Delete(name string) error
}

// Store is the durable snapshot store. Implementations serialize
// writers per team; the engine additionally serializes whole runs.
type Store interface {
	// View executes fn within a read-only scope for the team.
	View(ctx context.Context, team string, fn func(ReadScope) error) error

	// Update executes fn within a read-write scope for the team.
	// If fn returns an error the scope's writes are rolled back.
	Update(ctx context.Context, team string, fn func(WriteScope) error) error
}

// =============================================================================
// TYPED ACCESS HELPERS
// =============================================================================

// LoadTable decodes the named snapshot into a typed row slice. A
// missing snapshot yields an empty (nil) slice: absent source tables
// are treated as "no rows", never as an error.
func LoadTable[T any](scope ReadScope, name string) ([]T, error) {
	snap, ok, err := scope.Get(name)
	if err != nil {
		return nil, err
	}
	if !ok || len(snap.Data) == 0 {
		return nil, nil
	}
	var rows []T
	if err := json.Unmarshal(snap.Data, &rows); err != nil {
		return nil, fmt.Errorf("decode table %q: %w", name, err)
	}
	return rows, nil
}

// SaveTable encodes a typed row slice and replaces the named snapshot.
func SaveTable[T any](scope WriteScope, name string, rows []T, now time.Time) error {
	if rows == nil {
		rows = []T{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode table %q: %w", name, err)
	}
	return scope.Put(Snapshot{Name: name, Data: data, UpdatedAt: now})
}

// LoadConfig decodes a single configuration value (TL map, market map,
// SBD config). ok is false when the config has never been saved.
func LoadConfig[T any](scope ReadScope, name string, out *T) (bool, error) {
	snap, ok, err := scope.Get(name)
	if err != nil || !ok || len(snap.Data) == 0 {
		return false, err
	}
	if err := json.Unmarshal(snap.Data, out); err != nil {
		return false, fmt.Errorf("decode config %q: %w", name, err)
	}
	return true, nil
}

// SaveConfig encodes and replaces a configuration value.
func SaveConfig[T any](scope WriteScope, name string, value T, now time.Time) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode config %q: %w", name, err)
	}
	return scope.Put(Snapshot{Name: name, Data: data, UpdatedAt: now})
}
