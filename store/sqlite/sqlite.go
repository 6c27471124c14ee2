/*
Package sqlite provides the SQLite-backed implementation of the
snapshot store.

PURPOSE:
  Persists one row per (team, table name): the table's full JSON row
  set plus its last-updated timestamp. The engine rewrites whole
  snapshots, so the store needs no per-row schema - the same pattern
  would apply unchanged to PostgreSQL with a jsonb column.

KEY TABLE:
  snapshots: (team, name) -> data JSON, updated_at

CONCURRENCY:
  Uses sync.RWMutex to serialize writers. Update scopes run inside one
  SQL transaction, so a reconciliation run's writes commit or roll back
  together.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency: readers don't block the single writer, and crash
  recovery is cleaner.

USAGE:
  store, err := sqlite.New("./data/kci.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  reconciler := engine.NewReconciler(store)

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/suchithrkar/kci-upload-creation-tool/engine"
)

// Store implements engine.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- One row per (team, table): the table's full JSON-encoded row set.
	CREATE TABLE IF NOT EXISTS snapshots (
		team       TEXT NOT NULL,
		name       TEXT NOT NULL,
		data       TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (team, name)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_team ON snapshots(team);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SNAPSHOT STORE (engine.Store interface)
// =============================================================================

// View executes fn within a read-only scope for the team.
func (s *Store) View(ctx context.Context, team string, fn func(engine.ReadScope) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&scope{ctx: ctx, q: s.db, team: team})
}

// Update executes fn within one SQL transaction for the team. If fn
// returns an error the transaction is rolled back.
func (s *Store) Update(ctx context.Context, team string, fn func(engine.WriteScope) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&scope{ctx: ctx, q: tx, team: team}); err != nil {
		return err
	}

	return tx.Commit()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scope struct {
	ctx  context.Context
	q    querier
	team string
}

func (sc *scope) Get(name string) (engine.Snapshot, bool, error) {
	var (
		snap      engine.Snapshot
		data      string
		updatedAt string
	)

	err := sc.q.QueryRowContext(sc.ctx,
		"SELECT name, data, updated_at FROM snapshots WHERE team = ? AND name = ?",
		sc.team, name,
	).Scan(&snap.Name, &data, &updatedAt)

	if err == sql.ErrNoRows {
		return engine.Snapshot{}, false, nil
	}
	if err != nil {
		return engine.Snapshot{}, false, fmt.Errorf("failed to query snapshot: %w", err)
	}

	snap.Data = []byte(data)
	snap.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return snap, true, nil
}

func (sc *scope) GetAll() ([]engine.Snapshot, error) {
	rows, err := sc.q.QueryContext(sc.ctx,
		"SELECT name, data, updated_at FROM snapshots WHERE team = ? ORDER BY name",
		sc.team,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []engine.Snapshot
	for rows.Next() {
		var (
			snap      engine.Snapshot
			data      string
			updatedAt string
		)
		if err := rows.Scan(&snap.Name, &data, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.Data = []byte(data)
		snap.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func (sc *scope) Put(snap engine.Snapshot) error {
	query := `
		INSERT INTO snapshots (team, name, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(team, name) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`

	_, err := sc.q.ExecContext(sc.ctx, query,
		sc.team, snap.Name, string(snap.Data),
		snap.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to put snapshot: %w", err)
	}
	return nil
}

func (sc *scope) Delete(name string) error {
	_, err := sc.q.ExecContext(sc.ctx,
		"DELETE FROM snapshots WHERE team = ? AND name = ?", sc.team, name)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
