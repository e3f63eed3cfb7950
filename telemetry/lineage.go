package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/gridlife/traits"
)

// BirthRecord is one entry of the births ledger.
type BirthRecord struct {
	Tick       int
	ChildID    uint32
	MotherID   uint32
	FatherID   uint32
	Sex        string
	Generation int
	Traits     traits.Set
}

// LineageStore records every birth of a run. Records are append-only.
type LineageStore interface {
	Init(ctx context.Context) error
	RecordBirths(ctx context.Context, runID string, births []BirthRecord) error
	Births(ctx context.Context, runID string) ([]BirthRecord, error)
	Close() error
}

// NewRunID returns a fresh identifier for a run.
func NewRunID() string {
	return uuid.NewString()
}

// NewLineageStore returns an in-memory store when path is empty and a
// SQLite store at path otherwise. The store is initialized.
func NewLineageStore(ctx context.Context, path string) (LineageStore, error) {
	var store LineageStore
	if path == "" {
		store = NewMemoryLineage()
	} else {
		store = NewSQLiteLineage(path)
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("initializing lineage store: %w", err)
	}
	return store, nil
}

// MemoryLineage keeps the ledger in process memory.
type MemoryLineage struct {
	mu     sync.RWMutex
	births map[string][]BirthRecord
}

func NewMemoryLineage() *MemoryLineage {
	return &MemoryLineage{}
}

func (s *MemoryLineage) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.births == nil {
		s.births = make(map[string][]BirthRecord)
	}
	return nil
}

func (s *MemoryLineage) RecordBirths(_ context.Context, runID string, births []BirthRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.births == nil {
		return errors.New("store is not initialized")
	}
	s.births[runID] = append(s.births[runID], births...)
	return nil
}

func (s *MemoryLineage) Births(_ context.Context, runID string) ([]BirthRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]BirthRecord, len(s.births[runID]))
	copy(out, s.births[runID])
	return out, nil
}

func (s *MemoryLineage) Close() error { return nil }

// SQLiteLineage keeps the ledger in a SQLite database.
type SQLiteLineage struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteLineage(path string) *SQLiteLineage {
	return &SQLiteLineage{path: path}
}

func (s *SQLiteLineage) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createLineageTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteLineage) RecordBirths(ctx context.Context, runID string, births []BirthRecord) error {
	if len(births) == 0 {
		return nil
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO births (run_id, tick, child_id, mother_id, father_id, sex, generation, traits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, child_id) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range births {
		payload, err := json.Marshal(b.Traits.Map())
		if err != nil {
			return fmt.Errorf("encode traits of %d: %w", b.ChildID, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, b.Tick, b.ChildID, b.MotherID, b.FatherID, b.Sex, b.Generation, payload); err != nil {
			return fmt.Errorf("insert birth %d: %w", b.ChildID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteLineage) Births(ctx context.Context, runID string) ([]BirthRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT tick, child_id, mother_id, father_id, sex, generation, traits
		FROM births WHERE run_id = ? ORDER BY child_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BirthRecord
	for rows.Next() {
		var b BirthRecord
		var payload []byte
		if err := rows.Scan(&b.Tick, &b.ChildID, &b.MotherID, &b.FatherID, &b.Sex, &b.Generation, &payload); err != nil {
			return nil, err
		}
		var named map[string]float64
		if err := json.Unmarshal(payload, &named); err != nil {
			return nil, fmt.Errorf("decode traits of %d: %w", b.ChildID, err)
		}
		for _, t := range traits.All() {
			b.Traits[t] = named[t.String()]
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteLineage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteLineage) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createLineageTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS births (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			child_id INTEGER NOT NULL,
			mother_id INTEGER NOT NULL,
			father_id INTEGER NOT NULL,
			sex TEXT NOT NULL,
			generation INTEGER NOT NULL,
			traits BLOB NOT NULL,
			PRIMARY KEY (run_id, child_id)
		);
	`)
	return err
}
