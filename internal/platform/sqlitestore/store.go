// Package sqlitestore persists the in-memory store to a single SQLite table.
//
// Each collection is kept as one JSON payload row in the state table and the
// whole state is written after every successful mutation. A write that fails
// to persist is not applied.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/oncotimeline/oncotimeline/internal/platform/memstore"
)

// DefaultPath is used when Open is given an empty path.
const DefaultPath = "oncotimeline.db"

type Store struct {
	*memstore.Store
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and loads any state
// saved in it.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serialises writers.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}

	s := &Store{db: db, path: path}
	snap, err := s.load(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.Store = memstore.New(memstore.WithSnapshot(snap), memstore.WithCommitHook(s.persist))
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

const (
	bucketPatients = "patients"
	bucketPhases   = "phases"
	bucketDrugs    = "drugs"
	bucketEvents   = "events"
	bucketArticles = "articles"
)

// buckets pairs each bucket name with the snapshot field it stores.
func buckets(snap *memstore.Snapshot) []struct {
	name string
	v    interface{}
} {
	return []struct {
		name string
		v    interface{}
	}{
		{bucketPatients, &snap.Patients},
		{bucketPhases, &snap.Phases},
		{bucketDrugs, &snap.Drugs},
		{bucketEvents, &snap.Events},
		{bucketArticles, &snap.Articles},
	}
}

// load returns the saved snapshot, or nil when the database is empty.
func (s *Store) load(ctx context.Context) (*memstore.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	payloads := map[string][]byte{}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		payloads[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if len(payloads) == 0 {
		return nil, nil
	}

	snap := &memstore.Snapshot{}
	for _, b := range buckets(snap) {
		data, ok := payloads[b.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(data, b.v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", b.name, err)
		}
	}
	return snap, nil
}

func (s *Store) persist(ctx context.Context, snap *memstore.Snapshot) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, b := range buckets(snap) {
		data, err := json.Marshal(b.v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", b.name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO state(bucket, payload) VALUES(?, ?) ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`,
			b.name, data); err != nil {
			return fmt.Errorf("upsert %s: %w", b.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
