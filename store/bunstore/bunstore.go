// Package bunstore provides a SQLite-backed SessionStore built on Bun.
// The session projection is a handful of keys, so the schema is a single
// key-value table local to the device.
package bunstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Record is one persisted key.
type Record struct {
	bun.BaseModel `bun:"table:session_store,alias:ss"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Store implements authclient.SessionStore on top of a Bun database.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

// StoreOption customizes Store construction.
type StoreOption func(*Store)

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// New wraps an existing Bun database. Call Init before first use.
func New(db *bun.DB, opts ...StoreOption) *Store {
	s := &Store{
		db:  db,
		now: time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Open creates a Store backed by the SQLite file at path, creating the
// schema if needed. Use ":memory:" for an ephemeral store.
func Open(ctx context.Context, path string, opts ...StoreOption) (*Store, error) {
	dsn := path
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared"
	}

	sqlDB, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("bunstore: failed to open database: %w", err)
	}

	db := bun.NewDB(sqlDB, sqlitedialect.New())

	store := New(db, opts...)
	if err := store.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Init creates the backing table when missing.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*Record)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bunstore: failed to create schema: %w", err)
	}
	return nil
}

// Get retrieves a value. A missing key is reported through the bool, not
// the error.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	record := &Record{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("bunstore: read failed: %w", err)
	}

	return record.Value, true, nil
}

// Set upserts a value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	record := &Record{
		Key:       key,
		Value:     value,
		UpdatedAt: s.now(),
	}

	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bunstore: write failed: %w", err)
	}

	return nil
}

// Remove deletes a key. Removing a missing key is a no-op.
func (s *Store) Remove(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*Record)(nil)).
		Where("?TableAlias.key = ?", key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bunstore: remove failed: %w", err)
	}

	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
