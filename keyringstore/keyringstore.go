// Package keyringstore is an embedded-SQLite reference implementation of
// the [session.Keyring] collaborator — a drop-in stand-in for the platform
// OS keyring, scoped by a service name exactly as the real collaborator
// would be (spec §6). It is grounded in the teacher's
// migration-embedding idiom (vlt.go's go:embed + ladzaretti/migrate) and
// vlt/store/store.go's DBTX-style minimal interface.
package keyringstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/ladzaretti/migrate"

	// Package sqlite is a CGo-free port of SQLite/SQLite3.
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/keyring
var migrationsFS embed.FS

var keyringMigrations = migrate.EmbeddedMigrations{
	FS:   migrationsFS,
	Path: "migrations/sqlite/keyring",
}

// DefaultService is the service name keyring_entry rows are scoped to when
// the caller doesn't specify one.
const DefaultService = "sh.noro.app"

// DBTX is the subset of *sql.DB/*sql.Tx operations [Store] depends on.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a [session.Keyring] backed by a keyring_entry(service, name,
// value) table in an embedded SQLite database.
type Store struct {
	db      DBTX
	service string
}

// Open opens (creating if necessary) a SQLite database at path and applies
// pending keyring migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("keyringstore: open %s: %w", path, err)
	}

	m := migrate.New(db, migrate.SQLiteDialect{})

	if _, err := m.Apply(keyringMigrations); err != nil {
		return nil, fmt.Errorf("keyringstore: apply migrations: %w", err)
	}

	return New(db, DefaultService), nil
}

// New wraps an already-open DBTX (a *sql.DB or a transaction) as a Store
// scoped to service, without running migrations.
func New(db DBTX, service string) *Store {
	return &Store{db: db, service: service}
}

// WithService returns a Store sharing the same underlying connection but
// scoped to a different service name.
func (s *Store) WithService(service string) *Store {
	return &Store{db: s.db, service: service}
}

const upsertEntry = `
	INSERT INTO
		keyring_entry (service, name, value)
	VALUES
		($1, $2, $3)
	ON CONFLICT (service, name) DO UPDATE SET
		value = excluded.value
`

// Set persists value under name, overwriting any existing value.
func (s *Store) Set(ctx context.Context, name string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertEntry, s.service, name, value); err != nil {
		return fmt.Errorf("keyringstore: set %s: %w", name, err)
	}

	return nil
}

const selectEntry = `
	SELECT
		value
	FROM
		keyring_entry
	WHERE
		service = $1
		AND name = $2
`

// Get returns the value persisted under name, or nil with no error if no
// such entry exists.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	var value []byte

	err := s.db.QueryRowContext(ctx, selectEntry, s.service, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("keyringstore: get %s: %w", name, err)
	}

	return value, nil
}

const deleteEntry = `
	DELETE FROM keyring_entry
	WHERE
		service = $1
		AND name = $2
`

// Delete removes the entry persisted under name. Deleting a nonexistent
// entry is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, deleteEntry, s.service, name); err != nil {
		return fmt.Errorf("keyringstore: delete %s: %w", name, err)
	}

	return nil
}
