package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"slices"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/tickflow/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in PRAGMA user_version. Bump it whenever the runs
// or ticks layout changes.
const schemaVersion = 1

// runColumns is the runs column list in the order scanRun reads it.
const runColumns = "id, module, plan_hash, source, args, seq, engine_version, ir_version"

// Store provides durable storage for recorded runs and their ticks.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a trace database at the given path.
//
// A new file gets the runs and ticks tables. An existing file must carry
// the same layout and a schema version this build understands; anything
// else (a trace from a newer tickflow, an unrelated SQLite file) is
// rejected instead of being written to.
//
// The connection is configured with WAL mode, synchronous=NORMAL, a 5s busy
// timeout and foreign keys on. Opening the same path again is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY and
	// keeps ":memory:" databases on one shared handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema checks the stored schema version and the layout of any
// existing runs and ticks tables, then creates whatever is missing.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("trace schema v%d is newer than supported v%d", version, schemaVersion)
	}

	layout := map[string]string{
		"runs":  runColumns,
		"ticks": querysql.TickColumns,
	}
	for _, table := range []string{"runs", "ticks"} {
		if err := checkColumns(db, table, splitColumns(layout[table])); err != nil {
			return err
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if version < schemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

// checkColumns compares a table's columns, in declaration order, with want.
// A missing table passes; schema.sql creates it.
func checkColumns(db *sql.DB, table string, want []string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()

	var got []string
	for rows.Next() {
		var (
			cid      int
			name     string
			typ      string
			notNull  int
			dflt     sql.NullString
			pkMember int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pkMember); err != nil {
			return fmt.Errorf("inspect %s: %w", table, err)
		}
		got = append(got, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}

	if len(got) > 0 && !slices.Equal(got, want) {
		return fmt.Errorf("table %s has columns (%s), want (%s)",
			table, strings.Join(got, ", "), strings.Join(want, ", "))
	}
	return nil
}

func splitColumns(list string) []string {
	cols := strings.Split(list, ",")
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}
	return cols
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
