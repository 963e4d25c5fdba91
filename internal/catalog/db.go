package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// timeFormat is the canonical on-disk timestamp layout: UTC RFC3339 with
// millisecond precision, matching strftime('%Y-%m-%dT%H:%M:%fZ','now').
const timeFormat = "2006-01-02T15:04:05.000Z"

// Handle abstracts over a live connection and an open transaction so every
// store operation can participate in caller-managed atomic sequences.
type Handle interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

var (
	_ Handle = (*sql.DB)(nil)
	_ Handle = (*sql.Tx)(nil)
)

// DB represents one open catalog file. The embedded database is
// single-writer: all mutations flow through the one pooled connection.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens or creates a catalog file at the given path and brings it to
// the target schema version.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	c := &DB{db: db, path: path}
	if err := c.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return c, nil
}

// OpenMemory opens an in-memory catalog, used by tests.
func OpenMemory() (*DB, error) {
	return Open(":memory:")
}

func (c *DB) initialize() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := c.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	if err := c.initializeSchema(); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	return nil
}

// Close closes the catalog file.
func (c *DB) Close() error {
	return c.db.Close()
}

// Path returns the catalog file path.
func (c *DB) Path() string {
	return c.path
}

// Handle returns the connection-level handle for single-statement operations.
func (c *DB) Handle() Handle {
	return c.db
}

// Transaction executes fn inside a transaction, rolling back on error.
func (c *DB) Transaction(fn func(tx *sql.Tx) error) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CheckIntegrity runs PRAGMA integrity_check on the catalog file.
func (c *DB) CheckIntegrity() error {
	var result string
	if err := c.db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// SQLiteVersion returns the embedded SQLite version string.
func SQLiteVersion() string {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return ""
	}
	defer db.Close()

	var version string
	if err := db.QueryRow("SELECT sqlite_version()").Scan(&version); err != nil {
		return ""
	}
	return version
}

func lastInsertID(res sql.Result) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read generated id: %w", err)
	}
	return id, nil
}

// FormatTime renders a timestamp in the canonical UTC text form.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// FormatTimeOpt renders an optional timestamp, passing nil through as NULL.
func FormatTimeOpt(t *time.Time) any {
	if t == nil {
		return nil
	}
	return FormatTime(*t)
}

// ParseTime parses a stored timestamp. Malformed values are an error, never
// silently defaulted: a bad timestamp means the row is corrupt.
func ParseTime(raw string, field string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s timestamp %q: %w", field, raw, err)
	}
	return t.UTC(), nil
}

// ParseTimeOpt parses an optional stored timestamp.
func ParseTimeOpt(raw sql.NullString, field string) (*time.Time, error) {
	if !raw.Valid {
		return nil, nil
	}
	t, err := ParseTime(raw.String, field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ToJSON serializes a JSON-valued column.
func ToJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize JSON column: %w", err)
	}
	return string(data), nil
}

// FromJSON deserializes a JSON-valued column into out.
func FromJSON(raw string, out any) error {
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to deserialize JSON column: %w", err)
	}
	return nil
}

func nullStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt(i *int64) any {
	if i == nil {
		return nil
	}
	return *i
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func intPtr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	i := ni.Int64
	return &i
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
