package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// dialect captures the small differences between the SQL backends.
type dialect struct {
	driver      string
	placeholder func(n int) string
}

var (
	sqliteDialect = dialect{
		driver:      "sqlite3",
		placeholder: func(int) string { return "?" },
	}
	postgresDialect = dialect{
		driver:      "pgx",
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	}
)

// SQLStore implements Store on a SQL database (SQLite or PostgreSQL).
// Thread-safe via sql.DB's connection pooling.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// OpenSQLite opens or creates a SQLite database at path.
// Parent directories are created when missing.
func OpenSQLite(path string) (*SQLStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create config directory: %w", err)
		}
	}

	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite config store: %w", err)
	}
	return newSQLStore(db, sqliteDialect)
}

// NewSQLiteInMemory creates a private in-memory SQLite store (useful for testing).
func NewSQLiteInMemory() (*SQLStore, error) {
	db, err := sql.Open(sqliteDialect.driver, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory sqlite: %w", err)
	}
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)
	return newSQLStore(db, sqliteDialect)
}

// OpenPostgres connects to PostgreSQL through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres config store: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newSQLStore(db, postgresDialect)
}

func newSQLStore(db *sql.DB, d dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: d}
	if err := s.createSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS config (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create config schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	q := "SELECT value FROM config WHERE key = " + s.dialect.placeholder(1)

	var v string
	if err := s.db.QueryRowContext(ctx, q, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read config %q: %w", key, err)
	}
	return v, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	q := fmt.Sprintf(
		"INSERT INTO config (key, value) VALUES (%s, %s) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		s.dialect.placeholder(1), s.dialect.placeholder(2))

	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("write config %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM config ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("query config keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan config key: %w", err)
		}
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config keys: %w", err)
	}
	return keys, nil
}
