// Package sqlite implements rule persistence on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/rulebook/internal/log"
	"github.com/zjrosen/rulebook/internal/store"
)

// busyTimeoutMS is how long a connection waits on a locked database.
const busyTimeoutMS = 5000

// DB owns the connection and implements store.Store.
type DB struct {
	conn  *sql.DB
	path  string
	rules *ruleRepository
}

var _ store.Store = (*DB)(nil)

// NewDB opens (creating if needed) the database at path and migrates it to
// the latest schema. An existing file is copied to path+".bak" before
// migrations run.
func NewDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".bak"); err != nil {
			return nil, fmt.Errorf("backing up database: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(wal)&_pragma=foreign_keys(1)",
		filepath.ToSlash(path), busyTimeoutMS)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Debug(log.CatDB, "Opened database", "path", path)
	return &DB{conn: conn, path: path, rules: newRuleRepository(conn)}, nil
}

// Connection returns the underlying *sql.DB.
func (d *DB) Connection() *sql.DB {
	return d.conn
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Load implements store.Store.
func (d *DB) Load(ctx context.Context) ([]store.Record, error) {
	return d.rules.Load(ctx)
}

// Save implements store.Store.
func (d *DB) Save(ctx context.Context, records []store.Record) error {
	return d.rules.Save(ctx, records)
}

// Close closes the connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src) //nolint:gosec // G304: path comes from config
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600) //nolint:gosec // G304: path comes from config
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	_, err = io.Copy(out, in)
	return err
}
