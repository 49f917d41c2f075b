// Package db stores install receipts in SQLite.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Receipt records one successful installation.
type Receipt struct {
	Tool        string    `json:"tool"`
	Requested   string    `json:"requested"`
	Version     string    `json:"version"`
	Arch        string    `json:"arch"`
	Strategy    string    `json:"strategy"`
	BinDir      string    `json:"bin_dir"`
	InstalledAt time.Time `json:"installed_at"`
}

type DB struct {
	conn *sql.DB
}

func dsn(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Open opens the database at path, creating it and applying pending migrations.
func Open(ctx context.Context, path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	if err := Migrate(path); err != nil {
		return nil, err
	}
	conn, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Migrate applies every pending migration to the database at path.
func Migrate(path string) error {
	conn, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return err
	}
	driver, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to init migration driver: %w", err)
	}
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		driver.Close()
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		driver.Close()
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate %s: %w", path, err)
	}
	v, _, _ := m.Version()
	slog.Debug("database ready", "path", path, "schema", v)
	return nil
}

func (d *DB) Close() error { return d.conn.Close() }

// RecordInstall stores r, replacing an earlier receipt for the same tool, version and arch.
func (d *DB) RecordInstall(ctx context.Context, r Receipt) error {
	if r.InstalledAt.IsZero() {
		r.InstalledAt = time.Now()
	}
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO installs (tool, version, arch, requested, strategy, bin_dir, installed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tool, version, arch) DO UPDATE SET
			requested = excluded.requested,
			strategy = excluded.strategy,
			bin_dir = excluded.bin_dir,
			installed_at = excluded.installed_at`,
		r.Tool, r.Version, r.Arch, r.Requested, r.Strategy, r.BinDir, r.InstalledAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record install of %s: %w", r.Tool, err)
	}
	return nil
}

// ListInstalls returns every receipt, newest first.
func (d *DB) ListInstalls(ctx context.Context) ([]Receipt, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT tool, version, arch, requested, strategy, bin_dir, installed_at
		FROM installs
		ORDER BY installed_at DESC, tool`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []Receipt
	for rows.Next() {
		var r Receipt
		var ts int64
		if err := rows.Scan(&r.Tool, &r.Version, &r.Arch, &r.Requested, &r.Strategy, &r.BinDir, &ts); err != nil {
			return nil, err
		}
		r.InstalledAt = time.Unix(ts, 0)
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}
