//
// Copyright 2026 Droidspaces contributors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
package registry

import (
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlite3migrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB is a rebuildable local cache of registry state. show/list/scan
// rebuild it from a full directory walk each time they run (see
// RefreshCache); no command reads it back. It is never
// consulted for correctness-critical decisions (start/stop always read
// the filesystem sidecars directly) — see SPEC_FULL.md §A.2.
type DB struct {
	sql *sql.DB
}

// dbPath returns the cache database location inside the workspace.
func dbPath() string {
	return filepath.Join(WorkspaceDir(), "index.db")
}

// OpenDB opens (creating if needed) the cache database and applies any
// pending migrations.
func OpenDB() (*DB, error) {
	if err := EnsureWorkspace(); err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open("sqlite", dbPath())
	if err != nil {
		return nil, fmt.Errorf("registry: open index db: %w", err)
	}

	driver, err := sqlite3migrate.WithInstance(sqlDB, &sqlite3migrate.Config{})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("registry: migrate driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("registry: migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("registry: migrate init: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		sqlDB.Close()
		return nil, fmt.Errorf("registry: apply migrations: %w", err)
	}

	return &DB{sql: sqlDB}, nil
}

// Close releases the underlying connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Upsert records or updates a single entry in the cache.
func (d *DB) Upsert(e Entry) error {
	_, err := d.sql.Exec(
		`INSERT INTO containers (name, pid, mount_path, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET pid=excluded.pid, mount_path=excluded.mount_path, updated_at=excluded.updated_at`,
		e.Name, e.PID, e.MountPath, time.Now().Unix(),
	)
	return err
}

// Delete removes name from the cache.
func (d *DB) Delete(name string) error {
	_, err := d.sql.Exec(`DELETE FROM containers WHERE name = ?`, name)
	return err
}

// Rebuild replaces the entire cache contents with a fresh registry scan.
func (d *DB) Rebuild() error {
	entries, err := List()
	if err != nil {
		return err
	}
	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM containers`); err != nil {
		tx.Rollback()
		return err
	}
	for _, e := range entries {
		if _, err := tx.Exec(
			`INSERT INTO containers (name, pid, mount_path, updated_at) VALUES (?, ?, ?, ?)`,
			e.Name, e.PID, e.MountPath, time.Now().Unix(),
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Cached returns the cache's view of name, without touching the
// filesystem — used only for fast display paths, never for lifecycle
// decisions.
func (d *DB) Cached(name string) (Entry, bool) {
	var e Entry
	var mp sql.NullString
	row := d.sql.QueryRow(`SELECT name, pid, mount_path FROM containers WHERE name = ?`, name)
	if err := row.Scan(&e.Name, &e.PID, &mp); err != nil {
		return Entry{}, false
	}
	e.MountPath = mp.String
	return e, true
}

// RefreshCache opens the cache database, rebuilds it from the current
// filesystem state, and closes it. Errors are swallowed; callers never
// block on the cache.
func RefreshCache() {
	db, err := OpenDB()
	if err != nil {
		return
	}
	defer db.Close()
	_ = db.Rebuild()
}
