/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reportbuilder/internal/domain"
	applog "reportbuilder/internal/log"
	"reportbuilder/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the local SQLite schema of the project store.
// Bump this when you perform schema changes and add a migration step.
const schemaVersion = 3

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidID       = errors.New("invalid project id")
)

// ProjectInfo is one row of the project index.
type ProjectInfo struct {
	ID        string
	Title     string
	UpdatedAt time.Time
	PageCount int
}

// Store is the local persisted-project store.
type Store struct {
	db   *sql.DB
	path string
	log  *slog.Logger
	// KeepRevisions bounds the revisions kept per project (0 disables revisions).
	KeepRevisions int
	now           func() time.Time
}

// OpenStore opens or creates the SQLite store at path, enables WAL mode and
// brings the schema up to date.
func OpenStore(path string) (*Store, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "store_open").With(
		slog.String("path", path),
	)
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create store dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Embedded usage: a single connection serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureBaseSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("store ready")
	return &Store{db: db, path: path, log: applog.WithComponent("storage"), KeepRevisions: 20, now: time.Now}, nil
}

// Path is the database file of the store.
func (s *Store) Path() string { return s.path }

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// A fresh store starts at the base schema; migrations bring it up.
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureBaseSchema creates the schema-1 tables.
func ensureBaseSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id       TEXT PRIMARY KEY,
			snapshot BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS project_index (
			id         TEXT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
			title      TEXT    NOT NULL,
			updated_at TEXT    NOT NULL,
			page_count INTEGER NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// migrations holds the statements that take the schema from step-1 to step.
var migrations = map[int][]string{
	2: {
		`CREATE TABLE IF NOT EXISTS revisions (
			id         INTEGER PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			ts         TEXT NOT NULL,
			label      TEXT,
			snapshot   BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_revisions_project_ts ON revisions(project_id, ts);`,
		`CREATE INDEX IF NOT EXISTS idx_project_index_updated ON project_index(updated_at);`,
	},
	3: {
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_blocks USING fts5(
			project_id UNINDEXED,
			page_index UNINDEXED,
			block_id   UNINDEXED,
			type       UNINDEXED,
			text,
			tokenize = 'unicode61 remove_diacritics 2'
		);`,
		`CREATE TABLE IF NOT EXISTS previews (
			id          INTEGER PRIMARY KEY,
			project_id  TEXT    NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			page_id     TEXT    NOT NULL,
			width       INTEGER NOT NULL,
			height      INTEGER NOT NULL,
			blob        BLOB    NOT NULL,
			size        INTEGER NOT NULL,
			updated_at  TEXT    NOT NULL,
			last_access TEXT
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_previews_variant ON previews(project_id, page_id, width, height);`,
		`CREATE INDEX IF NOT EXISTS idx_previews_last_access ON previews(last_access);`,
	},
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	// Never downgrade a store written by a newer version.
	for cur < schemaVersion {
		next := cur + 1
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range migrations[next] {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// language=SQL
// dialect=SQLite
const upsertProjectSQL = `INSERT INTO projects(id, snapshot) VALUES (?, ?)
	ON CONFLICT(id) DO UPDATE SET snapshot = excluded.snapshot`

// language=SQL
// dialect=SQLite
const upsertIndexSQL = `INSERT INTO project_index(id, title, updated_at, page_count) VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at, page_count = excluded.page_count`

// Save stores the canonical snapshot of doc under id, refreshes the index row
// and the search entries, and records a revision, all in one transaction.
func (s *Store) Save(ctx context.Context, id string, doc domain.Document) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	blob, err := domain.Canonical(doc)
	if err != nil {
		return fmt.Errorf("snapshot project %q: %w", id, err)
	}
	ts := s.now().UTC().Format(time.RFC3339Nano)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, upsertProjectSQL, id, blob); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsertIndexSQL, id, doc.Title, ts, len(doc.Pages)); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	if err := reindexBlocks(ctx, tx, id, doc); err != nil {
		return err
	}
	if s.KeepRevisions > 0 {
		if err := insertRevision(ctx, tx, id, ts, "save", blob); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, pruneRevisionsSQL, id, id, s.KeepRevisions); err != nil {
			return fmt.Errorf("prune revisions: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	s.log.DebugContext(applog.ContextWithProject(ctx, id), "project saved",
		slog.Int("bytes", len(blob)), slog.Int("pages", len(doc.Pages)))
	return nil
}

// Load returns the project's document, filling fields missing from older
// snapshots with defaults.
func (s *Store) Load(ctx context.Context, id string) (domain.Document, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM projects WHERE id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, fmt.Errorf("%w: %q", ErrProjectNotFound, id)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("load project %q: %w", id, err)
	}
	doc, err := domain.Parse(blob)
	if err != nil {
		s.log.WarnContext(applog.ContextWithProject(ctx, id), "stored snapshot rejected", slog.Any("err", err))
		return domain.Document{}, fmt.Errorf("load project %q: %w", id, err)
	}
	return doc, nil
}

// List returns the project index, most recently updated first.
func (s *Store) List(ctx context.Context) ([]ProjectInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, updated_at, page_count FROM project_index ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	var out []ProjectInfo
	for rows.Next() {
		var p ProjectInfo
		var ts string
		if err := rows.Scan(&p.ID, &p.Title, &ts, &p.PageCount); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes the project with its index row, revisions, search entries
// and previews. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	stmts := []string{
		`DELETE FROM fts_blocks WHERE project_id = ?`,
		`DELETE FROM previews WHERE project_id = ?`,
		`DELETE FROM revisions WHERE project_id = ?`,
		`DELETE FROM project_index WHERE id = ?`,
		`DELETE FROM projects WHERE id = ?`,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete project %q: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	s.log.InfoContext(applog.ContextWithProject(ctx, id), "project deleted")
	return nil
}

// QuickCheck runs SQLite's integrity check and reports whether the store is healthy.
func (s *Store) QuickCheck(ctx context.Context) error {
	var chk string
	if err := s.db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil {
		return fmt.Errorf("quick_check: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(chk), "ok") {
		return fmt.Errorf("store corrupt: %s", chk)
	}
	return nil
}
