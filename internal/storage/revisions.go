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
	"time"

	"reportbuilder/internal/domain"
)

// Revision is a stored past state of a project.
type Revision struct {
	ID    int64
	TS    time.Time
	Label string
}

// language=SQL
// dialect=SQLite
const insertRevisionSQL = `INSERT INTO revisions(project_id, ts, label, snapshot) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const listRevisionsSQL = `SELECT id, ts, COALESCE(label, '') FROM revisions WHERE project_id = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneRevisionsSQL = `DELETE FROM revisions WHERE project_id = ? AND id NOT IN (
	SELECT id FROM revisions WHERE project_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRevision(ctx context.Context, db execer, id, ts, label string, blob []byte) error {
	if _, err := db.ExecContext(ctx, insertRevisionSQL, id, ts, label, blob); err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return nil
}

// ListRevisions returns up to limit most recent revisions of a project.
func (s *Store) ListRevisions(ctx context.Context, projectID string, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, listRevisionsSQL, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Revision
	for rows.Next() {
		var r Revision
		var tsStr string
		if err := rows.Scan(&r.ID, &tsStr, &r.Label); err != nil {
			return nil, err
		}
		r.TS, _ = time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadRevision returns the document stored in a revision.
func (s *Store) LoadRevision(ctx context.Context, revisionID int64) (domain.Document, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM revisions WHERE id = ?`, revisionID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, fmt.Errorf("revision %d: %w", revisionID, sql.ErrNoRows)
	}
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Parse(blob)
}

// PruneRevisions keeps at most keepLast revisions for the project and deletes older ones.
func (s *Store) PruneRevisions(ctx context.Context, projectID string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, pruneRevisionsSQL, projectID, projectID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
