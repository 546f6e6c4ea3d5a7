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
	"fmt"
	"sort"
	"strings"

	"reportbuilder/internal/domain"
)

// PageEntryType marks search rows that describe a page rather than a block.
const PageEntryType = "PAGE"

// SearchQuery describes a search over stored projects.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// ProjectID and Types are optional filters. Limit/Offset implement
// pagination; reasonable defaults apply if zero.
type SearchQuery struct {
	Text      string
	ProjectID string
	Types     []string
	Limit     int
	Offset    int
}

// SearchResult is a single match. BlockID holds the page id for page rows.
// Snippet is a highlighted excerpt using [ ] markers.
type SearchResult struct {
	ProjectID string
	PageIndex int
	BlockID   string
	Type      string
	Snippet   string
}

// language=SQL
// dialect=SQLite
const insertFTSSQL = `INSERT INTO fts_blocks(project_id, page_index, block_id, type, text) VALUES (?, ?, ?, ?, ?)`

// reindexBlocks replaces the search rows of a project.
func reindexBlocks(ctx context.Context, tx *sql.Tx, projectID string, doc domain.Document) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM fts_blocks WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("clear search rows: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertFTSSQL)
	if err != nil {
		return fmt.Errorf("prepare search insert: %w", err)
	}
	defer stmt.Close()
	for pi, p := range doc.Pages {
		if text := joinText(p.Title, p.Subtitle); text != "" {
			if _, err := stmt.ExecContext(ctx, projectID, pi, p.ID, PageEntryType, text); err != nil {
				return fmt.Errorf("index page %d: %w", pi, err)
			}
		}
		for _, b := range p.Blocks {
			text := joinText(append([]string{b.Title}, configText(b.Config)...)...)
			if text == "" {
				continue
			}
			if _, err := stmt.ExecContext(ctx, projectID, pi, b.ID, string(b.Type), text); err != nil {
				return fmt.Errorf("index block %s: %w", b.ID, err)
			}
		}
	}
	return nil
}

// configText collects the string leaves of a config in key order, skipping
// ids and the sync key.
func configText(c domain.Config) []string {
	var out []string
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case []any:
			for _, e := range t {
				walk(e)
			}
		case map[string]any:
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if k != domain.KeyID && k != domain.KeySyncKey {
					walk(t[k])
				}
			}
		}
	}
	walk(map[string]any(c))
	return out
}

func joinText(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(p)
	}
	return b.String()
}

// Search performs full-text search over the titles and text content of
// stored pages and blocks.
func (s *Store) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, nil
	}
	var args []any
	var sb strings.Builder
	sb.WriteString("SELECT project_id, page_index, block_id, type, snippet(fts_blocks, 4, '[', ']', '…', 10)\n")
	sb.WriteString("FROM fts_blocks WHERE fts_blocks MATCH ?\n")
	args = append(args, q.Text)
	if q.ProjectID != "" {
		sb.WriteString(" AND project_id = ?\n")
		args = append(args, q.ProjectID)
	}
	if len(q.Types) > 0 {
		sb.WriteString(" AND type IN (" + placeholders(len(q.Types)) + ")\n")
		for _, t := range q.Types {
			args = append(args, t)
		}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY rank, project_id, page_index\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var sn sql.NullString
		if err := rows.Scan(&r.ProjectID, &r.PageIndex, &r.BlockID, &r.Type, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Snippet = sn.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
