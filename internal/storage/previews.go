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
	"os"
	"strconv"
	"time"
)

// EnvPreviewsMaxBytes caps the thumbnail cache; older entries are evicted first.
const EnvPreviewsMaxBytes = "RB_PREVIEWS_MAX_BYTES"

// GetPreview returns the cached thumbnail of a page, or nil when there is none,
// and updates its last access time.
func (s *Store) GetPreview(ctx context.Context, projectID, pageID string, w, h int) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM previews WHERE project_id=? AND page_id=? AND width=? AND height=?`,
		projectID, pageID, w, h).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preview: %w", err)
	}
	// touch
	now := s.now().UTC().Format(time.RFC3339Nano)
	_, _ = s.db.ExecContext(ctx, `UPDATE previews SET last_access=? WHERE project_id=? AND page_id=? AND width=? AND height=?`,
		now, projectID, pageID, w, h)
	return blob, nil
}

// PutPreview upserts a page thumbnail (PNG bytes) and enforces the cache size cap via LRU eviction.
func (s *Store) PutPreview(ctx context.Context, projectID, pageID string, w, h int, blob []byte) error {
	now := s.now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `INSERT INTO previews(project_id,page_id,width,height,blob,size,updated_at,last_access)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(project_id,page_id,width,height) DO UPDATE SET blob=excluded.blob, size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		projectID, pageID, w, h, blob, len(blob), now, now)
	if err != nil {
		return fmt.Errorf("upsert preview: %w", err)
	}
	if capBytes := MaxPreviewsBytesFromEnv(); capBytes > 0 {
		return s.EvictPreviewsToFit(ctx, capBytes)
	}
	return nil
}

// GetOrCreatePreview fetches a thumbnail or generates and stores it using gen.
func (s *Store) GetOrCreatePreview(ctx context.Context, projectID, pageID string, w, h int, gen func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := s.GetPreview(ctx, projectID, pageID, w, h); err != nil {
		return nil, err
	} else if b != nil {
		return b, nil
	}
	if gen == nil {
		return nil, nil
	}
	data, err := gen(ctx)
	if err != nil || data == nil {
		return nil, err
	}
	if err := s.PutPreview(ctx, projectID, pageID, w, h, data); err != nil {
		return nil, err
	}
	return data, nil
}

// EvictPreviewsToFit deletes least-recently-used rows until total size <= capBytes.
func (s *Store) EvictPreviewsToFit(ctx context.Context, capBytes int64) error {
	total, err := s.TotalPreviewBytes(ctx)
	if err != nil {
		return err
	}
	if total <= capBytes {
		return nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, size FROM previews ORDER BY
		CASE WHEN last_access IS NULL THEN 0 ELSE 1 END ASC, last_access ASC, id ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	var victims []any
	cur := total
	for rows.Next() && cur > capBytes {
		var id, sz int64
		if err := rows.Scan(&id, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		victims = append(victims, id)
		cur -= sz
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// Close the cursor before writing; the store runs on a single connection.
	if err := rows.Close(); err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM previews WHERE id IN (`+placeholders(len(victims))+`)`, victims...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	return nil
}

// TotalPreviewBytes returns total bytes tracked by previews.size.
func (s *Store) TotalPreviewBytes(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum previews size: %w", err)
	}
	return total, nil
}

// MaxPreviewsBytesFromEnv reads RB_PREVIEWS_MAX_BYTES, defaulting to 64MB if unset.
func MaxPreviewsBytesFromEnv() int64 {
	const def = 64 * 1024 * 1024
	v := os.Getenv(EnvPreviewsMaxBytes)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
