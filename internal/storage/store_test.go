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
	"path/filepath"
	"testing"
	"time"

	"reportbuilder/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "projects.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func sampleDoc(title string) domain.Document {
	return domain.Document{
		Title: title, LayoutFormat: domain.LayoutReport, DesignSystem: domain.DesignStandard,
		Pages: []domain.Page{{
			ID: "page-1", Title: "Resumo Executivo", Theme: domain.DefaultPageTheme,
			ShowTitle: true, ShowSubtitle: true, ShowLogo: true, ShowDivider: true, ShowFooter: true,
			Blocks: []domain.Block{
				{ID: "block-1", Type: domain.BlockKPI, Width: domain.WidthQuarter, Title: "Receita anual", Config: domain.Config{"label": "Receita", "value": "1,2 mi"}},
				{ID: "block-2", Type: domain.BlockTextBox, Width: domain.WidthFull, Title: "Análise", Config: domain.Config{"content": "Crescimento acima da meta"}},
			},
		}},
	}
}

func TestSaveLoadListDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a, b := sampleDoc("Relatório A"), sampleDoc("Relatório B")
	if err := s.Save(ctx, "a", a); err != nil {
		t.Fatalf("Save a: %v", err)
	}
	if err := s.Save(ctx, "b", b); err != nil {
		t.Fatalf("Save b: %v", err)
	}
	got, err := s.Load(ctx, "a")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !domain.Equal(got, a) {
		t.Fatalf("loaded document differs from saved one")
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != "b" || list[1].Title != "Relatório A" || list[1].PageCount != 1 {
		t.Fatalf("unexpected index: %+v", list)
	}
	if !list[0].UpdatedAt.After(list[1].UpdatedAt) {
		t.Fatalf("index not ordered by update time: %+v", list)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, "a"); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Fatalf("deleting an unknown id should succeed: %v", err)
	}
	if err := s.Save(ctx, " ", a); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if err := s.QuickCheck(ctx); err != nil {
		t.Fatalf("QuickCheck: %v", err)
	}
}

func TestLoadFillsDefaultsForOlderSnapshots(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	old := `{"title":"Antigo","pages":[{"id":"p1","blocks":[{"id":"b1","type":"KPI"}]}]}`
	if _, err := s.db.ExecContext(ctx, `INSERT INTO projects(id, snapshot) VALUES (?, ?)`, "old", []byte(old)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	doc, err := s.Load(ctx, "old")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p := doc.Pages[0]
	if !p.ShowTitle || !p.ShowFooter || p.Blocks[0].Width != domain.WidthFull || p.Blocks[0].Config == nil {
		t.Fatalf("defaults not merged: %+v", p)
	}
	if doc.LayoutFormat != domain.LayoutReport {
		t.Fatalf("layout format default missing: %q", doc.LayoutFormat)
	}
}

func TestMigrationsUpgradeFromBaseSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)", filepath.ToSlash(path)))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stmts := []string{
		`CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version VALUES(1, 1, 'test', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z');`,
		`CREATE TABLE projects (id TEXT PRIMARY KEY, snapshot BLOB NOT NULL);`,
		`CREATE TABLE project_index (id TEXT PRIMARY KEY, title TEXT NOT NULL, updated_at TEXT NOT NULL, page_count INTEGER NOT NULL);`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed base schema: %v (q=%s)", err, q)
		}
	}
	_ = db.Close()

	s, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer s.Close()
	var schema int
	if err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if schema != schemaVersion {
		t.Fatalf("expected schema %d after migration, got %d", schemaVersion, schema)
	}
	var cnt int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE name IN ('revisions','fts_blocks','previews')`).Scan(&cnt); err != nil {
		t.Fatalf("query tables: %v", err)
	}
	if cnt != 3 {
		t.Fatalf("expected migrated tables, found %d", cnt)
	}
}

func TestRevisionsArePrunedAndLoadable(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	s.KeepRevisions = 3
	for i := 1; i <= 5; i++ {
		if err := s.Save(ctx, "p", sampleDoc(fmt.Sprintf("v%d", i))); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}
	revs, err := s.ListRevisions(ctx, "p", 10)
	if err != nil {
		t.Fatalf("ListRevisions: %v", err)
	}
	if len(revs) != 3 {
		t.Fatalf("expected 3 revisions, got %d", len(revs))
	}
	doc, err := s.LoadRevision(ctx, revs[len(revs)-1].ID)
	if err != nil {
		t.Fatalf("LoadRevision: %v", err)
	}
	if doc.Title != "v3" {
		t.Fatalf("oldest kept revision = %q, want v3", doc.Title)
	}
	if n, err := s.PruneRevisions(ctx, "p", 1); err != nil || n != 2 {
		t.Fatalf("PruneRevisions: n=%d err=%v", n, err)
	}
}

func TestSearchBlocksAndPages(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.Save(ctx, "a", sampleDoc("A")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	res, err := s.Search(ctx, SearchQuery{Text: "crescimento"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].BlockID != "block-2" || res[0].ProjectID != "a" || res[0].Type != string(domain.BlockTextBox) {
		t.Fatalf("unexpected results: %+v", res)
	}
	res, err = s.Search(ctx, SearchQuery{Text: "executivo", Types: []string{PageEntryType}})
	if err != nil {
		t.Fatalf("Search pages: %v", err)
	}
	if len(res) != 1 || res[0].BlockID != "page-1" {
		t.Fatalf("page title not indexed: %+v", res)
	}
	// re-saving replaces the rows
	if err := s.Save(ctx, "a", sampleDoc("A")); err != nil {
		t.Fatalf("Save again: %v", err)
	}
	if res, _ := s.Search(ctx, SearchQuery{Text: "receita", ProjectID: "a"}); len(res) != 1 {
		t.Fatalf("expected a single hit after re-save, got %d", len(res))
	}
	if res, _ := s.Search(ctx, SearchQuery{Text: "   "}); res != nil {
		t.Fatalf("blank query should return nothing")
	}
}

func TestPreviewsPutGetAndEvict(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	t.Setenv(EnvPreviewsMaxBytes, "64")
	if err := s.Save(ctx, "p", sampleDoc("P")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, w := range []int{100, 200, 300} {
		if err := s.PutPreview(ctx, "p", "page-1", w, w, make([]byte, 40)); err != nil {
			t.Fatalf("put %d: %v", w, err)
		}
	}
	total, err := s.TotalPreviewBytes(ctx)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total > 64 {
		t.Fatalf("expected eviction to <=64 bytes, got %d", total)
	}
	if b, _ := s.GetPreview(ctx, "p", "page-1", 300, 300); b == nil {
		t.Fatalf("most recent preview should survive eviction")
	}
	if b, _ := s.GetPreview(ctx, "p", "page-1", 100, 100); b != nil {
		t.Fatalf("oldest preview should have been evicted")
	}
	calls := 0
	gen := func(context.Context) ([]byte, error) { calls++; return []byte("png"), nil }
	for i := 0; i < 2; i++ {
		if _, err := s.GetOrCreatePreview(ctx, "p", "page-1", 50, 50, gen); err != nil {
			t.Fatalf("GetOrCreatePreview: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("generator should run once, ran %d times", calls)
	}
}
