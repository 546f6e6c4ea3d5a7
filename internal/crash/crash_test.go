/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reportbuilder/internal/domain"
	"reportbuilder/internal/storage"
)

type fixedSource struct{ doc domain.Document }

func (f fixedSource) OpenDocument() (domain.Document, bool) { return f.doc, true }

type brokenSource struct{}

func (brokenSource) OpenDocument() (domain.Document, bool) { panic("corrupt history") }

func silenceStderr(t *testing.T) {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = w
	done := make(chan struct{})
	go func() { _, _ = io.Copy(io.Discard, r); close(done) }()
	t.Cleanup(func() {
		_ = w.Close()
		<-done
		os.Stderr = old
	})
}

func stubExit(t *testing.T) *int {
	t.Helper()
	code := -1
	old := exitFn
	exitFn = func(c int) { code = c }
	t.Cleanup(func() { exitFn = old })
	return &code
}

func findFile(t *testing.T, dir, prefix, suffix string) string {
	t.Helper()
	ents, _ := os.ReadDir(dir)
	for _, e := range ents {
		if strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), suffix) {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport("", "boom", []byte("stacktrace"), nil)
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "Report Builder Crash Report") || !strings.Contains(s, "Panic: boom") {
		t.Fatalf("report content missing: %s", s)
	}
}

func TestRecoverWritesReportAndAutosave(t *testing.T) {
	silenceStderr(t)
	code := stubExit(t)
	dir := t.TempDir()
	doc := domain.DefaultDocument(func(p string) string { return p + "-1" })
	doc.Title = "Balanço"

	func() {
		defer Recover(dir, fixedSource{doc: doc})
		panic("boom")
	}()

	if *code != 2 {
		t.Fatalf("expected exit code 2, got %d", *code)
	}
	report := findFile(t, dir, "crash-", ".log")
	if report == "" {
		t.Fatalf("expected crash report in %s", dir)
	}
	b, _ := os.ReadFile(report)
	if !strings.Contains(string(b), `Document: "Balanço" (1 pages, 0 blocks)`) {
		t.Fatalf("document summary missing: %s", b)
	}
	auto := findFile(t, dir, "autosave-", ".json")
	if auto == "" {
		t.Fatalf("expected autosave in %s", dir)
	}
	got, err := storage.ReadDocumentFile(auto)
	if err != nil || !domain.Equal(got, doc) {
		t.Fatalf("autosave does not match document: %v", err)
	}
}

func TestRecoverSurvivesBrokenSource(t *testing.T) {
	silenceStderr(t)
	code := stubExit(t)
	dir := t.TempDir()
	func() {
		defer Recover(dir, brokenSource{})
		panic("boom")
	}()
	if *code != 2 {
		t.Fatalf("expected exit code 2, got %d", *code)
	}
	if findFile(t, dir, "crash-", ".log") == "" {
		t.Fatalf("crash report missing")
	}
	if findFile(t, dir, "autosave-", ".json") != "" {
		t.Fatalf("no autosave expected from a broken source")
	}
}

func TestRecoverWithoutPanicIsNoop(t *testing.T) {
	code := stubExit(t)
	func() {
		defer Recover(t.TempDir(), nil)
	}()
	if *code != -1 {
		t.Fatalf("exit called without a panic")
	}
}
