/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"fmt"
	"testing"

	"reportbuilder/internal/domain"
)

func doc(title string) domain.Document {
	return domain.Document{Title: title, LayoutFormat: domain.LayoutReport, DesignSystem: domain.DesignStandard, Pages: []domain.Page{}}
}

func newManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	m, err := NewManager(doc("v0"), cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestUndoRedoBasic(t *testing.T) {
	m := newManager(t, Config{})
	if ok, err := m.Apply("rename", doc("v1")); !ok || err != nil {
		t.Fatalf("apply: ok=%v err=%v", ok, err)
	}
	if !m.Undo() || m.Current().Title != "v0" {
		t.Fatalf("undo expected v0, got %q", m.Current().Title)
	}
	if !m.Redo() || m.Current().Title != "v1" {
		t.Fatalf("redo expected v1, got %q", m.Current().Title)
	}
	if m.Redo() {
		t.Fatalf("redo on empty future should report false")
	}
}

func TestUndoOnEmptyPastIsNoop(t *testing.T) {
	m := newManager(t, Config{})
	if m.Undo() || m.CanUndo() || m.CanRedo() {
		t.Fatalf("fresh history should have nothing to undo or redo")
	}
}

func TestEqualCandidateIsNoop(t *testing.T) {
	m := newManager(t, Config{})
	calls := 0
	m.Subscribe(func(domain.Document) { calls++ })
	// nil and empty page slices are the same document
	same := doc("v0")
	same.Pages = nil
	ok, err := m.Apply("noop", same)
	if ok || err != nil {
		t.Fatalf("expected no-op, got ok=%v err=%v", ok, err)
	}
	if _, past, _ := m.Stats(); past != 0 || calls != 0 {
		t.Fatalf("no-op left a trace: past=%d notifications=%d", past, calls)
	}
}

func TestUndoRedoInverse(t *testing.T) {
	m := newManager(t, Config{})
	for i := 1; i <= 5; i++ {
		m.Apply(fmt.Sprintf("edit %d", i), doc(fmt.Sprintf("v%d", i)))
	}
	before := m.Current()
	if !m.Undo() || !m.Redo() {
		t.Fatalf("undo/redo should both succeed")
	}
	if !domain.Equal(before, m.Current()) {
		t.Fatalf("undo then redo must restore the document")
	}
	m.Undo()
	after := m.Current()
	if !m.Redo() || !m.Undo() || !domain.Equal(after, m.Current()) {
		t.Fatalf("redo then undo must restore the document")
	}
}

func TestNewEditClearsFuture(t *testing.T) {
	m := newManager(t, Config{})
	m.Apply("a", doc("v1"))
	m.Apply("b", doc("v2"))
	m.Undo()
	if !m.CanRedo() || m.RedoLabel() != "b" {
		t.Fatalf("expected redo of %q, got %q", "b", m.RedoLabel())
	}
	m.Apply("c", doc("v3"))
	if m.CanRedo() {
		t.Fatalf("a new edit must clear the future")
	}
	if m.UndoLabel() != "c" {
		t.Fatalf("undo label = %q", m.UndoLabel())
	}
}

func TestHistoryBound(t *testing.T) {
	m := newManager(t, Config{})
	for i := 1; i <= 60; i++ {
		m.Apply("edit", doc(fmt.Sprintf("v%d", i)))
	}
	n := 0
	for m.Undo() {
		n++
	}
	if n != DefaultMaxEntries {
		t.Fatalf("expected %d undos, got %d", DefaultMaxEntries, n)
	}
	if got := m.Current().Title; got != "v10" {
		t.Fatalf("oldest reachable state = %q, want v10", got)
	}
}

func TestMaxBytesKeepsNewest(t *testing.T) {
	m := newManager(t, Config{MaxBytes: 1})
	m.Apply("a", doc("v1"))
	m.Apply("b", doc("v2"))
	tb, past, _ := m.Stats()
	if past != 1 || tb == 0 {
		t.Fatalf("expected only the newest entry, got past=%d bytes=%d", past, tb)
	}
	if !m.Undo() || m.Current().Title != "v1" {
		t.Fatalf("newest entry should remain undoable")
	}
}

func TestUpdateErrorLeavesHistory(t *testing.T) {
	m := newManager(t, Config{})
	boom := fmt.Errorf("boom")
	if _, err := m.Update("x", func(domain.Document) (domain.Document, error) { return domain.Document{}, boom }); err != boom {
		t.Fatalf("expected fn error, got %v", err)
	}
	if m.CanUndo() || m.Current().Title != "v0" {
		t.Fatalf("failed update must not touch history")
	}
	ok, err := m.Update("rename", func(d domain.Document) (domain.Document, error) {
		d.Title = "renamed"
		return d, nil
	})
	if !ok || err != nil || m.Current().Title != "renamed" {
		t.Fatalf("update: ok=%v err=%v title=%q", ok, err, m.Current().Title)
	}
}

func TestCurrentIsPrivateCopy(t *testing.T) {
	m := newManager(t, Config{})
	d := m.Current()
	d.Title = "mutated"
	if m.Current().Title != "v0" {
		t.Fatalf("mutating the returned document changed the history")
	}
}

func TestBatchCollapsesToOneEntry(t *testing.T) {
	m := newManager(t, Config{})
	m.BeginBatch("paste 3")
	for i := 1; i <= 3; i++ {
		m.Apply("paste", doc(fmt.Sprintf("v%d", i)))
	}
	if m.CanUndo() || m.Undo() {
		t.Fatalf("undo must be unavailable while a batch is open")
	}
	if !m.EndBatch() {
		t.Fatalf("EndBatch should record an entry")
	}
	if _, past, _ := m.Stats(); past != 1 || m.UndoLabel() != "paste 3" {
		t.Fatalf("expected one entry labelled %q, got %d %q", "paste 3", past, m.UndoLabel())
	}
	m.Undo()
	if m.Current().Title != "v0" {
		t.Fatalf("undo of batch should restore v0, got %q", m.Current().Title)
	}
}

func TestNestedAndEmptyBatch(t *testing.T) {
	m := newManager(t, Config{})
	m.BeginBatch("outer")
	m.BeginBatch("inner")
	m.Apply("x", doc("v1"))
	if m.EndBatch() {
		t.Fatalf("inner EndBatch must not record")
	}
	if !m.EndBatch() || m.UndoLabel() != "outer" {
		t.Fatalf("outer EndBatch should record under the outer label")
	}
	m.BeginBatch("empty")
	if m.EndBatch() {
		t.Fatalf("a batch without changes records nothing")
	}
}

func TestCancelBatchRestores(t *testing.T) {
	m := newManager(t, Config{})
	m.Apply("a", doc("v1"))
	m.Undo()
	m.BeginBatch("b")
	m.Apply("x", doc("v9"))
	m.CancelBatch()
	if m.Current().Title != "v0" {
		t.Fatalf("cancel should restore the base, got %q", m.Current().Title)
	}
	if !m.CanRedo() {
		t.Fatalf("a cancelled batch must not clear the future")
	}
}

func TestSubscribeAndReset(t *testing.T) {
	m := newManager(t, Config{})
	var seen []string
	unsub := m.Subscribe(func(d domain.Document) { seen = append(seen, d.Title) })
	m.Apply("a", doc("v1"))
	m.Undo()
	if err := m.Reset(doc("fresh")); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	unsub()
	m.Apply("b", doc("v2"))
	want := []string{"v1", "v0", "fresh"}
	if fmt.Sprint(seen) != fmt.Sprint(want) {
		t.Fatalf("notifications = %v, want %v", seen, want)
	}
	if _, past, future := m.Stats(); past != 1 || future != 0 {
		t.Fatalf("reset should drop history: past=%d future=%d", past, future)
	}
}
