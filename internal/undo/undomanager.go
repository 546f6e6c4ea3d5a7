/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package undo keeps the edit history of a document: a bounded past stack,
// a future stack and the current state. Every state is held as a canonical
// JSON snapshot so that "did anything change" is a byte comparison.
package undo

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"reportbuilder/internal/domain"
)

// DefaultMaxEntries is the past-stack capacity used when Config leaves it unset.
const DefaultMaxEntries = 50

// Snapshot represents a document state captured before (or after) an edit.
// Blob holds the canonical JSON of the document; size is estimated as len(Blob).
// Label names the edit that moved away from this state.
type Snapshot struct {
	Label string
	Blob  []byte
	TS    time.Time
}

// Config controls depth and memory caps.
type Config struct {
	// MaxEntries limits the past stack; the oldest entry is evicted beyond it.
	MaxEntries int
	// MaxBytes is a soft cap on the past stack (0 means unlimited). The newest
	// entry is always kept.
	MaxBytes int
}

// Listener is called after the current document changed. The document passed
// in is a private copy.
type Listener func(doc domain.Document)

type batch struct {
	label string
	base  []byte
	depth int
}

// Manager provides an in-memory undo/redo history with performance safeguards.
// It is safe for concurrent use, although edits are expected to come from a
// single owner.
type Manager struct {
	cfg Config
	mu  sync.Mutex

	current []byte
	past    []Snapshot
	future  []Snapshot // last element is the next redo
	// accounting of past
	totalBytes int

	batch     *batch
	listeners map[int]Listener
	nextSub   int
}

// NewManager starts a history whose current state is initial.
func NewManager(initial domain.Document, cfg Config) (*Manager, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	blob, err := domain.Canonical(initial)
	if err != nil {
		return nil, fmt.Errorf("snapshot initial document: %w", err)
	}
	return &Manager{cfg: cfg, current: blob, listeners: make(map[int]Listener)}, nil
}

// Current returns a private copy of the current document.
func (m *Manager) Current() domain.Document {
	m.mu.Lock()
	blob := m.current
	m.mu.Unlock()
	doc, err := domain.Decode(blob)
	if err != nil {
		// blobs are produced by domain.Canonical and always decode
		panic(fmt.Sprintf("undo: corrupt snapshot: %v", err))
	}
	return doc
}

// Apply makes next the current document. A candidate canonically equal to the
// current document is a complete no-op: no history entry, no notification,
// and Apply reports false. Otherwise the previous state is pushed on the past
// stack and the future stack is cleared.
func (m *Manager) Apply(label string, next domain.Document) (bool, error) {
	blob, err := domain.Canonical(next)
	if err != nil {
		return false, fmt.Errorf("snapshot %q: %w", label, err)
	}
	m.mu.Lock()
	if bytes.Equal(blob, m.current) {
		m.mu.Unlock()
		return false, nil
	}
	if m.batch == nil {
		m.pushPastLocked(Snapshot{Label: label, Blob: m.current, TS: time.Now()})
		m.future = nil
	}
	m.current = blob
	m.mu.Unlock()
	m.notify()
	return true, nil
}

// Update runs fn on a copy of the current document and applies its result.
// An error from fn leaves the history untouched.
func (m *Manager) Update(label string, fn func(domain.Document) (domain.Document, error)) (bool, error) {
	next, err := fn(m.Current())
	if err != nil {
		return false, err
	}
	return m.Apply(label, next)
}

// Undo restores the most recent past state. It reports false when there is
// nothing to undo or a batch is open.
func (m *Manager) Undo() bool {
	m.mu.Lock()
	if m.batch != nil || len(m.past) == 0 {
		m.mu.Unlock()
		return false
	}
	s := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	m.totalBytes -= len(s.Blob)
	m.future = append(m.future, Snapshot{Label: s.Label, Blob: m.current, TS: time.Now()})
	m.current = s.Blob
	m.mu.Unlock()
	m.notify()
	return true
}

// Redo re-applies the most recently undone state.
func (m *Manager) Redo() bool {
	m.mu.Lock()
	if m.batch != nil || len(m.future) == 0 {
		m.mu.Unlock()
		return false
	}
	s := m.future[len(m.future)-1]
	m.future = m.future[:len(m.future)-1]
	m.pushPastLocked(Snapshot{Label: s.Label, Blob: m.current, TS: time.Now()})
	m.current = s.Blob
	m.mu.Unlock()
	m.notify()
	return true
}

// CanUndo reports whether Undo would do anything.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batch == nil && len(m.past) > 0
}

// CanRedo reports whether Redo would do anything.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batch == nil && len(m.future) > 0
}

// UndoLabel names the edit Undo would revert, or "" when there is none.
func (m *Manager) UndoLabel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.past) == 0 {
		return ""
	}
	return m.past[len(m.past)-1].Label
}

// RedoLabel names the edit Redo would re-apply, or "".
func (m *Manager) RedoLabel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.future) == 0 {
		return ""
	}
	return m.future[len(m.future)-1].Label
}

// Reset replaces the current document and drops all history. Used when a
// session starts from a loaded project.
func (m *Manager) Reset(doc domain.Document) error {
	blob, err := domain.Canonical(doc)
	if err != nil {
		return fmt.Errorf("snapshot reset document: %w", err)
	}
	m.mu.Lock()
	m.current = blob
	m.past, m.future = nil, nil
	m.totalBytes = 0
	m.batch = nil
	m.mu.Unlock()
	m.notify()
	return nil
}

// BeginBatch opens a group: every Apply until the matching EndBatch collapses
// into a single history entry. Batches nest; only the outermost label counts.
func (m *Manager) BeginBatch(label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.batch != nil {
		m.batch.depth++
		return
	}
	m.batch = &batch{label: label, base: m.current, depth: 1}
}

// EndBatch closes the innermost group. When the outermost group closes and
// the document differs from where the batch began, one entry is recorded.
// It reports whether an entry was recorded.
func (m *Manager) EndBatch() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.batch == nil {
		return false
	}
	m.batch.depth--
	if m.batch.depth > 0 {
		return false
	}
	b := m.batch
	m.batch = nil
	if bytes.Equal(b.base, m.current) {
		return false
	}
	m.pushPastLocked(Snapshot{Label: b.label, Blob: b.base, TS: time.Now()})
	m.future = nil
	return true
}

// CancelBatch abandons the open group and restores the document it began with.
func (m *Manager) CancelBatch() {
	m.mu.Lock()
	if m.batch == nil {
		m.mu.Unlock()
		return
	}
	b := m.batch
	m.batch = nil
	changed := !bytes.Equal(b.base, m.current)
	m.current = b.base
	m.mu.Unlock()
	if changed {
		m.notify()
	}
}

// Subscribe registers fn for change notifications and returns a function that
// removes it.
func (m *Manager) Subscribe(fn Listener) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, pastEntries int, futureEntries int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalBytes, len(m.past), len(m.future)
}

func (m *Manager) notify() {
	m.mu.Lock()
	if len(m.listeners) == 0 {
		m.mu.Unlock()
		return
	}
	fns := make([]Listener, 0, len(m.listeners))
	for i := 0; i < m.nextSub; i++ {
		if fn, ok := m.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()
	doc := m.Current()
	for _, fn := range fns {
		fn(doc)
	}
}

func (m *Manager) pushPastLocked(s Snapshot) {
	m.past = append(m.past, s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked()
}

func (m *Manager) enforceCapsLocked() {
	drop := 0
	if n := len(m.past); n > m.cfg.MaxEntries {
		drop = n - m.cfg.MaxEntries
	}
	for i := 0; i < drop; i++ {
		m.totalBytes -= len(m.past[i].Blob)
	}
	// Global memory cap: prune oldest, keep the newest entry
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes && len(m.past)-drop > 1 {
		m.totalBytes -= len(m.past[drop].Blob)
		drop++
	}
	if drop > 0 {
		m.past = append([]Snapshot(nil), m.past[drop:]...)
	}
}
