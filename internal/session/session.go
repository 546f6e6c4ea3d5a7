/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session is the single entry point through which a presentation
// layer changes a document. Every call runs one structural operation and
// hands its result to the history manager, which alone decides whether the
// document changes and whether an undo entry is recorded.
//
// A Session has one logical owner; methods are synchronous.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"reportbuilder/internal/domain"
	"reportbuilder/internal/editor"
	"reportbuilder/internal/idgen"
	"reportbuilder/internal/layout"
	applog "reportbuilder/internal/log"
	"reportbuilder/internal/undo"
)

// ErrReadOnly is returned by every mutation of a read-only session
// (for example one opened from a read-only share link).
var ErrReadOnly = errors.New("session is read-only")

// Options configures a Session. Zero values select the defaults.
type Options struct {
	HistoryLimit    int
	HistoryMaxBytes int
	IDs             idgen.Generator
	ReadOnly        bool
	Logger          *slog.Logger
}

type Session struct {
	ed        *editor.Editor
	hist      *undo.Manager
	log       *slog.Logger
	readOnly  bool
	clipboard []domain.Block
}

// New starts a session on the built-in default document.
func New(opts Options) (*Session, error) {
	ed := editor.New(opts.IDs)
	return start(ed, domain.DefaultDocument(ed.NewID), opts)
}

// Open starts a session on doc, repairing missing or duplicated ids first.
// The history starts empty.
func Open(doc domain.Document, opts Options) (*Session, error) {
	ed := editor.New(opts.IDs)
	fixed, n, err := ed.EnsureIDs(doc)
	if err != nil {
		return nil, err
	}
	s, err := start(ed, fixed, opts)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		s.log.Info("repaired ids on open", slog.Int("count", n))
	}
	return s, nil
}

func start(ed *editor.Editor, doc domain.Document, opts Options) (*Session, error) {
	hist, err := undo.NewManager(doc, undo.Config{MaxEntries: opts.HistoryLimit, MaxBytes: opts.HistoryMaxBytes})
	if err != nil {
		return nil, err
	}
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("session")
	}
	return &Session{ed: ed, hist: hist, log: l, readOnly: opts.ReadOnly}, nil
}

// Document returns a private copy of the current document.
func (s *Session) Document() domain.Document { return s.hist.Current() }

// Subscribe registers fn to be called after every change of the current document.
func (s *Session) Subscribe(fn func(domain.Document)) (unsubscribe func()) {
	return s.hist.Subscribe(fn)
}

func (s *Session) ReadOnly() bool { return s.readOnly }

// SetReadOnly toggles the read-only flag, e.g. after the user chose to edit a shared copy.
func (s *Session) SetReadOnly(ro bool) { s.readOnly = ro }

func (s *Session) Undo() bool {
	if s.readOnly {
		return false
	}
	ok := s.hist.Undo()
	if ok {
		s.log.Debug("undo", slog.String("redo", s.hist.RedoLabel()))
	}
	return ok
}

func (s *Session) Redo() bool {
	if s.readOnly {
		return false
	}
	ok := s.hist.Redo()
	if ok {
		s.log.Debug("redo", slog.String("undo", s.hist.UndoLabel()))
	}
	return ok
}

func (s *Session) CanUndo() bool { return !s.readOnly && s.hist.CanUndo() }
func (s *Session) CanRedo() bool { return !s.readOnly && s.hist.CanRedo() }

// HistoryLabels names the edits Undo and Redo would act on.
func (s *Session) HistoryLabels() (undoLabel, redoLabel string) {
	return s.hist.UndoLabel(), s.hist.RedoLabel()
}

// HistoryStats reports the history size for diagnostics.
func (s *Session) HistoryStats() (totalBytes, past, future int) { return s.hist.Stats() }

// apply runs fn against the current document through the history manager.
func (s *Session) apply(op string, fn func(domain.Document) (domain.Document, error)) error {
	if s.readOnly {
		return ErrReadOnly
	}
	l := applog.WithOperation(s.log, op)
	var title string
	blocks := 0
	changed, err := s.hist.Update(op, func(d domain.Document) (domain.Document, error) {
		title = d.Title
		next, err := fn(d)
		if err == nil {
			title, blocks = next.Title, next.BlockCount()
		}
		return next, err
	})
	ctx := applog.ContextWithDocument(context.Background(), title)
	if err != nil {
		l.WarnContext(ctx, "operation failed", slog.Any("err", err))
		return err
	}
	if changed {
		l.DebugContext(ctx, "committed", slog.Int("blocks", blocks))
	} else {
		l.DebugContext(ctx, "no change")
	}
	return nil
}

// NewProject replaces the document with a fresh default one. Undoable.
func (s *Session) NewProject() error {
	return s.apply("new_project", func(domain.Document) (domain.Document, error) {
		return domain.DefaultDocument(s.ed.NewID), nil
	})
}

// Import replaces the document wholesale with doc after repairing its ids.
// Undoable. It returns the number of repaired ids.
func (s *Session) Import(doc domain.Document) (int, error) {
	var repaired int
	err := s.apply("import", func(domain.Document) (domain.Document, error) {
		fixed, n, err := s.ed.EnsureIDs(doc)
		repaired = n
		return fixed, err
	})
	return repaired, err
}

// Reset replaces the document and drops the history, as when a stored project is opened.
func (s *Session) Reset(doc domain.Document) error {
	fixed, _, err := s.ed.EnsureIDs(doc)
	if err != nil {
		return err
	}
	s.clipboard = nil
	return s.hist.Reset(fixed)
}

func (s *Session) UpdateDocument(patch editor.DocumentPatch) error {
	return s.apply("update_document", func(d domain.Document) (domain.Document, error) {
		return s.ed.UpdateDocument(d, patch)
	})
}

// Pages

func (s *Session) CreatePage() (string, error) {
	var id string
	err := s.apply("create_page", func(d domain.Document) (next domain.Document, err error) {
		next, id, err = s.ed.CreatePage(d)
		return next, err
	})
	return id, err
}

func (s *Session) DuplicatePage(index int) (string, error) {
	var id string
	err := s.apply("duplicate_page", func(d domain.Document) (next domain.Document, err error) {
		next, id, err = s.ed.DuplicatePage(d, index)
		return next, err
	})
	return id, err
}

func (s *Session) MovePage(index int, dir editor.Direction) error {
	return s.apply("move_page", func(d domain.Document) (domain.Document, error) {
		return s.ed.MovePage(d, index, dir)
	})
}

func (s *Session) UpdatePage(index int, patch editor.PagePatch) error {
	return s.apply("update_page", func(d domain.Document) (domain.Document, error) {
		return s.ed.UpdatePage(d, index, patch)
	})
}

func (s *Session) RemovePage(index int) error {
	return s.apply("remove_page", func(d domain.Document) (domain.Document, error) {
		return s.ed.RemovePage(d, index)
	})
}

// Blocks

func (s *Session) AddBlockAt(pageIndex int, t domain.BlockType, atIndex int, opts editor.AddOptions) (string, error) {
	var id string
	err := s.apply("add_block", func(d domain.Document) (next domain.Document, err error) {
		next, id, err = s.ed.AddBlockAt(d, pageIndex, t, atIndex, opts)
		return next, err
	})
	return id, err
}

// AddBlockBelow inserts a new block at the start of the row after the one
// holding the anchor block, so no existing row is split.
func (s *Session) AddBlockBelow(pageIndex int, t domain.BlockType, anchor int, opts editor.AddOptions) (string, error) {
	at, err := s.InsertionIndex(pageIndex, anchor)
	if err != nil {
		return "", err
	}
	return s.AddBlockAt(pageIndex, t, at, opts)
}

// AddBlockBeside inserts a new block right after the anchor with the width
// that completes the anchor's two-slot row. A FULL anchor has no room beside
// it; the block then lands below with its requested or default width.
func (s *Session) AddBlockBeside(pageIndex int, t domain.BlockType, anchor int, opts editor.AddOptions) (string, error) {
	doc := s.hist.Current()
	if pageIndex < 0 || pageIndex >= len(doc.Pages) {
		return "", fmt.Errorf("%w: index %d", editor.ErrPageNotFound, pageIndex)
	}
	blocks := doc.Pages[pageIndex].Blocks
	if anchor < 0 || anchor >= len(blocks) {
		return "", fmt.Errorf("%w: index %d on page %d", editor.ErrBlockNotFound, anchor, pageIndex)
	}
	w, ok := layout.ComplementaryWidth(blocks[anchor].Width)
	if !ok {
		return s.AddBlockAt(pageIndex, t, layout.InsertionIndex(blocks, anchor), opts)
	}
	opts.Width = &w
	return s.AddBlockAt(pageIndex, t, anchor+1, opts)
}

func (s *Session) UpdateBlock(pageIndex int, blockID string, patch editor.BlockPatch) error {
	return s.apply("update_block", func(d domain.Document) (domain.Document, error) {
		return s.ed.UpdateBlock(d, pageIndex, blockID, patch)
	})
}

func (s *Session) RemoveBlock(pageIndex int, blockID string) error {
	return s.apply("remove_block", func(d domain.Document) (domain.Document, error) {
		return s.ed.RemoveBlock(d, pageIndex, blockID)
	})
}

func (s *Session) MoveBlock(pageIndex, index int, dir editor.Direction) error {
	return s.apply("move_block", func(d domain.Document) (domain.Document, error) {
		return s.ed.MoveBlock(d, pageIndex, index, dir)
	})
}

func (s *Session) DuplicateBlock(pageIndex, index int, moveToNextPage bool) (string, error) {
	var id string
	err := s.apply("duplicate_block", func(d domain.Document) (next domain.Document, err error) {
		next, id, err = s.ed.DuplicateBlock(d, pageIndex, index, moveToNextPage)
		return next, err
	})
	return id, err
}

func (s *Session) PasteBlockAt(pageIndex, index int, payload domain.Block) (string, error) {
	var id string
	err := s.apply("paste_block", func(d domain.Document) (next domain.Document, err error) {
		next, id, err = s.ed.PasteBlockAt(d, pageIndex, index, payload)
		return next, err
	})
	return id, err
}

// Layout queries

// RowBoundaries returns, for every block of the page, the index right after its row.
func (s *Session) RowBoundaries(pageIndex int) ([]int, error) {
	doc := s.hist.Current()
	if pageIndex < 0 || pageIndex >= len(doc.Pages) {
		return nil, fmt.Errorf("%w: index %d", editor.ErrPageNotFound, pageIndex)
	}
	return layout.RowBoundaries(doc.Pages[pageIndex].Blocks), nil
}

// InsertionIndex is the landing index for a block inserted below the block at below.
func (s *Session) InsertionIndex(pageIndex, below int) (int, error) {
	doc := s.hist.Current()
	if pageIndex < 0 || pageIndex >= len(doc.Pages) {
		return 0, fmt.Errorf("%w: index %d", editor.ErrPageNotFound, pageIndex)
	}
	return layout.InsertionIndex(doc.Pages[pageIndex].Blocks, below), nil
}
