/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"fmt"
	"log/slog"

	"reportbuilder/internal/domain"
	"reportbuilder/internal/editor"
	applog "reportbuilder/internal/log"
)

// batch runs fn as one undoable user action. If fn fails, every change it
// made is rolled back and the history is left as it was.
func (s *Session) batch(label string, fn func() error) error {
	if s.readOnly {
		return ErrReadOnly
	}
	l := applog.WithOperation(s.log, label)
	s.hist.BeginBatch(label)
	if err := fn(); err != nil {
		s.hist.CancelBatch()
		l.Warn("batch rolled back", slog.Any("err", err))
		return err
	}
	if s.hist.EndBatch() {
		l.Debug("batch committed")
	}
	return nil
}

// PasteBlocks pastes the payloads in order starting at index, as a single
// history entry. It returns the ids of the pasted copies.
func (s *Session) PasteBlocks(pageIndex, index int, payloads []domain.Block) ([]string, error) {
	var ids []string
	err := s.batch("paste_blocks", func() error {
		for i, p := range payloads {
			id, err := s.PasteBlockAt(pageIndex, index+i, p)
			if err != nil {
				return fmt.Errorf("paste %d of %d: %w", i+1, len(payloads), err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// RemoveBlocks deletes every listed block of the page as a single history entry.
func (s *Session) RemoveBlocks(pageIndex int, blockIDs []string) error {
	return s.batch("remove_blocks", func() error {
		for _, id := range blockIDs {
			if err := s.RemoveBlock(pageIndex, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// CopyBlocks puts private copies of the listed blocks on the session
// clipboard, in page order. Unknown ids are an error.
func (s *Session) CopyBlocks(pageIndex int, blockIDs []string) error {
	doc := s.hist.Current()
	if pageIndex < 0 || pageIndex >= len(doc.Pages) {
		return fmt.Errorf("%w: index %d", editor.ErrPageNotFound, pageIndex)
	}
	want := make(map[string]bool, len(blockIDs))
	for _, id := range blockIDs {
		if doc.Pages[pageIndex].BlockIndexOf(id) < 0 {
			return fmt.Errorf("%w: %q on page %d", editor.ErrBlockNotFound, id, pageIndex)
		}
		want[id] = true
	}
	var clip []domain.Block
	for _, b := range doc.Pages[pageIndex].Blocks {
		if want[b.ID] {
			clip = append(clip, b)
		}
	}
	s.clipboard = clip
	return nil
}

// Clipboard returns a copy of the blocks last copied. A block that cannot be
// copied fails the whole call rather than being left out.
func (s *Session) Clipboard() ([]domain.Block, error) {
	out := make([]domain.Block, 0, len(s.clipboard))
	for _, b := range s.clipboard {
		cp, err := domain.CloneBlock(b)
		if err != nil {
			return nil, fmt.Errorf("%w: clipboard block %q: %v", editor.ErrClone, b.ID, err)
		}
		out = append(out, cp)
	}
	return out, nil
}

// PasteClipboard pastes the clipboard at index as one history entry.
func (s *Session) PasteClipboard(pageIndex, index int) ([]string, error) {
	if len(s.clipboard) == 0 {
		return nil, nil
	}
	return s.PasteBlocks(pageIndex, index, s.clipboard)
}
