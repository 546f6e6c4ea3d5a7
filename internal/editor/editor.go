/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor implements the structural operations on a document.
//
// Every operation is a pure function of (document, arguments): it works on a
// deep copy and returns the next document, never touching its input. Errors
// leave nothing half applied because the caller simply keeps the old document.
// Only the history manager decides whether a result becomes current.
package editor

import (
	"errors"
	"fmt"

	"reportbuilder/internal/domain"
	"reportbuilder/internal/idgen"
)

var (
	ErrPageNotFound  = errors.New("page not found")
	ErrBlockNotFound = errors.New("block not found")
	ErrUnknownType   = errors.New("unknown block type")
	ErrUnknownWidth  = errors.New("unknown block width")
	ErrClone         = errors.New("clone failed")
)

// Direction moves an item one slot towards the start or the end of its list.
type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

// Editor carries the identifier allocator used by operations that create entities.
type Editor struct {
	ids idgen.Generator
}

// New returns an Editor allocating ids with gen (the default strategy if nil).
func New(gen idgen.Generator) *Editor {
	if gen == nil {
		gen = idgen.Generate
	}
	return &Editor{ids: gen}
}

// NewID exposes the allocator so callers building defaults share it.
func (e *Editor) NewID(prefix string) string { return e.ids(prefix) }

// working returns a private deep copy of doc for an operation to modify.
func working(doc domain.Document) (domain.Document, error) {
	cp, err := domain.Clone(doc)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", ErrClone, err)
	}
	return cp, nil
}

func checkPage(doc domain.Document, pageIndex int) error {
	if pageIndex < 0 || pageIndex >= len(doc.Pages) {
		return fmt.Errorf("%w: index %d of %d", ErrPageNotFound, pageIndex, len(doc.Pages))
	}
	return nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func insertBlock(list []domain.Block, at int, b domain.Block) []domain.Block {
	at = clampIndex(at, len(list))
	out := make([]domain.Block, 0, len(list)+1)
	out = append(out, list[:at]...)
	out = append(out, b)
	return append(out, list[at:]...)
}

func insertPage(list []domain.Page, at int, p domain.Page) []domain.Page {
	at = clampIndex(at, len(list))
	out := make([]domain.Page, 0, len(list)+1)
	out = append(out, list[:at]...)
	out = append(out, p)
	return append(out, list[at:]...)
}
