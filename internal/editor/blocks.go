/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"fmt"

	"reportbuilder/internal/calsync"
	"reportbuilder/internal/domain"
)

// AddOptions tunes AddBlockAt. A nil Width uses the type's default width;
// an empty Variant keeps the type's default variant.
type AddOptions struct {
	Width        *domain.Width
	Variant      string
	Placeholders bool
}

// BlockPatch carries the block fields to overwrite. Config keys are merged one
// level deep into the existing config, so keys not named in the patch survive.
type BlockPatch struct {
	Type   *domain.BlockType
	Width  *domain.Width
	Title  *string
	Config domain.Config
}

// AddBlockAt builds a block with the type's default config and inserts it at atIndex.
func (e *Editor) AddBlockAt(doc domain.Document, pageIndex int, t domain.BlockType, atIndex int, opts AddOptions) (domain.Document, string, error) {
	if err := checkPage(doc, pageIndex); err != nil {
		return doc, "", err
	}
	b, err := e.NewBlock(t, opts)
	if err != nil {
		return doc, "", err
	}
	next, err := working(doc)
	if err != nil {
		return doc, "", err
	}
	p := &next.Pages[pageIndex]
	p.Blocks = insertBlock(p.Blocks, atIndex, b)
	return next, b.ID, nil
}

// NewBlock builds a detached block with defaults for t.
func (e *Editor) NewBlock(t domain.BlockType, opts AddOptions) (domain.Block, error) {
	if !t.Valid() {
		return domain.Block{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	w := DefaultWidth(t)
	if opts.Width != nil {
		if !opts.Width.Valid() {
			return domain.Block{}, fmt.Errorf("%w: %q", ErrUnknownWidth, *opts.Width)
		}
		w = *opts.Width
	}
	cfg, err := e.DefaultConfig(t, opts.Placeholders)
	if err != nil {
		return domain.Block{}, err
	}
	if opts.Variant != "" {
		if key := VariantKey(t); key != "" {
			cfg[key] = opts.Variant
		}
	}
	return domain.Block{
		ID:     e.ids("block"),
		Type:   t,
		Width:  w,
		Title:  DefaultTitle(t),
		Config: cfg,
	}, nil
}

// UpdateBlock merges patch into the block with the given id on the given page.
// When the result is a linked calendar, its shared fields after the merge are
// pushed to every other member of its group in the same step.
func (e *Editor) UpdateBlock(doc domain.Document, pageIndex int, blockID string, patch BlockPatch) (domain.Document, error) {
	if err := checkPage(doc, pageIndex); err != nil {
		return doc, err
	}
	bi := doc.Pages[pageIndex].BlockIndexOf(blockID)
	if bi < 0 {
		return doc, fmt.Errorf("%w: %q on page %d", ErrBlockNotFound, blockID, pageIndex)
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return doc, fmt.Errorf("%w: %q", ErrUnknownType, *patch.Type)
	}
	if patch.Width != nil && !patch.Width.Valid() {
		return doc, fmt.Errorf("%w: %q", ErrUnknownWidth, *patch.Width)
	}
	applied, err := cloneConfig(patch.Config)
	if err != nil {
		return doc, err
	}
	next, err := working(doc)
	if err != nil {
		return doc, err
	}
	blk := &next.Pages[pageIndex].Blocks[bi]
	if patch.Type != nil {
		blk.Type = *patch.Type
	}
	if patch.Width != nil {
		blk.Width = *patch.Width
	}
	if patch.Title != nil {
		blk.Title = *patch.Title
	}
	if len(applied) > 0 {
		blk.Config = blk.Config.Merge(applied)
	}
	if blk.Type == domain.BlockCalendar {
		if key, ok := blk.Config.SyncKey(); ok {
			if _, err := calsync.Propagate(&next, blk.ID, key); err != nil {
				return doc, fmt.Errorf("%w: %v", ErrClone, err)
			}
		}
	}
	return next, nil
}

// RemoveBlock filters the block out of the page. An unknown id leaves the page as it is.
func (e *Editor) RemoveBlock(doc domain.Document, pageIndex int, blockID string) (domain.Document, error) {
	if err := checkPage(doc, pageIndex); err != nil {
		return doc, err
	}
	bi := doc.Pages[pageIndex].BlockIndexOf(blockID)
	if bi < 0 {
		return doc, nil
	}
	next, err := working(doc)
	if err != nil {
		return doc, err
	}
	p := &next.Pages[pageIndex]
	p.Blocks = append(p.Blocks[:bi], p.Blocks[bi+1:]...)
	return next, nil
}

// MoveBlock swaps the block with its neighbour on the same page; the ends are no-ops.
func (e *Editor) MoveBlock(doc domain.Document, pageIndex, index int, dir Direction) (domain.Document, error) {
	if err := checkBlock(doc, pageIndex, index); err != nil {
		return doc, err
	}
	target := index + int(dir)
	if target < 0 || target >= len(doc.Pages[pageIndex].Blocks) || target == index {
		return doc, nil
	}
	next, err := working(doc)
	if err != nil {
		return doc, err
	}
	bl := next.Pages[pageIndex].Blocks
	bl[index], bl[target] = bl[target], bl[index]
	return next, nil
}

// DuplicateBlock copies the block with fresh ids. The copy lands right after
// the source, or at the front of the next page when moveToNextPage is set
// (a new page is appended when the source page is the last one). Whether the
// source page overflows is decided by the caller.
func (e *Editor) DuplicateBlock(doc domain.Document, pageIndex, index int, moveToNextPage bool) (domain.Document, string, error) {
	if err := checkBlock(doc, pageIndex, index); err != nil {
		return doc, "", err
	}
	next, err := working(doc)
	if err != nil {
		return doc, "", err
	}
	cp, err := domain.CloneBlock(next.Pages[pageIndex].Blocks[index])
	if err != nil {
		return doc, "", fmt.Errorf("%w: %v", ErrClone, err)
	}
	e.refreshBlockIDs(&cp)
	if !moveToNextPage {
		p := &next.Pages[pageIndex]
		p.Blocks = insertBlock(p.Blocks, index+1, cp)
		return next, cp.ID, nil
	}
	if pageIndex+1 >= len(next.Pages) {
		next.Pages = append(next.Pages, domain.DefaultPage(e.ids("page")))
	}
	p := &next.Pages[pageIndex+1]
	p.Blocks = insertBlock(p.Blocks, 0, cp)
	return next, cp.ID, nil
}

// PasteBlockAt inserts a copy of an externally supplied block (the clipboard).
// The copy gets fresh ids throughout and its sync key is cleared, so a pasted
// calendar never silently joins its source's group. A payload that cannot be
// deep-copied is rejected with ErrClone.
func (e *Editor) PasteBlockAt(doc domain.Document, pageIndex, index int, payload domain.Block) (domain.Document, string, error) {
	if err := checkPage(doc, pageIndex); err != nil {
		return doc, "", err
	}
	cp, err := domain.CloneBlock(payload)
	if err != nil {
		return doc, "", fmt.Errorf("%w: %v", ErrClone, err)
	}
	if !cp.Type.Valid() {
		return doc, "", fmt.Errorf("%w: %q", ErrUnknownType, cp.Type)
	}
	if cp.Width == "" {
		cp.Width = DefaultWidth(cp.Type)
	}
	if !cp.Width.Valid() {
		return doc, "", fmt.Errorf("%w: %q", ErrUnknownWidth, cp.Width)
	}
	e.refreshBlockIDs(&cp)
	if _, linked := cp.Config[domain.KeySyncKey]; linked {
		cp.Config[domain.KeySyncKey] = nil
	}
	next, err := working(doc)
	if err != nil {
		return doc, "", err
	}
	p := &next.Pages[pageIndex]
	p.Blocks = insertBlock(p.Blocks, index, cp)
	return next, cp.ID, nil
}

func checkBlock(doc domain.Document, pageIndex, index int) error {
	if err := checkPage(doc, pageIndex); err != nil {
		return err
	}
	if n := len(doc.Pages[pageIndex].Blocks); index < 0 || index >= n {
		return fmt.Errorf("%w: index %d of %d on page %d", ErrBlockNotFound, index, n, pageIndex)
	}
	return nil
}

func cloneConfig(c domain.Config) (domain.Config, error) {
	if len(c) == 0 {
		return nil, nil
	}
	out := make(domain.Config, len(c))
	for k, v := range c {
		cp, err := domain.CloneValue(v)
		if err != nil {
			return nil, fmt.Errorf("%w: config key %q: %v", ErrClone, k, err)
		}
		out[k] = cp
	}
	return out, nil
}
