/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package calsync keeps linked calendar blocks consistent.
//
// Calendar blocks sharing the same non-null sync key form a group. There is no
// leader: whichever member is edited pushes the shared fields to every other
// member, last write wins. Propagation is one-shot per edit; members that were
// already out of sync are not reconciled retroactively, and leaving or deleting
// a member never notifies the others.
package calsync

import (
	"reportbuilder/internal/domain"
)

// SharedFields is the allow-list of config keys mirrored across a group.
var SharedFields = []string{domain.KeyDayProjects, domain.KeyPriorityLabels}

// BlockRef addresses a block inside a document.
type BlockRef struct {
	PageIndex  int
	BlockIndex int
	BlockID    string
}

// Group returns every calendar block linked under key, in document order.
func Group(doc domain.Document, key string) []BlockRef {
	if key == "" {
		return nil
	}
	var out []BlockRef
	for pi, p := range doc.Pages {
		for bi, b := range p.Blocks {
			if b.Type != domain.BlockCalendar {
				continue
			}
			if k, ok := b.Config.SyncKey(); ok && k == key {
				out = append(out, BlockRef{PageIndex: pi, BlockIndex: bi, BlockID: b.ID})
			}
		}
	}
	return out
}

// Propagate copies the shared fields of the source block, as they stand after
// its update, onto every other calendar block linked under key. The document
// is modified in place, so callers must pass a working copy they own. It
// returns the number of peers written; zero peers is not an error.
func Propagate(doc *domain.Document, sourceID, key string) (int, error) {
	if doc == nil || key == "" {
		return 0, nil
	}
	group := Group(*doc, key)
	var src *domain.Block
	for _, ref := range group {
		if ref.BlockID == sourceID {
			src = &doc.Pages[ref.PageIndex].Blocks[ref.BlockIndex]
			break
		}
	}
	if src == nil {
		return 0, nil
	}
	shared := make(domain.Config, len(SharedFields))
	for _, f := range SharedFields {
		if v, ok := src.Config[f]; ok {
			shared[f] = v
		}
	}
	if len(shared) == 0 {
		return 0, nil
	}
	n := 0
	for _, ref := range group {
		if ref.BlockID == sourceID {
			continue
		}
		blk := &doc.Pages[ref.PageIndex].Blocks[ref.BlockIndex]
		patch := make(domain.Config, len(shared))
		for f, v := range shared {
			cp, err := domain.CloneValue(v)
			if err != nil {
				return n, err
			}
			patch[f] = cp
		}
		blk.Config = blk.Config.Merge(patch)
		n++
	}
	return n, nil
}
