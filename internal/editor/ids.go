/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"reportbuilder/internal/domain"
)

// refreshBlockIDs gives the block and every nested sub-item of its config
// (table rows, list items, kanban columns and cards, ...) a fresh id.
// The block must be a private copy; its config is rewritten in place.
func (e *Editor) refreshBlockIDs(b *domain.Block) {
	b.ID = e.ids("block")
	if b.Config == nil {
		b.Config = domain.Config{}
	}
	for k, v := range b.Config {
		b.Config[k] = e.refreshNested(v)
	}
}

func (e *Editor) refreshNested(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, c := range t {
			if k == domain.KeyID {
				t[k] = e.ids("item")
				continue
			}
			t[k] = e.refreshNested(c)
		}
		return t
	case []any:
		for i := range t {
			t[i] = e.refreshNested(t[i])
		}
		return t
	default:
		return v
	}
}

// EnsureIDs repairs empty or duplicated page and block ids, typically after
// importing a document written by an older version. It returns the number of
// ids it had to replace.
func (e *Editor) EnsureIDs(doc domain.Document) (domain.Document, int, error) {
	next, err := working(doc)
	if err != nil {
		return doc, 0, err
	}
	seen := make(map[string]struct{})
	fixed := 0
	claim := func(id *string, prefix string) {
		if _, dup := seen[*id]; *id == "" || dup {
			*id = e.ids(prefix)
			fixed++
		}
		seen[*id] = struct{}{}
	}
	for pi := range next.Pages {
		claim(&next.Pages[pi].ID, "page")
		for bi := range next.Pages[pi].Blocks {
			claim(&next.Pages[pi].Blocks[bi].ID, "block")
		}
	}
	return next, fixed, nil
}

// CollectIDs returns every page, block and nested sub-item id in document order.
func CollectIDs(doc domain.Document) []string {
	var out []string
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case map[string]any:
			if id, ok := t[domain.KeyID].(string); ok {
				out = append(out, id)
			}
			for k, c := range t {
				if k != domain.KeyID {
					walk(c)
				}
			}
		case []any:
			for _, c := range t {
				walk(c)
			}
		}
	}
	for _, p := range doc.Pages {
		out = append(out, p.ID)
		for _, b := range p.Blocks {
			out = append(out, b.ID)
			for _, v := range b.Config {
				walk(v)
			}
		}
	}
	return out
}
