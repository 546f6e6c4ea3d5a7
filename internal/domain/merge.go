/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"fmt"
)

// Parse reads a document coming from outside the process (file, project store,
// share link). Fields missing from older payloads are filled from the built-in
// defaults before the skeleton is validated, so schema drift is tolerated while
// unknown type or width tags are still rejected. Missing ids stay empty; callers
// repair them with the editor before use.
func Parse(raw []byte) (Document, error) {
	var in map[string]any
	if err := json.Unmarshal(raw, &in); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if in == nil {
		return Document{}, fmt.Errorf("%w: payload is not an object", ErrInvalidDocument)
	}
	merged, err := json.Marshal(MergeWithDefaults(in))
	if err != nil {
		return Document{}, fmt.Errorf("encode merged document: %w", err)
	}
	if err := Validate(merged); err != nil {
		return Document{}, err
	}
	return Decode(merged)
}

// MergeWithDefaults fills missing document, cover, page and block fields
// from the defaults. Values present in the input always win. The input map and
// the slices it holds are left untouched.
func MergeWithDefaults(in map[string]any) map[string]any {
	out := mergeMaps(documentDefaults(), in)
	if cv, ok := out["cover"].(map[string]any); ok {
		out["cover"] = mergeMaps(mustMap(DefaultCover()), cv)
	}
	if pages, ok := out["pages"].([]any); ok {
		filled := make([]any, len(pages))
		for i, pv := range pages {
			filled[i] = pv
			pm, ok := pv.(map[string]any)
			if !ok {
				continue
			}
			page := mergeMaps(pageDefaults(), pm)
			if blocks, ok := page["blocks"].([]any); ok {
				merged := make([]any, len(blocks))
				for j, bv := range blocks {
					merged[j] = bv
					if bm, ok := bv.(map[string]any); ok {
						merged[j] = mergeMaps(blockDefaults(), bm)
					}
				}
				page["blocks"] = merged
			}
			filled[i] = page
		}
		out["pages"] = filled
	}
	return out
}

func documentDefaults() map[string]any {
	m := mustMap(Document{
		Title:        DefaultDocumentTitle,
		LayoutFormat: LayoutReport,
		DesignSystem: DesignStandard,
		Pages:        []Page{},
	})
	return m
}

func pageDefaults() map[string]any {
	return mustMap(DefaultPage(""))
}

func blockDefaults() map[string]any {
	return map[string]any{
		"id":     "",
		"width":  string(WidthFull),
		"title":  "",
		"config": map[string]any{},
	}
}

// mergeMaps overlays src onto a copy of def. Nested objects merge recursively;
// an explicit null never replaces a default collection.
func mergeMaps(def, src map[string]any) map[string]any {
	out := make(map[string]any, len(def)+len(src))
	for k, v := range def {
		out[k] = v
	}
	for k, v := range src {
		d, has := out[k]
		if v == nil && has {
			switch d.(type) {
			case []any, map[string]any:
				continue
			}
		}
		dm, dOK := d.(map[string]any)
		sm, sOK := v.(map[string]any)
		if dOK && sOK && k != "config" {
			out[k] = mergeMaps(dm, sm)
			continue
		}
		out[k] = v
	}
	return out
}

func mustMap(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("domain: defaults not serializable: %v", err))
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		panic(fmt.Sprintf("domain: defaults not an object: %v", err))
	}
	return m
}
