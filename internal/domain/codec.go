/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Canonical returns the canonical serialization of a document. Map keys are
// sorted by encoding/json and nil collections are written as empty ones, so two
// documents are equal exactly when their canonical bytes are equal.
func Canonical(d Document) ([]byte, error) {
	b, err := json.Marshal(normalized(d))
	if err != nil {
		return nil, fmt.Errorf("canonical document: %w", err)
	}
	return b, nil
}

// Equal compares two documents canonically. Unserializable documents are never equal.
func Equal(a, b Document) bool {
	ab, err := Canonical(a)
	if err != nil {
		return false
	}
	bb, err := Canonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// Decode parses a canonical snapshot produced by Canonical.
// Use Parse for payloads that come from outside the process.
func Decode(b []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	return normalized(d), nil
}

// Clone deep-copies a document through its canonical form.
func Clone(d Document) (Document, error) {
	b, err := Canonical(d)
	if err != nil {
		return Document{}, err
	}
	return Decode(b)
}

// CloneBlock deep-copies a block. A config holding values that cannot be
// serialized (functions, channels, NaN) is reported as an error.
func CloneBlock(b Block) (Block, error) {
	if b.Config == nil {
		b.Config = Config{}
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return Block{}, fmt.Errorf("clone block %q: %w", b.ID, err)
	}
	var out Block
	if err := json.Unmarshal(raw, &out); err != nil {
		return Block{}, fmt.Errorf("clone block %q: %w", b.ID, err)
	}
	if out.Config == nil {
		out.Config = Config{}
	}
	return out, nil
}

// CloneValue deep-copies a single JSON-compatible value.
func CloneValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("clone value: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("clone value: %w", err)
	}
	return out, nil
}

// normalized returns a copy of d whose pages, blocks and configs are non-nil.
// The input is not modified.
func normalized(d Document) Document {
	out := d
	out.Pages = make([]Page, len(d.Pages))
	for i, p := range d.Pages {
		np := p
		np.Blocks = make([]Block, len(p.Blocks))
		for j, b := range p.Blocks {
			if b.Config == nil {
				b.Config = Config{}
			}
			np.Blocks[j] = b
		}
		out.Pages[i] = np
	}
	return out
}
