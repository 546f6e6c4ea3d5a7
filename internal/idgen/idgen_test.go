/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package idgen

import (
	"strings"
	"testing"
)

func TestTimeRandomUniqueWithinOneTick(t *testing.T) {
	seen := make(map[string]struct{}, 5000)
	for i := 0; i < 5000; i++ {
		id := Generate("block")
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id at iteration %d: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestTimeRandomFormat(t *testing.T) {
	id := TimeRandom("page")
	if !strings.HasPrefix(id, "page-") {
		t.Fatalf("missing prefix: %q", id)
	}
	for _, c := range strings.TrimPrefix(id, "page-") {
		if !strings.ContainsRune(alphabet, c) {
			t.Fatalf("unexpected character %q in %q", c, id)
		}
	}
	if bare := TimeRandom(""); strings.HasPrefix(bare, "-") {
		t.Fatalf("empty prefix should not leave a dash: %q", bare)
	}
}

func TestNewSelectsStrategy(t *testing.T) {
	id := New("uuid7")("item")
	if !strings.HasPrefix(id, "item-") || len(id) != len("item-")+36 {
		t.Fatalf("expected prefixed UUID, got %q", id)
	}
	if id := New("something-else")("x"); len(id) >= len("x-")+36 {
		t.Fatalf("unknown strategy should fall back to time-random, got %q", id)
	}
}
