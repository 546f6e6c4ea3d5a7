/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package idgen allocates identifiers for pages, blocks and nested sub-items.
//
// The default strategy joins a base-36 millisecond timestamp with a random
// base-36 suffix. It is practically collision free inside one editing session,
// including bursts within the same millisecond such as a batch paste. It is not
// meant to be unguessable. Sessions whose documents get merged with others can
// switch to UUIDv7.
package idgen

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generator produces an identifier carrying the given prefix (e.g. "page", "block").
type Generator func(prefix string) string

// Strategy names accepted by New.
const (
	StrategyTimeRandom = "time-random"
	StrategyUUIDv7     = "uuid7"
)

const (
	alphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLength = 9
)

// New returns the Generator for a strategy name; unknown names fall back to time-random.
func New(strategy string) Generator {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case StrategyUUIDv7, "uuid", "uuidv7":
		return UUIDv7
	default:
		return TimeRandom
	}
}

// TimeRandom is the default strategy: prefix-<millis36><random36>.
func TimeRandom(prefix string) string {
	var b strings.Builder
	b.Grow(len(prefix) + 1 + 9 + suffixLength)
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatInt(time.Now().UnixMilli(), 36))
	b.WriteString(randomSuffix(suffixLength))
	return b.String()
}

// UUIDv7 returns prefix-<RFC 9562 UUIDv7>.
func UUIDv7(prefix string) string {
	id := uuid.Must(uuid.NewV7()).String()
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}

// Generate allocates an id with the default strategy.
func Generate(prefix string) string { return TimeRandom(prefix) }

func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic("idgen: crypto/rand failed: " + err.Error())
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}
