/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package layout derives grid rows and smart insertion points from block widths.
// Rows are never stored; they are recomputed from the block order on demand.
package layout

import "reportbuilder/internal/domain"

// Columns is the number of grid columns a page row holds.
const Columns = 12

var spans = map[domain.Width]int{
	domain.WidthFull:          12,
	domain.WidthThreeQuarters: 9,
	domain.WidthTwoThirds:     8,
	domain.WidthHalf:          6,
	domain.WidthThird:         4,
	domain.WidthQuarter:       3,
}

// Span returns the number of columns a width occupies.
// Unknown tags occupy a full row so they can never share one.
func Span(w domain.Width) int {
	if s, ok := spans[w]; ok {
		return s
	}
	return Columns
}

// RowBoundaries maps every block index to the index just past the end of its row.
// That index is where a block inserted "below" lands so it starts a fresh row
// instead of splitting an existing one.
func RowBoundaries(blocks []domain.Block) []int {
	out := make([]int, len(blocks))
	start, sum := 0, 0
	for i, b := range blocks {
		s := Span(b.Width)
		if sum+s > Columns && i > start {
			for j := start; j < i; j++ {
				out[j] = i
			}
			start, sum = i, 0
		}
		sum += s
	}
	for j := start; j < len(blocks); j++ {
		out[j] = len(blocks)
	}
	return out
}

// Rows returns the row partition as index runs, in order.
func Rows(blocks []domain.Block) [][]int {
	var rows [][]int
	bounds := RowBoundaries(blocks)
	for i := 0; i < len(blocks); {
		end := bounds[i]
		row := make([]int, 0, end-i)
		for j := i; j < end; j++ {
			row = append(row, j)
		}
		rows = append(rows, row)
		i = end
	}
	return rows
}

// InsertionIndex returns where a new block placed below blocks[below] should go.
// Out-of-range anchors append at the end.
func InsertionIndex(blocks []domain.Block, below int) int {
	if below < 0 || below >= len(blocks) {
		return len(blocks)
	}
	return RowBoundaries(blocks)[below]
}

// ComplementaryWidth returns the width that completes a two-slot row with w.
// FULL has no complement.
func ComplementaryWidth(w domain.Width) (domain.Width, bool) {
	switch w {
	case domain.WidthQuarter:
		return domain.WidthThreeQuarters, true
	case domain.WidthThreeQuarters:
		return domain.WidthQuarter, true
	case domain.WidthThird:
		return domain.WidthTwoThirds, true
	case domain.WidthTwoThirds:
		return domain.WidthThird, true
	case domain.WidthHalf:
		return domain.WidthHalf, true
	default:
		return "", false
	}
}

// ColumnOffsets returns, for every block, the starting column inside its row.
func ColumnOffsets(blocks []domain.Block) []int {
	out := make([]int, len(blocks))
	for _, row := range Rows(blocks) {
		col := 0
		for _, i := range row {
			out[i] = col
			col += Span(blocks[i].Width)
		}
	}
	return out
}
