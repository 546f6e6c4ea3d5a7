/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the editable document tree: Document -> Page -> Block -> Config.
// Everything here must stay representable as plain JSON; the history manager,
// the project store and the share-link codec all depend on that.

// LayoutFormat selects between a printable report and a slide deck.
type LayoutFormat string

const (
	LayoutReport       LayoutFormat = "REPORT"
	LayoutPresentation LayoutFormat = "PRESENTATION"
)

// DesignSystem selects the visual language used by renderers.
type DesignSystem string

const (
	DesignStandard DesignSystem = "STANDARD"
	DesignFuture   DesignSystem = "FUTURE"
)

// BlockType is the closed set of block variants.
type BlockType string

const (
	BlockSection         BlockType = "SECTION"
	BlockTextBox         BlockType = "TEXT_BOX"
	BlockChart           BlockType = "CHART"
	BlockTable           BlockType = "TABLE"
	BlockKPIGroup        BlockType = "KPI_GROUP"
	BlockKPI             BlockType = "KPI"
	BlockRanking         BlockType = "RANKING"
	BlockInfographicList BlockType = "INFOGRAPHIC_LIST"
	BlockTimeline        BlockType = "TIMELINE"
	BlockCalendar        BlockType = "CALENDAR"
	BlockGauge           BlockType = "GAUGE"
	BlockNineBox         BlockType = "NINE_BOX"
	BlockFunnel          BlockType = "FUNNEL"
	BlockRiskMatrix      BlockType = "RISK_MATRIX"
	BlockKanban          BlockType = "KANBAN"
	BlockComparison      BlockType = "COMPARISON"
	BlockStepProcess     BlockType = "STEP_PROCESS"
	BlockImage           BlockType = "IMAGE"
	BlockProjectStatus   BlockType = "PROJECT_STATUS"
)

// BlockTypes lists every variant in palette order.
var BlockTypes = []BlockType{
	BlockSection, BlockTextBox, BlockChart, BlockTable, BlockKPIGroup, BlockKPI,
	BlockRanking, BlockInfographicList, BlockTimeline, BlockCalendar, BlockGauge,
	BlockNineBox, BlockFunnel, BlockRiskMatrix, BlockKanban, BlockComparison,
	BlockStepProcess, BlockImage, BlockProjectStatus,
}

// Valid reports whether t is one of the known variants.
func (t BlockType) Valid() bool {
	for _, k := range BlockTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Width is a block's share of the 12-column grid.
type Width string

const (
	WidthFull          Width = "FULL"
	WidthThreeQuarters Width = "THREE_QUARTERS"
	WidthTwoThirds     Width = "TWO_THIRDS"
	WidthHalf          Width = "HALF"
	WidthThird         Width = "THIRD"
	WidthQuarter       Width = "QUARTER"
)

// Widths lists every width tag from widest to narrowest.
var Widths = []Width{WidthFull, WidthThreeQuarters, WidthTwoThirds, WidthHalf, WidthThird, WidthQuarter}

func (w Width) Valid() bool {
	for _, k := range Widths {
		if k == w {
			return true
		}
	}
	return false
}

// Cover is the optional title page of a document.
type Cover struct {
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	Author     string `json:"author"`
	Department string `json:"department"`
	Manager    string `json:"manager"`
	Date       string `json:"date"`
	Theme      string `json:"theme"`
	Alignment  string `json:"alignment"` // left, center, right
	Enabled    bool   `json:"enabled"`
}

// Document is the whole editable project.
type Document struct {
	Title        string       `json:"title"`
	Subtitle     string       `json:"subtitle"`
	LayoutFormat LayoutFormat `json:"layoutFormat"`
	DesignSystem DesignSystem `json:"designSystem"`
	Cover        *Cover       `json:"cover,omitempty"`
	Pages        []Page       `json:"pages"`
}

// Page is an ordered container of blocks plus its own layout knobs.
// Hidden pages stay editable but are skipped when printing.
type Page struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Subtitle     string   `json:"subtitle"`
	Theme        string   `json:"theme"`
	Spacing      *float64 `json:"spacing"`
	Margin       *float64 `json:"margin"`
	ShowTitle    bool     `json:"showTitle"`
	ShowSubtitle bool     `json:"showSubtitle"`
	ShowLogo     bool     `json:"showLogo"`
	ShowDivider  bool     `json:"showDivider"`
	ShowFooter   bool     `json:"showFooter"`
	Hidden       bool     `json:"hidden"`
	Blocks       []Block  `json:"blocks"`
}

// Block is one typed content unit. Its ID is unique across the whole document.
type Block struct {
	ID     string    `json:"id"`
	Type   BlockType `json:"type"`
	Width  Width     `json:"width"`
	Title  string    `json:"title"`
	Config Config    `json:"config"`
}

// PageIndexOf returns the index of the page with the given id, or -1.
func (d Document) PageIndexOf(pageID string) int {
	for i := range d.Pages {
		if d.Pages[i].ID == pageID {
			return i
		}
	}
	return -1
}

// BlockIndexOf returns the index of the block with the given id inside the page, or -1.
func (p Page) BlockIndexOf(blockID string) int {
	for i := range p.Blocks {
		if p.Blocks[i].ID == blockID {
			return i
		}
	}
	return -1
}

// FindBlock locates a block anywhere in the document.
func (d Document) FindBlock(blockID string) (pageIndex, blockIndex int, ok bool) {
	for pi := range d.Pages {
		if bi := d.Pages[pi].BlockIndexOf(blockID); bi >= 0 {
			return pi, bi, true
		}
	}
	return -1, -1, false
}

// BlockCount returns the number of blocks across all pages.
func (d Document) BlockCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Blocks)
	}
	return n
}
