/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"strings"

	"reportbuilder/internal/domain"
	"reportbuilder/internal/layout"
)

// Geometry is computed in points (1/72 inch) with the origin at the top-left.

const (
	defaultMargin = 36.0
	titleHeight   = 24.0
	subtitleH     = 16.0
	footerHeight  = 18.0
	logoSize      = 28.0
)

type Rect struct {
	X, Y, W, H float64
}

type PageSize struct {
	Width, Height float64
}

var pageSizes = map[string]PageSize{
	"A4":     {Width: 595, Height: 842},
	"LETTER": {Width: 612, Height: 792},
}

// slideSize is a 16:9 slide.
var slideSize = PageSize{Width: 960, Height: 540}

// ResolvePageSize picks the paper for a document format. Presentations always
// use the slide size; reports use the named paper, A4 when unknown.
func ResolvePageSize(format domain.LayoutFormat, name string) PageSize {
	if format == domain.LayoutPresentation {
		return slideSize
	}
	if s, ok := pageSizes[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return s
	}
	return pageSizes["A4"]
}

// Placed is a block with its frame on the page.
type Placed struct {
	Index int
	Block domain.Block
	Rect  Rect
	Label string
}

// PagePlan is everything a renderer needs to draw one page.
type PagePlan struct {
	Size     PageSize
	Title    string
	Subtitle string
	TitleY   float64
	SubY     float64
	Logo     *Rect
	Divider  *Rect
	Footer   string
	FooterY  float64
	Margin   float64
	Blocks   []Placed
}

// Plan lays a page out on the 12-column grid. Rows split the body height
// evenly; inside a row, block frames follow their column offsets.
func Plan(p domain.Page, number, total int, size PageSize) PagePlan {
	margin := defaultMargin
	if p.Margin != nil && *p.Margin >= 0 {
		margin = *p.Margin
	}
	gap := domain.DefaultPageSpacing
	if p.Spacing != nil && *p.Spacing >= 0 {
		gap = *p.Spacing
	}
	plan := PagePlan{Size: size, Margin: margin}
	contentW := size.Width - 2*margin
	y := margin

	if p.ShowLogo {
		plan.Logo = &Rect{X: size.Width - margin - logoSize, Y: margin, W: logoSize, H: logoSize}
	}
	if p.ShowTitle && strings.TrimSpace(p.Title) != "" {
		plan.Title = p.Title
		plan.TitleY = y
		y += titleHeight
	}
	if p.ShowSubtitle && strings.TrimSpace(p.Subtitle) != "" {
		plan.Subtitle = p.Subtitle
		plan.SubY = y
		y += subtitleH
	}
	if plan.Logo != nil && y < margin+logoSize {
		y = margin + logoSize
	}
	if p.ShowDivider {
		y += gap / 2
		plan.Divider = &Rect{X: margin, Y: y, W: contentW, H: 0}
	}
	if y > margin {
		y += gap
	}

	bottom := size.Height - margin
	if p.ShowFooter {
		plan.Footer = fmt.Sprintf("%d / %d", number, total)
		plan.FooterY = bottom - footerHeight/2
		bottom -= footerHeight + gap/2
	}

	rows := layout.Rows(p.Blocks)
	if len(rows) == 0 {
		return plan
	}
	rowH := (bottom - y - gap*float64(len(rows)-1)) / float64(len(rows))
	if rowH < 0 {
		rowH = 0
	}
	colW := (contentW - gap*float64(layout.Columns-1)) / float64(layout.Columns)
	offsets := layout.ColumnOffsets(p.Blocks)
	for _, row := range rows {
		for _, i := range row {
			b := p.Blocks[i]
			span := float64(layout.Span(b.Width))
			plan.Blocks = append(plan.Blocks, Placed{
				Index: i,
				Block: b,
				Rect: Rect{
					X: margin + float64(offsets[i])*(colW+gap),
					Y: y,
					W: span*colW + (span-1)*gap,
					H: rowH,
				},
				Label: BlockLabel(b),
			})
		}
		y += rowH + gap
	}
	return plan
}

// BlockLabel is the caption drawn inside a block frame.
func BlockLabel(b domain.Block) string {
	if t := strings.TrimSpace(b.Title); t != "" {
		return string(b.Type) + ": " + t
	}
	return string(b.Type)
}

// printablePages returns the page indexes to render. Hidden pages are dropped
// unless includeHidden is set; an explicit selection is filtered the same way.
func printablePages(doc domain.Document, selected []int, includeHidden bool) []int {
	var idx []int
	if len(selected) == 0 {
		for i := range doc.Pages {
			idx = append(idx, i)
		}
	} else {
		idx = selected
	}
	out := make([]int, 0, len(idx))
	for _, i := range idx {
		if i < 0 || i >= len(doc.Pages) {
			continue
		}
		if doc.Pages[i].Hidden && !includeHidden {
			continue
		}
		out = append(out, i)
	}
	return out
}
