/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"reportbuilder/internal/domain"
	applog "reportbuilder/internal/log"
)

// PNGOptions controls PNG export behavior.
// DPI defaults to 72 (one pixel per point).
type PNGOptions struct {
	PageSize      string
	DPI           int
	IncludeHidden bool
	Pages         []int
}

var (
	white     = color.RGBA{255, 255, 255, 255}
	black     = color.RGBA{0, 0, 0, 255}
	grey      = color.RGBA{160, 160, 160, 255}
	blockFill = color.RGBA{245, 245, 245, 255}
)

// ExportPagePNGs writes each printable page to outDir as page-NN.png and
// returns the written paths in page order.
func ExportPagePNGs(doc domain.Document, outDir string, opt PNGOptions) ([]string, error) {
	l := applog.WithOperation(applog.WithComponent("export"), "png").With(slog.String("dir", outDir))
	pages := printablePages(doc, opt.Pages, opt.IncludeHidden)
	if len(pages) == 0 {
		return nil, ErrNothingToExport
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	size := ResolvePageSize(doc.LayoutFormat, opt.PageSize)
	var out []string
	for n, pidx := range pages {
		img := RenderPlan(Plan(doc.Pages[pidx], n+1, len(pages), size), opt.DPI)
		name := filepath.Join(outDir, fmt.Sprintf("page-%02d.png", pidx+1))
		if err := writePNG(name, img); err != nil {
			return out, err
		}
		out = append(out, name)
	}
	l.Info("png pages exported", slog.Int("pages", len(out)))
	return out, nil
}

// RenderPagePNG renders a single page, hidden or not, and returns the encoded PNG.
// Used for thumbnails.
func RenderPagePNG(doc domain.Document, pageIndex int, opt PNGOptions) ([]byte, error) {
	if pageIndex < 0 || pageIndex >= len(doc.Pages) {
		return nil, fmt.Errorf("page index %d out of range", pageIndex)
	}
	size := ResolvePageSize(doc.LayoutFormat, opt.PageSize)
	img := RenderPlan(Plan(doc.Pages[pageIndex], pageIndex+1, len(doc.Pages), size), opt.DPI)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPlan rasterizes a page plan at the given DPI.
func RenderPlan(plan PagePlan, dpi int) *image.RGBA {
	if dpi <= 0 {
		dpi = 72
	}
	scale := float64(dpi) / 72.0
	px := func(v float64) int { return int(math.Round(v * scale)) }

	img := image.NewRGBA(image.Rect(0, 0, px(plan.Size.Width), px(plan.Size.Height)))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: white}, image.Point{}, draw.Src)

	if plan.Title != "" {
		drawLabel(img, px(plan.Margin), px(plan.TitleY)+13, plan.Title, black, img.Bounds().Max.X)
	}
	if plan.Subtitle != "" {
		drawLabel(img, px(plan.Margin), px(plan.SubY)+13, plan.Subtitle, grey, img.Bounds().Max.X)
	}
	if plan.Logo != nil {
		r := plan.Logo
		strokeRect(img, px(r.X), px(r.Y), px(r.X+r.W)-1, px(r.Y+r.H)-1, grey)
	}
	if plan.Divider != nil {
		d := plan.Divider
		y := px(d.Y)
		for x := px(d.X); x < px(d.X+d.W); x++ {
			img.SetRGBA(x, y, black)
		}
	}
	for _, b := range plan.Blocks {
		x0, y0 := px(b.Rect.X), px(b.Rect.Y)
		x1, y1 := px(b.Rect.X+b.Rect.W)-1, px(b.Rect.Y+b.Rect.H)-1
		if x1 <= x0 || y1 <= y0 {
			continue
		}
		fillRect(img, x0, y0, x1, y1, blockFill)
		strokeRect(img, x0, y0, x1, y1, black)
		drawLabel(img, x0+4, y0+14, b.Label, black, x1-2)
	}
	if plan.Footer != "" {
		w := font.MeasureString(basicfont.Face7x13, plan.Footer).Ceil()
		drawLabel(img, px(plan.Size.Width-plan.Margin)-w, px(plan.FooterY)+4, plan.Footer, grey, img.Bounds().Max.X)
	}
	return img
}

// drawLabel draws s with its baseline at y, cut so it ends before maxX.
func drawLabel(img *image.RGBA, x, y int, s string, col color.RGBA, maxX int) {
	face := basicfont.Face7x13
	runes := []rune(s)
	for len(runes) > 0 && x+font.MeasureString(face, string(runes)).Ceil() > maxX {
		runes = runes[:len(runes)-1]
	}
	if len(runes) == 0 {
		return
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(string(runes))
}

func writePNG(name string, img image.Image) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}
