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
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"reportbuilder/internal/domain"
)

func sampleDoc() domain.Document {
	doc := domain.DefaultDocument(func(prefix string) string { return prefix + "-1" })
	doc.Title = "Relatório Mensal"
	doc.Pages[0].Title = "Visão Geral"
	doc.Pages[0].Blocks = []domain.Block{
		{ID: "b1", Type: domain.BlockKPI, Width: domain.WidthHalf, Title: "Receita"},
		{ID: "b2", Type: domain.BlockChart, Width: domain.WidthHalf},
		{ID: "b3", Type: domain.BlockTable, Width: domain.WidthFull, Title: "Detalhe"},
	}
	hidden := domain.DefaultPage("page-hidden")
	hidden.Hidden = true
	hidden.Blocks = []domain.Block{{ID: "b4", Type: domain.BlockTextBox, Width: domain.WidthFull}}
	doc.Pages = append(doc.Pages, hidden)
	return doc
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestPlanFollowsRowPartition(t *testing.T) {
	doc := sampleDoc()
	size := ResolvePageSize(doc.LayoutFormat, "A4")
	plan := Plan(doc.Pages[0], 1, 1, size)
	if len(plan.Blocks) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(plan.Blocks))
	}
	a, b, c := plan.Blocks[0].Rect, plan.Blocks[1].Rect, plan.Blocks[2].Rect
	if !near(a.Y, b.Y) || c.Y <= a.Y+a.H {
		t.Fatalf("rows wrong: a=%+v b=%+v c=%+v", a, b, c)
	}
	if !near(a.W, b.W) || b.X <= a.X+a.W {
		t.Fatalf("half blocks should sit side by side: a=%+v b=%+v", a, b)
	}
	if !near(c.X, plan.Margin) || !near(c.W, size.Width-2*plan.Margin) {
		t.Fatalf("full block should span the content width: %+v", c)
	}
	if c.Y+c.H > size.Height-plan.Margin {
		t.Fatalf("frame runs past the bottom margin: %+v", c)
	}
	if plan.Title != "Visão Geral" || plan.Footer != "1 / 1" || plan.Divider == nil || plan.Logo == nil {
		t.Fatalf("header/footer not planned: %+v", plan)
	}
	if plan.Blocks[0].Label != "KPI: Receita" || plan.Blocks[1].Label != "CHART" {
		t.Fatalf("labels: %q %q", plan.Blocks[0].Label, plan.Blocks[1].Label)
	}
}

func TestPlanHonoursToggles(t *testing.T) {
	p := domain.DefaultPage("p")
	p.ShowTitle, p.ShowFooter, p.ShowLogo, p.ShowDivider = false, false, false, false
	m := 10.0
	p.Margin = &m
	plan := Plan(p, 1, 1, PageSize{Width: 200, Height: 100})
	if plan.Title != "" || plan.Footer != "" || plan.Logo != nil || plan.Divider != nil || len(plan.Blocks) != 0 {
		t.Fatalf("expected a bare plan: %+v", plan)
	}
	if plan.Margin != 10 {
		t.Fatalf("margin override ignored")
	}
}

func TestResolvePageSize(t *testing.T) {
	if s := ResolvePageSize(domain.LayoutPresentation, "A4"); s.Width <= s.Height {
		t.Fatalf("presentation pages should be landscape: %+v", s)
	}
	if s := ResolvePageSize(domain.LayoutReport, "letter"); s.Width != 612 {
		t.Fatalf("letter not resolved: %+v", s)
	}
	if s := ResolvePageSize(domain.LayoutReport, "??"); s.Width != 595 {
		t.Fatalf("unknown paper should fall back to A4: %+v", s)
	}
}

func TestExportLayoutPDF_CreatesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "exports", "report.pdf")
	doc := sampleDoc()
	doc.Cover.Enabled = true
	doc.Cover.Alignment = "center"
	if err := ExportLayoutPDF(doc, out, PDFOptions{IncludeGuides: true}); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("not a pdf")
	}
}

func TestExportLayoutPDF_NothingPrintable(t *testing.T) {
	doc := sampleDoc()
	doc.Pages = doc.Pages[1:]
	doc.Cover = nil
	err := ExportLayoutPDF(doc, filepath.Join(t.TempDir(), "x.pdf"), PDFOptions{})
	if !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("expected ErrNothingToExport, got %v", err)
	}
}

func TestExportPagePNGs_SkipsHiddenPages(t *testing.T) {
	dir := t.TempDir()
	files, err := ExportPagePNGs(sampleDoc(), dir, PNGOptions{DPI: 36})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "page-01.png" {
		t.Fatalf("unexpected files: %v", files)
	}
	f, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 298 || b.Dy() != 421 {
		t.Fatalf("unexpected size %v", b)
	}

	files, err = ExportPagePNGs(sampleDoc(), dir, PNGOptions{IncludeHidden: true})
	if err != nil || len(files) != 2 {
		t.Fatalf("hidden pages requested: files=%v err=%v", files, err)
	}
}

func TestRenderPagePNG_DrawsFrames(t *testing.T) {
	doc := sampleDoc()
	data, err := RenderPagePNG(doc, 0, PNGOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	plan := Plan(doc.Pages[0], 1, 2, ResolvePageSize(doc.LayoutFormat, ""))
	r := plan.Blocks[2].Rect
	cx, cy := int(r.X+r.W/2), int(r.Y+r.H/2)
	if c, _, _, _ := img.At(cx, cy).RGBA(); c>>8 != 245 {
		t.Fatalf("block interior not filled at (%d,%d)", cx, cy)
	}
	if c, _, _, _ := img.At(int(math.Round(r.X)), cy).RGBA(); c != 0 {
		t.Fatalf("block border not drawn")
	}
	if _, err := RenderPagePNG(doc, 5, PNGOptions{}); err == nil {
		t.Fatalf("expected range error")
	}
}
