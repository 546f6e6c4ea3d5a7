/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"reportbuilder/internal/domain"
	applog "reportbuilder/internal/log"
)

// PDFOptions controls PDF export behavior.
// Units are points (pt). Built-in Helvetica keeps text vector without embedding.
type PDFOptions struct {
	PageSize      string // A4 | Letter; ignored for presentations
	IncludeHidden bool
	IncludeGuides bool  // draw the margin box
	Pages         []int // if empty, export all printable pages
}

var ErrNothingToExport = errors.New("no printable pages")

// ExportLayoutPDF writes a layout proof of doc to outPath: an optional cover
// page followed by one PDF page per printable page, each block drawn as a
// labelled frame on the grid.
func ExportLayoutPDF(doc domain.Document, outPath string, opt PDFOptions) error {
	l := applog.WithOperation(applog.WithComponent("export"), "pdf").With(slog.String("path", outPath))
	pages := printablePages(doc, opt.Pages, opt.IncludeHidden)
	cover := doc.Cover != nil && doc.Cover.Enabled
	if len(pages) == 0 && !cover {
		return ErrNothingToExport
	}
	size := ResolvePageSize(doc.LayoutFormat, opt.PageSize)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: size.Width, Ht: size.Height},
	})
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("reportbuilder", false)
	pdf.SetAutoPageBreak(false, 0)
	// Core fonts are cp1252; translate UTF-8 so accented titles survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if cover {
		drawCover(pdf, tr, doc, size)
	}
	for n, pidx := range pages {
		plan := Plan(doc.Pages[pidx], n+1, len(pages), size)
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: size.Width, Ht: size.Height})
		drawPlanPDF(pdf, tr, plan, opt.IncludeGuides)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		l.Error("write pdf failed", slog.Any("err", err))
		return fmt.Errorf("write pdf: %w", err)
	}
	l.Info("pdf exported", slog.Int("pages", len(pages)), slog.Bool("cover", cover))
	return nil
}

func drawCover(pdf *gofpdf.Fpdf, tr func(string) string, doc domain.Document, size PageSize) {
	c := doc.Cover
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: size.Width, Ht: size.Height})
	align := "L"
	switch c.Alignment {
	case "center":
		align = "C"
	case "right":
		align = "R"
	}
	title := c.Title
	if strings.TrimSpace(title) == "" {
		title = doc.Title
	}
	subtitle := c.Subtitle
	if strings.TrimSpace(subtitle) == "" {
		subtitle = doc.Subtitle
	}
	w := size.Width - 2*defaultMargin
	pdf.SetXY(defaultMargin, size.Height/3)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.MultiCell(w, 34, tr(title), "", align, false)
	if subtitle != "" {
		pdf.SetFont("Helvetica", "", 16)
		pdf.SetX(defaultMargin)
		pdf.MultiCell(w, 22, tr(subtitle), "", align, false)
	}
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{c.Author, c.Department, c.Manager, c.Date} {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pdf.SetX(defaultMargin)
		pdf.CellFormat(w, 16, tr(line), "", 1, align, false, 0, "")
	}
}

func drawPlanPDF(pdf *gofpdf.Fpdf, tr func(string) string, plan PagePlan, guides bool) {
	if guides {
		pdf.SetDrawColor(255, 0, 0)
		pdf.SetLineWidth(0.2)
		pdf.Rect(plan.Margin, plan.Margin, plan.Size.Width-2*plan.Margin, plan.Size.Height-2*plan.Margin, "D")
	}
	pdf.SetTextColor(0, 0, 0)
	if plan.Title != "" {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.Text(plan.Margin, plan.TitleY+18, tr(plan.Title))
	}
	if plan.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.Text(plan.Margin, plan.SubY+12, tr(plan.Subtitle))
	}
	if plan.Logo != nil {
		pdf.SetDrawColor(160, 160, 160)
		pdf.SetLineWidth(0.5)
		pdf.Rect(plan.Logo.X, plan.Logo.Y, plan.Logo.W, plan.Logo.H, "D")
	}
	if plan.Divider != nil {
		pdf.SetDrawColor(0, 0, 0)
		pdf.SetLineWidth(0.75)
		pdf.Line(plan.Divider.X, plan.Divider.Y, plan.Divider.X+plan.Divider.W, plan.Divider.Y)
	}

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(1)
	pdf.SetFillColor(245, 245, 245)
	pdf.SetFont("Helvetica", "", 10)
	for _, b := range plan.Blocks {
		r := b.Rect
		pdf.Rect(r.X, r.Y, r.W, r.H, "FD")
		pdf.ClipRect(r.X, r.Y, r.W, r.H, false)
		pdf.Text(r.X+6, r.Y+14, tr(b.Label))
		pdf.ClipEnd()
	}

	if plan.Footer != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(100, 100, 100)
		w := pdf.GetStringWidth(plan.Footer)
		pdf.Text(plan.Size.Width-plan.Margin-w, plan.FooterY+4, plan.Footer)
	}
}
