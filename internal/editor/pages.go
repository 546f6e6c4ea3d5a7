/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"reportbuilder/internal/domain"
)

// PagePatch carries the page fields to overwrite; nil fields are left as they are.
type PagePatch struct {
	Title        *string
	Subtitle     *string
	Theme        *string
	Spacing      *float64
	Margin       *float64
	ShowTitle    *bool
	ShowSubtitle *bool
	ShowLogo     *bool
	ShowDivider  *bool
	ShowFooter   *bool
	Hidden       *bool
}

// CreatePage appends a default page and returns its id.
func (e *Editor) CreatePage(doc domain.Document) (domain.Document, string, error) {
	next, err := working(doc)
	if err != nil {
		return doc, "", err
	}
	p := domain.DefaultPage(e.ids("page"))
	next.Pages = append(next.Pages, p)
	return next, p.ID, nil
}

// DuplicatePage inserts a deep copy of the page right after it. The copy and
// every block and nested sub-item inside it get fresh ids; sync keys are kept.
func (e *Editor) DuplicatePage(doc domain.Document, index int) (domain.Document, string, error) {
	if err := checkPage(doc, index); err != nil {
		return doc, "", err
	}
	src, err := working(domain.Document{Pages: []domain.Page{doc.Pages[index]}})
	if err != nil {
		return doc, "", err
	}
	next, err := working(doc)
	if err != nil {
		return doc, "", err
	}
	cp := src.Pages[0]
	cp.ID = e.ids("page")
	cp.Title = cp.Title + " (copy)"
	for i := range cp.Blocks {
		e.refreshBlockIDs(&cp.Blocks[i])
	}
	next.Pages = insertPage(next.Pages, index+1, cp)
	return next, cp.ID, nil
}

// MovePage swaps the page with its neighbour; moving past either end is a no-op.
func (e *Editor) MovePage(doc domain.Document, index int, dir Direction) (domain.Document, error) {
	if err := checkPage(doc, index); err != nil {
		return doc, err
	}
	target := index + int(dir)
	if target < 0 || target >= len(doc.Pages) || target == index {
		return doc, nil
	}
	next, err := working(doc)
	if err != nil {
		return doc, err
	}
	next.Pages[index], next.Pages[target] = next.Pages[target], next.Pages[index]
	return next, nil
}

// UpdatePage shallow-merges patch into the page.
func (e *Editor) UpdatePage(doc domain.Document, index int, patch PagePatch) (domain.Document, error) {
	if err := checkPage(doc, index); err != nil {
		return doc, err
	}
	next, err := working(doc)
	if err != nil {
		return doc, err
	}
	p := &next.Pages[index]
	setString(&p.Title, patch.Title)
	setString(&p.Subtitle, patch.Subtitle)
	setString(&p.Theme, patch.Theme)
	if patch.Spacing != nil {
		v := *patch.Spacing
		p.Spacing = &v
	}
	if patch.Margin != nil {
		v := *patch.Margin
		p.Margin = &v
	}
	setBool(&p.ShowTitle, patch.ShowTitle)
	setBool(&p.ShowSubtitle, patch.ShowSubtitle)
	setBool(&p.ShowLogo, patch.ShowLogo)
	setBool(&p.ShowDivider, patch.ShowDivider)
	setBool(&p.ShowFooter, patch.ShowFooter)
	setBool(&p.Hidden, patch.Hidden)
	return next, nil
}

// RemovePage drops the page and its blocks. Linked calendar peers elsewhere are not notified.
func (e *Editor) RemovePage(doc domain.Document, index int) (domain.Document, error) {
	if err := checkPage(doc, index); err != nil {
		return doc, err
	}
	next, err := working(doc)
	if err != nil {
		return doc, err
	}
	next.Pages = append(next.Pages[:index], next.Pages[index+1:]...)
	return next, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
