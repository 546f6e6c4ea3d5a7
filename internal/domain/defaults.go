/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Built-in defaults used at session start, for new pages and to fill
// fields missing from older payloads.

const (
	DefaultDocumentTitle = "Novo Relatório"
	DefaultPageTitle     = "Nova Página"
	DefaultPageTheme     = "DEFAULT"
	DefaultPageSpacing   = 16.0
)

// DefaultCover returns a disabled cover with neutral settings.
func DefaultCover() Cover {
	return Cover{Theme: DefaultPageTheme, Alignment: "left", Enabled: false}
}

// DefaultPage returns a page with all visibility toggles on and default spacing.
func DefaultPage(id string) Page {
	spacing := DefaultPageSpacing
	return Page{
		ID:           id,
		Title:        DefaultPageTitle,
		Theme:        DefaultPageTheme,
		Spacing:      &spacing,
		ShowTitle:    true,
		ShowSubtitle: true,
		ShowLogo:     true,
		ShowDivider:  true,
		ShowFooter:   true,
		Blocks:       []Block{},
	}
}

// DefaultDocument returns the document a fresh session starts with: one empty page.
// newID allocates the page identifier.
func DefaultDocument(newID func(prefix string) string) Document {
	cover := DefaultCover()
	return Document{
		Title:        DefaultDocumentTitle,
		LayoutFormat: LayoutReport,
		DesignSystem: DesignStandard,
		Cover:        &cover,
		Pages:        []Page{DefaultPage(newID("page"))},
	}
}
