/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"fmt"

	"reportbuilder/internal/domain"
)

var ErrInvalidSetting = errors.New("invalid document setting")

// DocumentPatch carries document-level fields to overwrite. A non-nil Cover
// replaces the whole cover record; ClearCover removes it.
type DocumentPatch struct {
	Title        *string
	Subtitle     *string
	LayoutFormat *domain.LayoutFormat
	DesignSystem *domain.DesignSystem
	Cover        *domain.Cover
	ClearCover   bool
}

// UpdateDocument shallow-merges patch into the document header and cover.
func (e *Editor) UpdateDocument(doc domain.Document, patch DocumentPatch) (domain.Document, error) {
	if f := patch.LayoutFormat; f != nil && *f != domain.LayoutReport && *f != domain.LayoutPresentation {
		return doc, fmt.Errorf("%w: layout format %q", ErrInvalidSetting, *f)
	}
	if d := patch.DesignSystem; d != nil && *d != domain.DesignStandard && *d != domain.DesignFuture {
		return doc, fmt.Errorf("%w: design system %q", ErrInvalidSetting, *d)
	}
	next, err := working(doc)
	if err != nil {
		return doc, err
	}
	setString(&next.Title, patch.Title)
	setString(&next.Subtitle, patch.Subtitle)
	if patch.LayoutFormat != nil {
		next.LayoutFormat = *patch.LayoutFormat
	}
	if patch.DesignSystem != nil {
		next.DesignSystem = *patch.DesignSystem
	}
	switch {
	case patch.ClearCover:
		next.Cover = nil
	case patch.Cover != nil:
		c := *patch.Cover
		next.Cover = &c
	}
	return next, nil
}
