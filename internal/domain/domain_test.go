/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func seqIDs() func(prefix string) string {
	n := 0
	return func(prefix string) string {
		n++
		return prefix + "-" + strings.Repeat("x", n)
	}
}

func TestCanonicalTreatsNilAndEmptyAlike(t *testing.T) {
	a := Document{Title: "A", Pages: []Page{{ID: "p1"}}}
	b := Document{Title: "A", Pages: []Page{{ID: "p1", Blocks: []Block{}}}}
	if !Equal(a, b) {
		t.Fatalf("nil and empty block lists should be canonically equal")
	}
	b.Pages[0].Title = "changed"
	if Equal(a, b) {
		t.Fatalf("documents with different page titles compared equal")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	src := Document{Pages: []Page{{ID: "p1", Blocks: []Block{{
		ID: "b1", Type: BlockTable, Width: WidthFull,
		Config: Config{"rows": []any{map[string]any{"id": "r1", "cells": []any{"a"}}}},
	}}}}}
	cp, err := Clone(src)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	rows := cp.Pages[0].Blocks[0].Config["rows"].([]any)
	rows[0].(map[string]any)["id"] = "mutated"
	orig := src.Pages[0].Blocks[0].Config["rows"].([]any)[0].(map[string]any)["id"]
	if orig != "r1" {
		t.Fatalf("mutating the clone leaked into the source: %v", orig)
	}
}

func TestCloneBlockRejectsUnserializableConfig(t *testing.T) {
	_, err := CloneBlock(Block{ID: "b1", Type: BlockChart, Config: Config{"fn": func() {}}})
	if err == nil {
		t.Fatalf("expected error for function value in config")
	}
	_, err = CloneBlock(Block{ID: "b2", Type: BlockGauge, Config: Config{"value": math.NaN()}})
	if err == nil {
		t.Fatalf("expected error for NaN value in config")
	}
}

func TestConfigMergeKeepsUnspecifiedKeys(t *testing.T) {
	base := Config{"chartType": "column", "data": "a\tb"}
	got := base.Merge(Config{"chartType": "line", "syncKey": nil})
	if got["data"] != "a\tb" || got["chartType"] != "line" {
		t.Fatalf("unexpected merge result: %#v", got)
	}
	if v, ok := got["syncKey"]; !ok || v != nil {
		t.Fatalf("explicit null should be stored, got %#v", got)
	}
	if base["chartType"] != "column" {
		t.Fatalf("Merge modified its receiver")
	}
}

func TestSyncKey(t *testing.T) {
	if _, ok := (Config{}).SyncKey(); ok {
		t.Fatalf("missing key reported as linked")
	}
	if _, ok := (Config{KeySyncKey: nil}).SyncKey(); ok {
		t.Fatalf("null key reported as linked")
	}
	if k, ok := (Config{KeySyncKey: "team"}).SyncKey(); !ok || k != "team" {
		t.Fatalf("SyncKey = %q,%v", k, ok)
	}
}

func TestParseFillsMissingFieldsFromDefaults(t *testing.T) {
	raw := []byte(`{"title":"Old","pages":[{"id":"p1","blocks":[{"id":"b1","type":"CHART","config":{"chartType":"pie","legacy":1}}]}]}`)
	d, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.LayoutFormat != LayoutReport || d.DesignSystem != DesignStandard {
		t.Fatalf("document defaults not applied: %+v", d)
	}
	p := d.Pages[0]
	if !p.ShowTitle || !p.ShowFooter || p.Theme != DefaultPageTheme || p.Spacing == nil {
		t.Fatalf("page defaults not applied: %+v", p)
	}
	b := p.Blocks[0]
	if b.Width != WidthFull {
		t.Fatalf("block width default = %q", b.Width)
	}
	if b.Config["legacy"] != float64(1) || b.Config["chartType"] != "pie" {
		t.Fatalf("config keys lost: %#v", b.Config)
	}
}

func TestMergeWithDefaultsLeavesInputUntouched(t *testing.T) {
	block := map[string]any{"id": "b1", "type": "CHART"}
	page := map[string]any{"id": "p1", "blocks": []any{block}}
	in := map[string]any{"title": "Old", "pages": []any{page}}

	out := MergeWithDefaults(in)
	gotPage := out["pages"].([]any)[0].(map[string]any)
	if gotPage["showTitle"] != true || gotPage["blocks"].([]any)[0].(map[string]any)["width"] != string(WidthFull) {
		t.Fatalf("defaults not applied: %#v", gotPage)
	}
	if len(page) != 2 || len(block) != 2 {
		t.Fatalf("input maps were modified: page=%#v block=%#v", page, block)
	}
	if _, ok := in["pages"].([]any)[0].(map[string]any)["showTitle"]; ok {
		t.Fatalf("input pages slice now holds the merged page")
	}
	if _, ok := page["blocks"].([]any)[0].(map[string]any)["width"]; ok {
		t.Fatalf("input blocks slice now holds the merged block")
	}
}

func TestLookupHelpers(t *testing.T) {
	d := Document{Pages: []Page{
		{ID: "p1", Blocks: []Block{{ID: "a"}, {ID: "b"}}},
		{ID: "p2"},
		{ID: "p3", Blocks: []Block{{ID: "c"}}},
	}}
	if pi, bi, ok := d.FindBlock("c"); !ok || pi != 2 || bi != 0 {
		t.Fatalf("FindBlock(c) = %d,%d,%v", pi, bi, ok)
	}
	if _, _, ok := d.FindBlock("zz"); ok {
		t.Fatalf("FindBlock found a missing block")
	}
	if d.PageIndexOf("p2") != 1 || d.PageIndexOf("p9") != -1 {
		t.Fatalf("PageIndexOf gave wrong indexes")
	}
	if d.BlockCount() != 3 {
		t.Fatalf("BlockCount = %d", d.BlockCount())
	}
}

func TestParseKeepsExplicitFalseToggles(t *testing.T) {
	raw := []byte(`{"pages":[{"id":"p1","showLogo":false,"hidden":true,"blocks":[]}]}`)
	d, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Pages[0].ShowLogo || !d.Pages[0].Hidden || !d.Pages[0].ShowTitle {
		t.Fatalf("explicit toggles not preserved: %+v", d.Pages[0])
	}
}

func TestParseRejectsUnknownBlockType(t *testing.T) {
	raw := []byte(`{"pages":[{"id":"p1","blocks":[{"id":"b1","type":"HOLOGRAM","config":{}}]}]}`)
	_, err := Parse(raw)
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if _, err := Parse([]byte(`[1,2]`)); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument for array payload, got %v", err)
	}
}

func TestDefaultDocument(t *testing.T) {
	d := DefaultDocument(seqIDs())
	if len(d.Pages) != 1 || d.Pages[0].Title != DefaultPageTitle || d.Pages[0].ID == "" {
		t.Fatalf("unexpected default document: %+v", d)
	}
	b, err := Canonical(d)
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if err := Validate(b); err != nil {
		t.Fatalf("default document does not validate: %v", err)
	}
}

func TestTypedConfigRoundTrip(t *testing.T) {
	key := "team"
	c, err := ToConfig(CalendarConfig{Month: "2025-05", SyncKey: &key, DayProjects: map[string]string{"2025-05-02": "Alpha"}})
	if err != nil {
		t.Fatalf("ToConfig: %v", err)
	}
	if k, ok := c.SyncKey(); !ok || k != "team" {
		t.Fatalf("sync key lost: %#v", c)
	}
	var back CalendarConfig
	if err := DecodeConfig(c, &back); err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if back.DayProjects["2025-05-02"] != "Alpha" {
		t.Fatalf("day projects lost: %#v", back)
	}
}
