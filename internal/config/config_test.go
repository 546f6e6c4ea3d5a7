/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func isolate(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, p)
	return p
}

func TestDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	t.Setenv(EnvStorePath, "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.HistoryLimit != 50 || cfg.Editor.IDStrategy != "time-random" {
		t.Fatalf("unexpected editor defaults: %#v", cfg.Editor)
	}
	if filepath.Base(cfg.Storage.Path) != "projects.db" {
		t.Fatalf("store path not resolved: %q", cfg.Storage.Path)
	}
}

func TestLoadMergesFile(t *testing.T) {
	p := isolate(t)
	yml := "editor:\n  history_limit: 20\n  id_strategy: UUID7\n  placeholders: false\nshare:\n  base_url: https://share.test/v\n"
	if err := os.WriteFile(p, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.HistoryLimit != 20 || cfg.Editor.IDStrategy != "uuid7" || cfg.Editor.Placeholders {
		t.Fatalf("editor section not merged: %#v", cfg.Editor)
	}
	if cfg.Share.BaseURL != "https://share.test/v" || cfg.Share.MaxPayloadBytes != Defaults().Share.MaxPayloadBytes {
		t.Fatalf("share section not merged: %#v", cfg.Share)
	}
}

func TestMalformedFileKeepsDefaults(t *testing.T) {
	p := isolate(t)
	if err := os.WriteFile(p, []byte("editor: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg.Editor.HistoryLimit != 50 {
		t.Fatalf("defaults lost on parse error: %#v", cfg.Editor)
	}
}

func TestEnvOverridesEditor(t *testing.T) {
	isolate(t)
	t.Setenv(EnvHistoryLimit, "7")
	t.Setenv(EnvIDStrategy, "uuid7")
	t.Setenv(EnvStorePath, "/tmp/rb.db")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.HistoryLimit != 7 || cfg.Editor.IDStrategy != "uuid7" || cfg.Storage.Path != "/tmp/rb.db" {
		t.Fatalf("env overrides not applied: %#v %#v", cfg.Editor, cfg.Storage)
	}
	if env, ok := EnvOverrideFor("editor.history_limit"); !ok || env != EnvHistoryLimit {
		t.Fatalf("EnvOverrideFor mismatch: %q %v", env, ok)
	}
	if _, ok := EnvOverrideFor("share.base_url"); ok {
		t.Fatalf("share.base_url is not overridden")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/rb.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/rb.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/rb.log")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/rb.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	isolate(t)
	cfg := Defaults()
	cfg.Editor.HistoryLimit = 99
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Editor.HistoryLimit != 99 {
		t.Fatalf("history limit not persisted: %d", got.Editor.HistoryLimit)
	}
}
