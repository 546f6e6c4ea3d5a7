/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type EditorConfig struct {
	HistoryLimit    int    `yaml:"history_limit"`     // undo depth, past entries kept
	HistoryMaxBytes int    `yaml:"history_max_bytes"` // soft memory cap, 0 = unlimited
	IDStrategy      string `yaml:"id_strategy"`       // "time-random" | "uuid7"
	Placeholders    bool   `yaml:"placeholders"`      // new blocks carry sample content
}

type StorageConfig struct {
	Path    string `yaml:"path"`    // SQLite project store
	Backups int    `yaml:"backups"` // .bak files kept per exported JSON file
}

type ShareConfig struct {
	BaseURL         string `yaml:"base_url"`
	MaxPayloadBytes int    `yaml:"max_payload_bytes"`
}

type ExportConfig struct {
	PageSize string `yaml:"page_size"` // A4 | Letter
	DPI      int    `yaml:"dpi"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Editor        EditorConfig  `yaml:"editor"`
	Storage       StorageConfig `yaml:"storage"`
	Share         ShareConfig   `yaml:"share"`
	Export        ExportConfig  `yaml:"export"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor:        EditorConfig{HistoryLimit: 50, HistoryMaxBytes: 0, IDStrategy: "time-random", Placeholders: true},
		Storage:       StorageConfig{Path: "", Backups: 3},
		Share:         ShareConfig{BaseURL: "https://reports.example.com/view", MaxPayloadBytes: 8 << 20},
		Export:        ExportConfig{PageSize: "A4", DPI: 72},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath     = "RB_CONFIG"
	EnvHistoryLimit   = "RB_HISTORY_LIMIT"
	EnvIDStrategy     = "RB_ID_STRATEGY"
	EnvPlaceholders   = "RB_PLACEHOLDERS"
	EnvStorePath      = "RB_STORE_PATH"
	EnvShareBaseURL   = "RB_SHARE_BASE_URL"
	EnvExportPageSize = "RB_EXPORT_PAGE_SIZE"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "RB_LOG_LEVEL"
	EnvLogFormat = "RB_LOG_FORMAT"
	EnvLogSource = "RB_LOG_SOURCE"
	EnvLogFile   = "RB_LOG_FILE"
)

// ConfigDir returns the per-user application directory.
func ConfigDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "ReportBuilder")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "ReportBuilder")
	default: // linux and others
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "reportbuilder")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "reportbuilder")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path; RB_CONFIG replaces it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides. A malformed file is reported but defaults and env
// overrides still apply.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	var ferr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			ferr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		ferr = fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	resolveStorePath(&cfg)
	return cfg, ferr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// editor
	if src.Editor.HistoryLimit > 0 {
		dst.Editor.HistoryLimit = src.Editor.HistoryLimit
	}
	if src.Editor.HistoryMaxBytes > 0 {
		dst.Editor.HistoryMaxBytes = src.Editor.HistoryMaxBytes
	}
	if v := strings.TrimSpace(src.Editor.IDStrategy); v != "" {
		dst.Editor.IDStrategy = strings.ToLower(v)
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Editor.Placeholders = src.Editor.Placeholders
	// storage
	if v := strings.TrimSpace(src.Storage.Path); v != "" {
		dst.Storage.Path = v
	}
	if src.Storage.Backups > 0 {
		dst.Storage.Backups = src.Storage.Backups
	}
	// share
	if v := strings.TrimSpace(src.Share.BaseURL); v != "" {
		dst.Share.BaseURL = v
	}
	if src.Share.MaxPayloadBytes > 0 {
		dst.Share.MaxPayloadBytes = src.Share.MaxPayloadBytes
	}
	// export
	if v := strings.TrimSpace(src.Export.PageSize); v != "" {
		dst.Export.PageSize = v
	}
	if src.Export.DPI > 0 {
		dst.Export.DPI = src.Export.DPI
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvHistoryLimit)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Editor.HistoryLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvIDStrategy)); v != "" {
		cfg.Editor.IDStrategy = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvPlaceholders)); v != "" {
		cfg.Editor.Placeholders = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorePath)); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvShareBaseURL)); v != "" {
		cfg.Share.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportPageSize)); v != "" {
		cfg.Export.PageSize = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// resolveStorePath places the project store next to the config file when unset.
func resolveStorePath(cfg *AppConfig) {
	if cfg.Storage.Path != "" {
		return
	}
	if dir, err := ConfigDir(); err == nil {
		cfg.Storage.Path = filepath.Join(dir, "projects.db")
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var env string
	switch key {
	case "editor.history_limit":
		env = EnvHistoryLimit
	case "editor.id_strategy":
		env = EnvIDStrategy
	case "editor.placeholders":
		env = EnvPlaceholders
	case "storage.path":
		env = EnvStorePath
	case "share.base_url":
		env = EnvShareBaseURL
	case "export.page_size":
		env = EnvExportPageSize
	case "logging.level":
		env = EnvLogLevel
	case "logging.format":
		env = EnvLogFormat
	case "logging.source":
		env = EnvLogSource
	case "logging.file":
		env = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}
