/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"fmt"
)

// Config is the open, variant-specific payload of a block.
// The engine never validates its contents; it only guarantees that every key
// survives clone and merge. Values must be JSON-compatible.
type Config map[string]any

// Well-known config keys the engine itself reads or writes.
const (
	KeyID             = "id"
	KeySyncKey        = "syncKey"
	KeyDayProjects    = "dayProjects"
	KeyPriorityLabels = "priorityLabels"
)

// SyncKey returns the calendar synchronization key, if one is set.
// Only non-empty strings count; null, missing or other types mean "not linked".
func (c Config) SyncKey() (string, bool) {
	v, ok := c[KeySyncKey]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Merge returns a new Config holding c overlaid with patch (shallow).
// A nil value in patch stores an explicit null rather than deleting the key.
func (c Config) Merge(patch Config) Config {
	out := make(Config, len(c)+len(patch))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// ToConfig converts a typed variant record into the open Config form.
func ToConfig(v any) (Config, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if c == nil {
		c = Config{}
	}
	return c, nil
}

// DecodeConfig reads the open Config into a typed variant record.
// Unknown keys are ignored by the typed view but stay in the block.
func DecodeConfig(c Config, dst any) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Typed variant records. Each block type owns one shape; the editor builds
// defaults from these and stores them as Config.

type SectionConfig struct {
	Subtitle string `json:"subtitle"`
	Number   string `json:"number"`
}

type TextBoxConfig struct {
	Variant string `json:"variant"` // plain, highlight, quote
	Content string `json:"content"`
}

// ChartConfig holds series data as tab-separated text, first row is the header.
type ChartConfig struct {
	ChartType  string `json:"chartType"` // column, bar, line, area, pie, donut
	Data       string `json:"data"`
	ShowLegend bool   `json:"showLegend"`
	ShowValues bool   `json:"showValues"`
}

type TableColumn struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Format string `json:"format"` // text, number, currency, percent, date
}

type TableRow struct {
	ID    string   `json:"id"`
	Cells []string `json:"cells"`
}

type TableConfig struct {
	Columns []TableColumn `json:"columns"`
	Rows    []TableRow    `json:"rows"`
	Striped bool          `json:"striped"`
}

type KPIItem struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Value  string `json:"value"`
	Unit   string `json:"unit"`
	Trend  string `json:"trend"` // up, down, flat
	Target string `json:"target"`
}

type KPIGroupConfig struct {
	Items []KPIItem `json:"items"`
}

type KPIConfig struct {
	Variant string `json:"variant"` // card, minimal, ring
	Label   string `json:"label"`
	Value   string `json:"value"`
	Unit    string `json:"unit"`
	Trend   string `json:"trend"`
	Target  string `json:"target"`
}

type RankingItem struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type RankingConfig struct {
	Order string        `json:"order"` // desc, asc
	Items []RankingItem `json:"items"`
}

type ListItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type InfographicListConfig struct {
	Style string     `json:"style"` // numbered, icons, cards
	Items []ListItem `json:"items"`
}

type TimelineItem struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

type TimelineConfig struct {
	Orientation string         `json:"orientation"` // horizontal, vertical
	Items       []TimelineItem `json:"items"`
}

// CalendarConfig is the only variant that can join a synchronization group.
// DayProjects maps an ISO day (YYYY-MM-DD) to a project label.
type CalendarConfig struct {
	Month          string            `json:"month"` // YYYY-MM
	SyncKey        *string           `json:"syncKey"`
	DayProjects    map[string]string `json:"dayProjects"`
	PriorityLabels map[string]string `json:"priorityLabels"`
}

type GaugeConfig struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Unit  string  `json:"unit"`
}

type NineBoxItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Performance int    `json:"performance"` // 1..3
	Potential   int    `json:"potential"`   // 1..3
}

type NineBoxConfig struct {
	Items []NineBoxItem `json:"items"`
}

type FunnelStage struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type FunnelConfig struct {
	Stages []FunnelStage `json:"stages"`
}

type Risk struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Probability int    `json:"probability"` // 1..5
	Impact      int    `json:"impact"`      // 1..5
}

type RiskMatrixConfig struct {
	Risks []Risk `json:"risks"`
}

type KanbanCard struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Owner string `json:"owner"`
}

type KanbanColumn struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Cards []KanbanCard `json:"cards"`
}

type KanbanConfig struct {
	Columns []KanbanColumn `json:"columns"`
}

type ComparisonRow struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

type ComparisonConfig struct {
	LeftTitle  string          `json:"leftTitle"`
	RightTitle string          `json:"rightTitle"`
	Rows       []ComparisonRow `json:"rows"`
}

type ProcessStep struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type StepProcessConfig struct {
	Layout string        `json:"layout"` // arrows, circles
	Steps  []ProcessStep `json:"steps"`
}

type ImageConfig struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
	Fit     string `json:"fit"` // cover, contain
}

type StatusHighlight struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type ProjectStatusConfig struct {
	Status     string            `json:"status"` // on_track, at_risk, late, done
	Progress   float64           `json:"progress"`
	Owner      string            `json:"owner"`
	DueDate    string            `json:"dueDate"`
	Highlights []StatusHighlight `json:"highlights"`
}
