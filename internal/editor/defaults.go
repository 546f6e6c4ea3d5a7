/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"fmt"

	"reportbuilder/internal/domain"
)

// DefaultWidth is the width a freshly added block of type t gets.
func DefaultWidth(t domain.BlockType) domain.Width {
	switch t {
	case domain.BlockKPI:
		return domain.WidthQuarter
	case domain.BlockGauge:
		return domain.WidthThird
	case domain.BlockChart, domain.BlockRanking, domain.BlockInfographicList, domain.BlockCalendar,
		domain.BlockNineBox, domain.BlockFunnel, domain.BlockRiskMatrix, domain.BlockImage,
		domain.BlockProjectStatus:
		return domain.WidthHalf
	default:
		return domain.WidthFull
	}
}

// DefaultTitle is the title a freshly added block of type t gets.
func DefaultTitle(t domain.BlockType) string {
	switch t {
	case domain.BlockSection:
		return "Nova Seção"
	case domain.BlockTextBox:
		return "Texto"
	case domain.BlockChart:
		return "Gráfico"
	case domain.BlockTable:
		return "Tabela"
	case domain.BlockKPIGroup:
		return "Indicadores"
	case domain.BlockKPI:
		return "Indicador"
	case domain.BlockRanking:
		return "Ranking"
	case domain.BlockInfographicList:
		return "Lista"
	case domain.BlockTimeline:
		return "Linha do Tempo"
	case domain.BlockCalendar:
		return "Calendário"
	case domain.BlockGauge:
		return "Medidor"
	case domain.BlockNineBox:
		return "Matriz 9-Box"
	case domain.BlockFunnel:
		return "Funil"
	case domain.BlockRiskMatrix:
		return "Matriz de Riscos"
	case domain.BlockKanban:
		return "Kanban"
	case domain.BlockComparison:
		return "Comparativo"
	case domain.BlockStepProcess:
		return "Processo"
	case domain.BlockImage:
		return "Imagem"
	case domain.BlockProjectStatus:
		return "Status do Projeto"
	}
	return ""
}

// VariantKey names the config field a variant override writes for type t,
// or "" when the type has no variants.
func VariantKey(t domain.BlockType) string {
	switch t {
	case domain.BlockChart:
		return "chartType"
	case domain.BlockTextBox, domain.BlockKPI:
		return "variant"
	case domain.BlockInfographicList:
		return "style"
	case domain.BlockTimeline:
		return "orientation"
	case domain.BlockStepProcess:
		return "layout"
	case domain.BlockImage:
		return "fit"
	case domain.BlockRanking:
		return "order"
	}
	return ""
}

// DefaultConfig builds the config of a new block of type t. With placeholders
// the block is filled with illustrative sample content; without, it carries
// the minimal empty shape.
func (e *Editor) DefaultConfig(t domain.BlockType, placeholders bool) (domain.Config, error) {
	var rec any
	switch t {
	case domain.BlockSection:
		rec = domain.SectionConfig{Subtitle: pick(placeholders, "Resumo da seção", "")}
	case domain.BlockTextBox:
		rec = domain.TextBoxConfig{Variant: "plain", Content: pick(placeholders, "Escreva aqui a análise do período.", "")}
	case domain.BlockChart:
		data := "Categoria\tValor"
		if placeholders {
			data = "Mês\tValor\nJan\t120\nFev\t150\nMar\t180\nAbr\t140"
		}
		rec = domain.ChartConfig{ChartType: "column", Data: data, ShowLegend: true}
	case domain.BlockTable:
		rec = e.defaultTable(placeholders)
	case domain.BlockKPIGroup:
		rec = e.defaultKPIGroup(placeholders)
	case domain.BlockKPI:
		rec = domain.KPIConfig{Variant: "card", Label: pick(placeholders, "Receita", ""), Value: pick(placeholders, "1,2 mi", ""), Trend: "flat"}
	case domain.BlockRanking:
		c := domain.RankingConfig{Order: "desc", Items: []domain.RankingItem{}}
		if placeholders {
			for i, l := range []string{"Norte", "Sul", "Leste"} {
				c.Items = append(c.Items, domain.RankingItem{ID: e.ids("item"), Label: l, Value: float64(90 - 15*i)})
			}
		}
		rec = c
	case domain.BlockInfographicList:
		c := domain.InfographicListConfig{Style: "numbered", Items: []domain.ListItem{}}
		if placeholders {
			for _, l := range []string{"Planejar", "Executar", "Medir"} {
				c.Items = append(c.Items, domain.ListItem{ID: e.ids("item"), Title: l})
			}
		}
		rec = c
	case domain.BlockTimeline:
		c := domain.TimelineConfig{Orientation: "horizontal", Items: []domain.TimelineItem{}}
		if placeholders {
			c.Items = append(c.Items,
				domain.TimelineItem{ID: e.ids("item"), Date: "2025-01", Title: "Kick-off", Done: true},
				domain.TimelineItem{ID: e.ids("item"), Date: "2025-06", Title: "Entrega"})
		}
		rec = c
	case domain.BlockCalendar:
		c := domain.CalendarConfig{DayProjects: map[string]string{}, PriorityLabels: map[string]string{}}
		if placeholders {
			c.Month = "2025-01"
			c.DayProjects["2025-01-15"] = "Projeto A"
			c.PriorityLabels = map[string]string{"high": "Alta", "medium": "Média", "low": "Baixa"}
		}
		rec = c
	case domain.BlockGauge:
		c := domain.GaugeConfig{Min: 0, Max: 100, Unit: "%"}
		if placeholders {
			c.Label, c.Value = "Meta atingida", 72
		}
		rec = c
	case domain.BlockNineBox:
		c := domain.NineBoxConfig{Items: []domain.NineBoxItem{}}
		if placeholders {
			c.Items = append(c.Items, domain.NineBoxItem{ID: e.ids("item"), Name: "Ana", Performance: 3, Potential: 2})
		}
		rec = c
	case domain.BlockFunnel:
		c := domain.FunnelConfig{Stages: []domain.FunnelStage{}}
		if placeholders {
			for i, l := range []string{"Leads", "Propostas", "Contratos"} {
				c.Stages = append(c.Stages, domain.FunnelStage{ID: e.ids("item"), Label: l, Value: float64(1000 / (i*4 + 1))})
			}
		}
		rec = c
	case domain.BlockRiskMatrix:
		c := domain.RiskMatrixConfig{Risks: []domain.Risk{}}
		if placeholders {
			c.Risks = append(c.Risks, domain.Risk{ID: e.ids("item"), Label: "Atraso de fornecedor", Probability: 3, Impact: 4})
		}
		rec = c
	case domain.BlockKanban:
		rec = e.defaultKanban(placeholders)
	case domain.BlockComparison:
		c := domain.ComparisonConfig{LeftTitle: "Antes", RightTitle: "Depois", Rows: []domain.ComparisonRow{}}
		if placeholders {
			c.Rows = append(c.Rows, domain.ComparisonRow{ID: e.ids("item"), Label: "Prazo", Left: "30 dias", Right: "12 dias"})
		}
		rec = c
	case domain.BlockStepProcess:
		c := domain.StepProcessConfig{Layout: "arrows", Steps: []domain.ProcessStep{}}
		if placeholders {
			for _, l := range []string{"Diagnóstico", "Plano", "Execução"} {
				c.Steps = append(c.Steps, domain.ProcessStep{ID: e.ids("item"), Title: l})
			}
		}
		rec = c
	case domain.BlockImage:
		rec = domain.ImageConfig{Fit: "cover", Caption: pick(placeholders, "Legenda da imagem", "")}
	case domain.BlockProjectStatus:
		c := domain.ProjectStatusConfig{Status: "on_track", Highlights: []domain.StatusHighlight{}}
		if placeholders {
			c.Progress, c.Owner = 45, "PMO"
			c.Highlights = append(c.Highlights, domain.StatusHighlight{ID: e.ids("item"), Text: "Escopo aprovado"})
		}
		rec = c
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return domain.ToConfig(rec)
}

func (e *Editor) defaultTable(placeholders bool) domain.TableConfig {
	c := domain.TableConfig{
		Columns: []domain.TableColumn{
			{ID: e.ids("item"), Label: "Item", Format: "text"},
			{ID: e.ids("item"), Label: "Valor", Format: "number"},
		},
		Rows: []domain.TableRow{},
	}
	if placeholders {
		c.Rows = append(c.Rows,
			domain.TableRow{ID: e.ids("item"), Cells: []string{"Alpha", "10"}},
			domain.TableRow{ID: e.ids("item"), Cells: []string{"Beta", "20"}})
	}
	return c
}

// defaultKPIGroup always holds four entries; placeholders only decide whether they carry sample values.
func (e *Editor) defaultKPIGroup(placeholders bool) domain.KPIGroupConfig {
	samples := [][2]string{{"Receita", "1,2 mi"}, {"Clientes", "340"}, {"NPS", "72"}, {"Churn", "2,1%"}}
	c := domain.KPIGroupConfig{Items: make([]domain.KPIItem, 0, len(samples))}
	for _, s := range samples {
		it := domain.KPIItem{ID: e.ids("item"), Trend: "flat"}
		if placeholders {
			it.Label, it.Value = s[0], s[1]
		}
		c.Items = append(c.Items, it)
	}
	return c
}

func (e *Editor) defaultKanban(placeholders bool) domain.KanbanConfig {
	c := domain.KanbanConfig{}
	for _, title := range []string{"A fazer", "Em andamento", "Concluído"} {
		col := domain.KanbanColumn{ID: e.ids("item"), Title: title, Cards: []domain.KanbanCard{}}
		if placeholders && title == "A fazer" {
			col.Cards = append(col.Cards, domain.KanbanCard{ID: e.ids("item"), Title: "Revisar orçamento"})
		}
		c.Columns = append(c.Columns, col)
	}
	return c
}

func pick(placeholders bool, sample, empty string) string {
	if placeholders {
		return sample
	}
	return empty
}
