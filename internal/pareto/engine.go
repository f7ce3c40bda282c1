package pareto

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"efscli/internal/schema"
	"efscli/pkg/contracts/domain"
)

// keyThreshold is the cumulative-contribution percentage that ends the
// "vital few": every group at or before the first one whose cumulative share
// reaches this value is a key group.
const keyThreshold = 80.0

// Metric selects which derived hour column drives the analysis.
type Metric string

const (
	MetricWaitTime   Metric = "waitTime"
	MetricRepairTime Metric = "repairTime"
	MetricFaultTime  Metric = "faultTime"
)

// Valid reports whether m is one of the three supported metrics.
func (m Metric) Valid() bool {
	switch m {
	case MetricWaitTime, MetricRepairTime, MetricFaultTime:
		return true
	}
	return false
}

// DisplayName returns the Chinese column label for the metric.
func (m Metric) DisplayName() string {
	switch m {
	case MetricRepairTime:
		return "维修时间h"
	case MetricFaultTime:
		return "故障时间h"
	default:
		return "等待时间h"
	}
}

// field maps the metric onto its logical schema field.
func (m Metric) field() schema.Field {
	switch m {
	case MetricRepairTime:
		return schema.FieldRepairTime
	case MetricFaultTime:
		return schema.FieldFaultTime
	default:
		return schema.FieldWaitTime
	}
}

// Level is one dimension of the drill-down hierarchy.
type Level struct {
	Name   string `json:"name"`
	Header string `json:"header"`
	Title  string `json:"title"`
}

// DrillLevels is the fixed hierarchy, shallowest first.
var DrillLevels = []Level{
	{Name: "车间", Header: schema.RequiredColumns[schema.FieldWorkshop], Title: "按车间分类"},
	{Name: "设备", Header: schema.HeaderEquipment, Title: "按设备分类"},
	{Name: "设备编号", Header: schema.HeaderEquipmentID, Title: "按设备编号分类"},
	{Name: "失效类型", Header: schema.HeaderFailureType, Title: "按失效类型分类"},
}

// Filter is one accumulated equality constraint from a drill-down step.
type Filter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// frame is a navigation-stack entry: the state to restore on goBack.
type frame struct {
	level   int
	filters []Filter
}

// Engine presents the enriched row set as a navigable hierarchy of Pareto
// analyses. All state transitions re-run the aggregation from scratch; there
// is no cached or incremental aggregation. The engine is not safe for
// concurrent use; callers serialize access.
type Engine struct {
	logger *slog.Logger

	rows    []domain.Row
	mapping schema.FieldMapping

	level       int
	filters     []Filter
	stack       []frame
	metric      Metric
	showKeyOnly bool
}

// NewEngine creates an engine with no data. A nil logger falls back to
// slog.Default.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger: logger.With(slog.String("component", "pareto_engine")),
		metric: MetricWaitTime,
	}
}

// SetData replaces the underlying row set and resets navigation, key-only
// mode and the metric to their initial state. The rows are treated as an
// immutable snapshot; the engine never mutates them.
func (e *Engine) SetData(rows []domain.Row, mapping schema.FieldMapping) {
	e.rows = rows
	e.mapping = mapping
	e.level = 0
	e.filters = nil
	e.stack = nil
	e.metric = MetricWaitTime
	e.showKeyOnly = false
}

// DrillDown fixes the clicked group value at the current level and descends
// one dimension. Clicks at the deepest level or with an empty name are
// ignored so stray chart clicks cannot corrupt navigation state.
func (e *Engine) DrillDown(name string) bool {
	if e.level >= len(DrillLevels)-1 {
		return false
	}
	if strings.TrimSpace(name) == "" {
		return false
	}

	e.stack = append(e.stack, frame{
		level:   e.level,
		filters: append([]Filter(nil), e.filters...),
	})
	e.filters = append(e.filters, Filter{Field: DrillLevels[e.level].Header, Value: name})
	e.level++

	e.logger.Debug("drill down",
		slog.Int("level", e.level),
		slog.String("selected", name))
	return true
}

// GoBack restores the state saved by the previous drill-down. No-op at root.
func (e *Engine) GoBack() bool {
	if len(e.stack) == 0 {
		return false
	}
	top := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	e.level = top.level
	e.filters = top.filters
	return true
}

// Reset returns navigation and key-only mode to the initial state. The
// metric is a display preference orthogonal to navigation and survives reset.
func (e *Engine) Reset() {
	e.level = 0
	e.filters = nil
	e.stack = nil
	e.showKeyOnly = false
}

// SwitchMetric changes the analyzed metric. Unknown metrics are ignored.
// Navigation state is unchanged.
func (e *Engine) SwitchMetric(m Metric) bool {
	if !m.Valid() {
		return false
	}
	e.metric = m
	return true
}

// ToggleKeyOnly flips key-only display mode and returns the new value.
func (e *Engine) ToggleKeyOnly() bool {
	e.showKeyOnly = !e.showKeyOnly
	return e.showKeyOnly
}

// Level returns the current drill depth (0-based).
func (e *Engine) Level() int { return e.level }

// Filters returns the accumulated drill-down constraints, shallowest first.
func (e *Engine) Filters() []Filter {
	return append([]Filter(nil), e.filters...)
}

// Metric returns the active metric.
func (e *Engine) Metric() Metric { return e.metric }

// ShowKeyOnly reports whether key-only display mode is active.
func (e *Engine) ShowKeyOnly() bool { return e.showKeyOnly }

// View is one fully aggregated snapshot of the current state, ready for
// chart building.
type View struct {
	Level       Level               `json:"level"`
	Depth       int                 `json:"depth"`
	Metric      Metric              `json:"metric"`
	Breadcrumb  string              `json:"breadcrumb"`
	Filters     []Filter            `json:"filters"`
	Items       []domain.ParetoItem `json:"items"`
	Display     []domain.ParetoItem `json:"display"`
	Total       float64             `json:"total"`
	CutoffIndex int                 `json:"cutoffIndex"`
	ShowKeyOnly bool                `json:"showKeyOnly"`
}

// View aggregates the row set under the current filters, level and metric.
func (e *Engine) View() *View {
	items, total, cutoff := e.aggregate()

	display := items
	if e.showKeyOnly && cutoff >= 0 {
		display = items[:cutoff+1]
	}

	return &View{
		Level:       DrillLevels[e.level],
		Depth:       e.level,
		Metric:      e.metric,
		Breadcrumb:  e.breadcrumb(),
		Filters:     e.Filters(),
		Items:       items,
		Display:     display,
		Total:       total,
		CutoffIndex: cutoff,
		ShowKeyOnly: e.showKeyOnly,
	}
}

// aggregate runs the full grouping, ranking and cumulative-percentage pass.
// Groups tie on summed value in first-seen input order (stable sort), so
// equal integer-hour groups rank deterministically.
func (e *Engine) aggregate() (items []domain.ParetoItem, total float64, cutoff int) {
	groupHeader := DrillLevels[e.level].Header
	metricHeader := e.mapping.Header(e.metric.field())

	sums := make(map[string]float64)
	var order []string

	for _, row := range e.rows {
		if !e.matches(row) {
			continue
		}
		key := strings.TrimSpace(row[groupHeader])
		if key == "" {
			key = schema.UnknownValue
		}
		if _, seen := sums[key]; !seen {
			order = append(order, key)
		}
		// Non-numeric metric cells contribute 0.
		sums[key] += cast.ToFloat64(strings.TrimSpace(row[metricHeader]))
	}

	items = make([]domain.ParetoItem, 0, len(order))
	for _, name := range order {
		items = append(items, domain.ParetoItem{Name: name, Value: sums[name]})
		total += sums[name]
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Value > items[j].Value
	})

	cutoff = -1
	var cumulative float64
	for i := range items {
		items[i].Rank = i
		if total == 0 {
			// 0/0 percentages are undefined; surface zeros, flag nothing as
			// key, and never let NaN reach the chart.
			continue
		}
		cumulative += items[i].Value
		items[i].Percentage = round2(items[i].Value / total * 100)
		items[i].CumulativePercentage = round2(cumulative / total * 100)
		if cutoff == -1 && items[i].CumulativePercentage >= keyThreshold {
			cutoff = i
		}
		items[i].IsKey = cutoff == -1 || i <= cutoff
	}

	return items, total, cutoff
}

// matches applies the accumulated filters as a conjunction of trimmed
// string-equality predicates.
func (e *Engine) matches(row domain.Row) bool {
	for _, f := range e.filters {
		if strings.TrimSpace(row[f.Field]) != strings.TrimSpace(f.Value) {
			return false
		}
	}
	return true
}

// breadcrumb renders the navigation path, e.g. 全部 > 一车间 > 冲床.
func (e *Engine) breadcrumb() string {
	parts := []string{"全部"}
	for _, f := range e.filters {
		parts = append(parts, f.Value)
	}
	return strings.Join(parts, " > ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
