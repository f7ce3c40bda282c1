package pareto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"efscli/internal/schema"
	"efscli/pkg/contracts/domain"
)

func testMapping() schema.FieldMapping {
	m := make(schema.FieldMapping)
	for f, h := range schema.RequiredColumns {
		m[f] = h
	}
	for f := range schema.OptionalColumns {
		m[f] = ""
	}
	return m
}

// row builds a transformed row carrying the grouping and metric columns.
func row(workshop, equipment, equipmentID, failureType, wait, repair, fault string) domain.Row {
	return domain.Row{
		"车间":    workshop,
		"设备":    equipment,
		"设备编号":  equipmentID,
		"失效类型":  failureType,
		"等待时间h": wait,
		"维修时间h": repair,
		"故障时间h": fault,
	}
}

func engineWith(rows []domain.Row) *Engine {
	e := NewEngine(nil)
	e.SetData(rows, testMapping())
	return e
}

func TestEngine_InitialState(t *testing.T) {
	e := engineWith(nil)

	assert.Equal(t, 0, e.Level())
	assert.Empty(t, e.Filters())
	assert.Equal(t, MetricWaitTime, e.Metric())
	assert.False(t, e.ShowKeyOnly())
}

func TestEngine_AggregationRanksDescending(t *testing.T) {
	e := engineWith([]domain.Row{
		row("一车间", "", "", "", "10.00", "1.00", "11.00"),
		row("二车间", "", "", "", "30.00", "2.00", "32.00"),
		row("一车间", "", "", "", "5.00", "3.00", "8.00"),
		row("三车间", "", "", "", "20.00", "4.00", "24.00"),
	})

	view := e.View()

	require.Len(t, view.Items, 3)
	assert.Equal(t, "二车间", view.Items[0].Name)
	assert.InDelta(t, 30.0, view.Items[0].Value, 1e-9)
	assert.Equal(t, "三车间", view.Items[1].Name)
	assert.Equal(t, "一车间", view.Items[2].Name)
	assert.InDelta(t, 15.0, view.Items[2].Value, 1e-9)

	assert.Equal(t, []int{0, 1, 2}, []int{view.Items[0].Rank, view.Items[1].Rank, view.Items[2].Rank})
	assert.InDelta(t, 65.0, view.Total, 1e-9)
}

func TestEngine_CumulativePercentages(t *testing.T) {
	// E2E scenario: values 80/10/6/4 give cumulative 80, 90, 96, 100 and a
	// cutoff at the first group.
	e := engineWith([]domain.Row{
		row("A", "", "", "", "80", "", ""),
		row("B", "", "", "", "10", "", ""),
		row("C", "", "", "", "6", "", ""),
		row("D", "", "", "", "4", "", ""),
	})

	view := e.View()

	require.Len(t, view.Items, 4)
	cumulative := []float64{
		view.Items[0].CumulativePercentage,
		view.Items[1].CumulativePercentage,
		view.Items[2].CumulativePercentage,
		view.Items[3].CumulativePercentage,
	}
	assert.Equal(t, []float64{80, 90, 96, 100}, cumulative)

	assert.Equal(t, 0, view.CutoffIndex)
	assert.True(t, view.Items[0].IsKey)
	assert.False(t, view.Items[1].IsKey)
	assert.False(t, view.Items[3].IsKey)
}

func TestEngine_LastCumulativeClosesAt100(t *testing.T) {
	// P5: irregular values still accumulate to 100 within tolerance.
	e := engineWith([]domain.Row{
		row("A", "", "", "", "3.33", "", ""),
		row("B", "", "", "", "3.33", "", ""),
		row("C", "", "", "", "3.34", "", ""),
	})

	view := e.View()

	require.NotEmpty(t, view.Items)
	last := view.Items[len(view.Items)-1]
	assert.InDelta(t, 100.0, last.CumulativePercentage, 0.01)
}

func TestEngine_TieBreakPreservesFirstSeenOrder(t *testing.T) {
	e := engineWith([]domain.Row{
		row("甲", "", "", "", "5", "", ""),
		row("乙", "", "", "", "5", "", ""),
		row("丙", "", "", "", "5", "", ""),
	})

	view := e.View()

	require.Len(t, view.Items, 3)
	assert.Equal(t, "甲", view.Items[0].Name)
	assert.Equal(t, "乙", view.Items[1].Name)
	assert.Equal(t, "丙", view.Items[2].Name)
}

func TestEngine_EmptyGroupKeyBucketsAsUnknown(t *testing.T) {
	e := engineWith([]domain.Row{
		row("", "", "", "", "10", "", ""),
		row("  ", "", "", "", "5", "", ""),
		row("一车间", "", "", "", "1", "", ""),
	})

	view := e.View()

	require.Len(t, view.Items, 2)
	assert.Equal(t, "未知", view.Items[0].Name)
	assert.InDelta(t, 15.0, view.Items[0].Value, 1e-9)
}

func TestEngine_NonNumericMetricContributesZero(t *testing.T) {
	e := engineWith([]domain.Row{
		row("一车间", "", "", "", "abc", "", ""),
		row("一车间", "", "", "", "2.50", "", ""),
	})

	view := e.View()

	require.Len(t, view.Items, 1)
	assert.InDelta(t, 2.5, view.Items[0].Value, 1e-9)
}

func TestEngine_ZeroTotalIsNaNSafe(t *testing.T) {
	e := engineWith([]domain.Row{
		row("一车间", "", "", "", "", "", ""),
		row("二车间", "", "", "", "0", "", ""),
	})

	view := e.View()

	require.Len(t, view.Items, 2)
	assert.Equal(t, -1, view.CutoffIndex)
	for _, item := range view.Items {
		assert.Zero(t, item.Percentage)
		assert.Zero(t, item.CumulativePercentage)
		assert.False(t, item.IsKey)
	}
}

func TestEngine_DrillDownAndFilters(t *testing.T) {
	e := engineWith([]domain.Row{
		row("一车间", "冲床", "CC-01", "电气", "10", "", ""),
		row("一车间", "铣床", "XC-01", "机械", "5", "", ""),
		row("二车间", "冲床", "CC-02", "电气", "50", "", ""),
	})

	require.True(t, e.DrillDown("一车间"))
	assert.Equal(t, 1, e.Level())

	view := e.View()
	assert.Equal(t, "设备", view.Level.Name)
	assert.Equal(t, "全部 > 一车间", view.Breadcrumb)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "冲床", view.Items[0].Name)
	assert.InDelta(t, 15.0, view.Total, 1e-9)
}

func TestEngine_DrillDownGuards(t *testing.T) {
	e := engineWith([]domain.Row{
		row("一车间", "冲床", "CC-01", "电气", "10", "", ""),
	})

	// Empty and whitespace names are ignored.
	assert.False(t, e.DrillDown(""))
	assert.False(t, e.DrillDown("   "))
	assert.Equal(t, 0, e.Level())

	// Deepest level rejects further drilling.
	require.True(t, e.DrillDown("一车间"))
	require.True(t, e.DrillDown("冲床"))
	require.True(t, e.DrillDown("CC-01"))
	assert.Equal(t, 3, e.Level())
	assert.False(t, e.DrillDown("电气"))
	assert.Equal(t, 3, e.Level())
}

func TestEngine_NavigationStackSymmetry(t *testing.T) {
	// P6: N drill-downs followed by N goBacks restore the initial state.
	e := engineWith([]domain.Row{
		row("一车间", "冲床", "CC-01", "电气", "10", "", ""),
	})

	require.True(t, e.DrillDown("一车间"))
	require.True(t, e.DrillDown("冲床"))
	require.True(t, e.DrillDown("CC-01"))

	require.True(t, e.GoBack())
	require.True(t, e.GoBack())
	require.True(t, e.GoBack())

	assert.Equal(t, 0, e.Level())
	assert.Empty(t, e.Filters())
	assert.False(t, e.GoBack(), "goBack at root is a no-op")
}

func TestEngine_GoBackTwiceFromTwoLevels(t *testing.T) {
	// E2E scenario: drill into 一车间 then 设备A, then back out twice.
	e := engineWith([]domain.Row{
		row("一车间", "设备A", "A-01", "电气", "10", "", ""),
	})

	require.True(t, e.DrillDown("一车间"))
	require.True(t, e.DrillDown("设备A"))
	assert.Equal(t, 2, e.Level())
	assert.Len(t, e.Filters(), 2)

	require.True(t, e.GoBack())
	require.True(t, e.GoBack())

	assert.Equal(t, 0, e.Level())
	assert.Empty(t, e.Filters())
}

func TestEngine_DrillDownSnapshotsFilters(t *testing.T) {
	e := engineWith([]domain.Row{
		row("一车间", "冲床", "CC-01", "电气", "10", "", ""),
	})

	require.True(t, e.DrillDown("一车间"))
	require.True(t, e.DrillDown("冲床"))
	require.True(t, e.GoBack())

	// The restored frame must be the level-1 state, unaffected by the later
	// drill-down.
	assert.Equal(t, 1, e.Level())
	filters := e.Filters()
	require.Len(t, filters, 1)
	assert.Equal(t, Filter{Field: "车间", Value: "一车间"}, filters[0])
}

func TestEngine_ResetPreservesMetric(t *testing.T) {
	// P7: reset restores navigation but not the metric preference.
	e := engineWith([]domain.Row{
		row("一车间", "冲床", "CC-01", "电气", "10", "2", "12"),
	})

	require.True(t, e.SwitchMetric(MetricRepairTime))
	require.True(t, e.DrillDown("一车间"))
	e.ToggleKeyOnly()

	e.Reset()

	assert.Equal(t, 0, e.Level())
	assert.Empty(t, e.Filters())
	assert.False(t, e.ShowKeyOnly())
	assert.Equal(t, MetricRepairTime, e.Metric())
}

func TestEngine_SwitchMetric(t *testing.T) {
	e := engineWith([]domain.Row{
		row("一车间", "", "", "", "1", "2", "3"),
	})

	assert.False(t, e.SwitchMetric("uptime"), "unknown metric is rejected")
	assert.Equal(t, MetricWaitTime, e.Metric())

	require.True(t, e.SwitchMetric(MetricFaultTime))
	view := e.View()
	assert.InDelta(t, 3.0, view.Total, 1e-9)
}

func TestEngine_SetDataResetsEverythingButRows(t *testing.T) {
	e := engineWith([]domain.Row{
		row("一车间", "冲床", "CC-01", "电气", "10", "", ""),
	})
	require.True(t, e.DrillDown("一车间"))
	e.SwitchMetric(MetricFaultTime)
	e.ToggleKeyOnly()

	e.SetData([]domain.Row{row("二车间", "", "", "", "7", "", "")}, testMapping())

	assert.Equal(t, 0, e.Level())
	assert.Empty(t, e.Filters())
	assert.Equal(t, MetricWaitTime, e.Metric())
	assert.False(t, e.ShowKeyOnly())

	view := e.View()
	require.Len(t, view.Items, 1)
	assert.Equal(t, "二车间", view.Items[0].Name)
}

func TestEngine_KeyOnlyTruncatesDisplay(t *testing.T) {
	e := engineWith([]domain.Row{
		row("A", "", "", "", "80", "", ""),
		row("B", "", "", "", "10", "", ""),
		row("C", "", "", "", "10", "", ""),
	})

	assert.True(t, e.ToggleKeyOnly())
	view := e.View()

	require.Len(t, view.Items, 3)
	require.Len(t, view.Display, 1)
	assert.Equal(t, "A", view.Display[0].Name)

	assert.False(t, e.ToggleKeyOnly())
	view = e.View()
	assert.Len(t, view.Display, 3)
}

func TestEngine_FilterMatchingNormalizesWhitespace(t *testing.T) {
	e := engineWith([]domain.Row{
		row(" 一车间 ", "冲床", "", "", "10", "", ""),
	})

	// The aggregated name is trimmed, so drilling with the trimmed name must
	// still match the padded source cell.
	view := e.View()
	require.Len(t, view.Items, 1)
	require.Equal(t, "一车间", view.Items[0].Name)

	require.True(t, e.DrillDown("一车间"))
	drilled := e.View()
	require.Len(t, drilled.Items, 1)
	assert.Equal(t, "冲床", drilled.Items[0].Name)
}
