package pareto

import "fmt"

// Bar and line colors match the SPA palette: key groups in blue, the rest in
// green, the cumulative line in red.
const (
	colorKey        = "#5470c6"
	colorNonKey     = "#91cc75"
	colorCumulative = "#ee6666"
)

// ChartOption is the declarative option object handed to the external
// chart renderer. The field shape follows the ECharts option schema: a bar
// series on the primary axis, a cumulative-percentage line on the secondary
// axis, and a category axis of group names.
type ChartOption struct {
	Title  TitleOption    `json:"title"`
	Legend LegendOption   `json:"legend"`
	XAxis  []CategoryAxis `json:"xAxis"`
	YAxis  []ValueAxis    `json:"yAxis"`
	Series []Series       `json:"series"`
}

// TitleOption labels the chart with the level title and the breadcrumb path.
type TitleOption struct {
	Text    string `json:"text"`
	Subtext string `json:"subtext"`
	Left    string `json:"left"`
}

// LegendOption lists the series names.
type LegendOption struct {
	Data []string `json:"data"`
	Top  int      `json:"top"`
}

// CategoryAxis is the x axis of group names.
type CategoryAxis struct {
	Type string   `json:"type"`
	Data []string `json:"data"`
}

// ValueAxis is a numeric y axis; the secondary axis is capped at 100%.
type ValueAxis struct {
	Type     string   `json:"type"`
	Name     string   `json:"name"`
	Position string   `json:"position"`
	Max      *float64 `json:"max,omitempty"`
}

// Series is either the metric bar series or the cumulative line series.
type Series struct {
	Name       string        `json:"name"`
	Type       string        `json:"type"`
	YAxisIndex int           `json:"yAxisIndex,omitempty"`
	Data       []SeriesPoint `json:"data"`
	Smooth     bool          `json:"smooth,omitempty"`
	Color      string        `json:"color,omitempty"`
}

// SeriesPoint is one data point; bar points carry a per-item color so key
// groups are visually distinguished.
type SeriesPoint struct {
	Value     float64    `json:"value"`
	ItemStyle *ItemStyle `json:"itemStyle,omitempty"`
}

// ItemStyle holds per-point styling.
type ItemStyle struct {
	Color string `json:"color"`
}

// BuildChartOption turns an aggregated view into the renderer's option
// object.
func BuildChartOption(view *View) *ChartOption {
	metricName := view.Metric.DisplayName()

	names := make([]string, len(view.Display))
	bars := make([]SeriesPoint, len(view.Display))
	line := make([]SeriesPoint, len(view.Display))
	for i, item := range view.Display {
		names[i] = item.Name
		color := colorNonKey
		if item.IsKey {
			color = colorKey
		}
		bars[i] = SeriesPoint{Value: item.Value, ItemStyle: &ItemStyle{Color: color}}
		line[i] = SeriesPoint{Value: item.CumulativePercentage}
	}

	subtext := view.Breadcrumb
	if view.ShowKeyOnly {
		subtext = fmt.Sprintf("%s（仅显示关键项，累计贡献≥80%%）", view.Breadcrumb)
	}

	max := 100.0
	return &ChartOption{
		Title: TitleOption{
			Text:    fmt.Sprintf("%s - %s", view.Level.Title, metricName),
			Subtext: subtext,
			Left:    "center",
		},
		Legend: LegendOption{
			Data: []string{metricName, "累计百分比"},
			Top:  40,
		},
		XAxis: []CategoryAxis{
			{Type: "category", Data: names},
		},
		YAxis: []ValueAxis{
			{Type: "value", Name: metricName, Position: "left"},
			{Type: "value", Name: "累计百分比(%)", Position: "right", Max: &max},
		},
		Series: []Series{
			{
				Name: metricName,
				Type: "bar",
				Data: bars,
			},
			{
				Name:       "累计百分比",
				Type:       "line",
				YAxisIndex: 1,
				Data:       line,
				Smooth:     true,
				Color:      colorCumulative,
			},
		},
	}
}
