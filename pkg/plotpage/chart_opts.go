package plotpage

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// overlayAlpha is appended to #rrggbb palette colors so overlaid bars stay visible.
const overlayAlpha = "b3"

// ChartOpts derives go-echarts options for flow and histogram charts from a theme.
type ChartOpts struct {
	theme ThemeConfig
}

// NewChartOpts creates a new ChartOpts with the given theme.
func NewChartOpts(theme Theme) *ChartOpts {
	return &ChartOpts{theme: GetThemeConfig(theme)}
}

// DefaultChartOpts returns chart options for the default dark theme.
func DefaultChartOpts() *ChartOpts {
	return NewChartOpts(ThemeDark)
}

func (c *ChartOpts) initOpts(style Style) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		Width:           style.Width,
		Height:          style.Height,
		BackgroundColor: c.theme.ChartBackground,
	})
}

func (c *ChartOpts) sankeyGlobals(style Style) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		c.initOpts(style),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
	}
}

// histogramGlobals lays out a percent axis over a categorical value axis with
// a zoom slider; the legend scrolls once there are many numeric columns.
func (c *ChartOpts) histogramGlobals(style Style) []charts.GlobalOpts {
	muted := &opts.TextStyle{Color: c.theme.ChartTextMuted}
	axisLine := &opts.AxisLine{LineStyle: &opts.LineStyle{Color: c.theme.ChartAxis}}

	return []charts.GlobalOpts{
		c.initOpts(style),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithGridOpts(opts.Grid{
			Top: "20%", Bottom: "15%", Left: "5%", Right: "5%",
			ContainLabel: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: 100},
			opts.DataZoom{Type: "inside"},
		),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      "value",
			AxisLabel: &opts.AxisLabel{Color: c.theme.ChartTextMuted},
			AxisLine:  axisLine,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "percent",
			AxisLabel: &opts.AxisLabel{Color: c.theme.ChartTextMuted},
			AxisLine:  axisLine,
			SplitLine: &opts.SplitLine{
				Show:      opts.Bool(true),
				LineStyle: &opts.LineStyle{Color: c.theme.ChartGrid},
			},
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true), Type: "scroll", Top: "5%", Left: "center",
			TextStyle: muted,
		}),
	}
}

// mapGlobals lays out an equal-role longitude/latitude plane fitted to the data.
func (c *ChartOpts) mapGlobals(style Style) []charts.GlobalOpts {
	axisLabel := &opts.AxisLabel{Color: c.theme.ChartTextMuted}
	splitLine := &opts.SplitLine{
		Show:      opts.Bool(true),
		LineStyle: &opts.LineStyle{Color: c.theme.ChartGrid},
	}

	return []charts.GlobalOpts{
		c.initOpts(style),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithGridOpts(opts.Grid{
			Top: "15%", Bottom: "10%", Left: "5%", Right: "5%",
			ContainLabel: opts.Bool(true),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "longitude", Type: "value", Min: "dataMin", Max: "dataMax",
			AxisLabel: axisLabel, SplitLine: splitLine,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "latitude", Type: "value", Min: "dataMin", Max: "dataMax",
			AxisLabel: axisLabel, SplitLine: splitLine,
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true), Type: "scroll", Top: "2%", Left: "center",
			TextStyle: &opts.TextStyle{Color: c.theme.ChartTextMuted},
		}),
	}
}

func (c *ChartOpts) nodeLabel() opts.Label {
	return opts.Label{Show: opts.Bool(true), Color: c.theme.ChartText}
}

// Color returns the palette color for series or node index i.
func (c *ChartOpts) Color(i int) string {
	return c.theme.Color(i)
}

func (c *ChartOpts) overlayColor(i int) string {
	return c.theme.Color(i) + overlayAlpha
}
