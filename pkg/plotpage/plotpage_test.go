package plotpage_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/flowlens/pkg/flow"
	"github.com/Sumatoshi-tech/flowlens/pkg/histogram"
	"github.com/Sumatoshi-tech/flowlens/pkg/plotpage"
	"github.com/Sumatoshi-tech/flowlens/pkg/regionmap"
)

func goldenGraph() *flow.Graph {
	return &flow.Graph{
		Nodes: []string{"A", "B", "ice", "speed"},
		Links: []flow.Link{{Source: 0, Target: 2, Weight: 2}, {Source: 1, Target: 3, Weight: 1}},
	}
}

func TestBuildSankey(t *testing.T) {
	t.Parallel()

	chart := plotpage.BuildSankey(nil, goldenGraph(), plotpage.DefaultStyle())
	require.NotNil(t, chart)
	require.Len(t, chart.MultiSeries, 1)
	assert.Equal(t, "flow", chart.MultiSeries[0].Name)

	var buf bytes.Buffer
	require.NoError(t, chart.Render(&buf))

	out := buf.String()
	assert.Contains(t, out, `"sankey"`)
	assert.Contains(t, out, `"source":"A"`)
	assert.Contains(t, out, `"target":"speed"`)
}

func TestBuildHistogram_OverlaySharedAxis(t *testing.T) {
	t.Parallel()

	series := []histogram.Series{
		{Column: "injured", Label: "Injured", Total: 4, Bins: []histogram.Bin{
			{Value: 0, Count: 3, Percent: 75}, {Value: 2, Count: 1, Percent: 25},
		}},
		{Column: "killed", Label: "Killed", Total: 4, Bins: []histogram.Bin{
			{Value: 0, Count: 4, Percent: 100},
		}},
	}

	chart := plotpage.BuildHistogram(plotpage.NewChartOpts(plotpage.ThemeLight), series, plotpage.DefaultStyle())
	require.Len(t, chart.MultiSeries, 2)
	assert.Equal(t, "Injured", chart.MultiSeries[0].Name)
	assert.Equal(t, "Killed", chart.MultiSeries[1].Name)

	var buf bytes.Buffer
	require.NoError(t, chart.Render(&buf))
	assert.Contains(t, buf.String(), `"barGap":"-100%"`)
}

func TestPageRender_FlowAndHistogram(t *testing.T) {
	t.Parallel()

	page := plotpage.NewPage("NYC collisions", "2019-2021").WithTheme(plotpage.ThemeLight)
	cOpts := plotpage.NewChartOpts(page.Theme)

	page.Add(
		plotpage.FlowSection(cOpts, flow.Result{Graph: goldenGraph(), Matched: 3}, plotpage.DefaultStyle()),
		plotpage.HistogramSection(cOpts, []histogram.Series{{Label: "Injured"}}, plotpage.DefaultStyle()),
	)

	var buf bytes.Buffer
	require.NoError(t, page.Render(&buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Equal(t, 1, strings.Count(out, "<!DOCTYPE"), "chart pages must be stripped to fragments")
	assert.Contains(t, out, "<title>NYC collisions</title>")
	assert.Contains(t, out, "4 nodes, 2 links from 3 matching records")
	assert.Contains(t, out, `class="echart-box"`)
	assert.Contains(t, out, "#fafaf9")
}

func TestFlowSection_SelectMoreVariables(t *testing.T) {
	t.Parallel()

	page := plotpage.NewPage("flow", "")
	page.Add(plotpage.FlowSection(nil, flow.Result{SelectMoreVariables: true}, plotpage.DefaultStyle()))

	var buf bytes.Buffer
	require.NoError(t, page.Render(&buf))

	out := buf.String()
	assert.Contains(t, out, flow.SelectMoreVariablesMessage)
	assert.NotContains(t, out, "echart-box")
}

func TestMessage_EscapesText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, plotpage.Message{Text: "<b>x</b>"}.Render(&buf))
	assert.Contains(t, buf.String(), "&lt;b&gt;x&lt;/b&gt;")
}

func collisionMap() regionmap.Map {
	return regionmap.Map{
		Totals: regionmap.Totals{Total: 4, Regions: []regionmap.RegionCount{
			{Region: "QUEENS", Count: 3}, {Region: "BRONX", Count: 0},
		}},
		Points: []regionmap.Point{
			{Lat: 40.75, Lon: -73.83, Region: "QUEENS", Label: "MAIN ST"},
			{Lat: 40.76, Lon: -73.82, Region: "QUEENS"},
			{Lat: 40.71, Lon: -74.0},
		},
	}
}

func TestBuildRegionMap_SeriesPerRegion(t *testing.T) {
	t.Parallel()

	chart := plotpage.BuildRegionMap(nil, collisionMap(), plotpage.DefaultStyle())
	require.Len(t, chart.MultiSeries, 2)
	assert.Equal(t, "QUEENS", chart.MultiSeries[0].Name)
	assert.Equal(t, "Unknown", chart.MultiSeries[1].Name)

	var buf bytes.Buffer
	require.NoError(t, chart.Render(&buf))

	out := buf.String()
	assert.Contains(t, out, `"scatter"`)
	assert.Contains(t, out, "MAIN ST")
	assert.Contains(t, out, "longitude")
}

func TestRegionSection_TotalsInSubtitle(t *testing.T) {
	t.Parallel()

	m := collisionMap()
	m.Truncated = true

	section := plotpage.RegionSection(nil, m, plotpage.DefaultStyle())
	assert.Equal(t, "Region map", section.Title)
	assert.Equal(t, "Total records: 4; QUEENS: 3, BRONX: 0 (first 3 located records shown)", section.Subtitle)

	_, isScatter := section.Chart.(*charts.Scatter)
	assert.True(t, isScatter)
}

func TestRegionSection_NoPoints(t *testing.T) {
	t.Parallel()

	section := plotpage.RegionSection(nil, regionmap.Map{Totals: regionmap.Totals{Regions: []regionmap.RegionCount{}}}, plotpage.DefaultStyle())
	assert.Equal(t, "Total records: 0", section.Subtitle)
	assert.Equal(t, plotpage.Message{Text: "No matching record has coordinates."}, section.Chart)
}

type failingChart struct{}

var errChart = errors.New("chart failed")

func (failingChart) Render(io.Writer) error { return errChart }

func TestPageRender_ChartError(t *testing.T) {
	t.Parallel()

	page := plotpage.NewPage("broken", "")
	page.Add(plotpage.Section{Title: "x", Chart: failingChart{}})

	err := page.Render(io.Discard)
	require.ErrorIs(t, err, errChart)
}

func TestParseTheme(t *testing.T) {
	t.Parallel()

	assert.Equal(t, plotpage.ThemeLight, plotpage.ParseTheme("light"))
	assert.Equal(t, plotpage.ThemeDark, plotpage.ParseTheme("dark"))
	assert.Equal(t, plotpage.ThemeDark, plotpage.ParseTheme(""))
}
