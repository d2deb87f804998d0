package plotpage

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/flowlens/pkg/flow"
	"github.com/Sumatoshi-tech/flowlens/pkg/histogram"
	"github.com/Sumatoshi-tech/flowlens/pkg/regionmap"
)

const (
	sankeyCurveness = 0.5
	pointSize       = 4
	// unknownRegion groups located records that have no region value.
	unknownRegion = "Unknown"
)

// BuildSankey turns a coded flow graph into a Sankey chart. Links reference
// nodes by label; node colors follow the theme palette in node order.
func BuildSankey(cOpts *ChartOpts, graph *flow.Graph, style Style) *charts.Sankey {
	if cOpts == nil {
		cOpts = DefaultChartOpts()
	}

	sankey := charts.NewSankey()
	sankey.SetGlobalOptions(cOpts.sankeyGlobals(style)...)

	nodes := make([]opts.SankeyNode, len(graph.Nodes))
	for i, label := range graph.Nodes {
		nodes[i] = opts.SankeyNode{
			Name:      label,
			ItemStyle: &opts.ItemStyle{Color: cOpts.Color(i)},
		}
	}

	links := make([]opts.SankeyLink, len(graph.Links))
	for i, link := range graph.Links {
		links[i] = opts.SankeyLink{
			Source: graph.Label(link.Source),
			Target: graph.Label(link.Target),
			Value:  float32(link.Weight),
		}
	}

	sankey.AddSeries("flow", nodes, links,
		charts.WithLabelOpts(cOpts.nodeLabel()),
		charts.WithLineStyleOpts(opts.LineStyle{
			Color:     "source",
			Curveness: sankeyCurveness,
		}),
	)

	return sankey
}

// BuildHistogram overlays one percent-normalized bar series per column on a
// shared, ascending value axis.
func BuildHistogram(cOpts *ChartOpts, series []histogram.Series, style Style) *charts.Bar {
	if cOpts == nil {
		cOpts = DefaultChartOpts()
	}

	values := histogramAxis(series)

	labels := make([]string, len(values))
	for i, v := range values {
		labels[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(cOpts.histogramGlobals(style)...)
	bar.SetXAxis(labels)

	for i, s := range series {
		percent := make(map[float64]float64, len(s.Bins))
		for _, b := range s.Bins {
			percent[b.Value] = b.Percent
		}

		data := make([]opts.BarData, len(values))
		for j, v := range values {
			data[j] = opts.BarData{Value: percent[v]}
		}

		bar.AddSeries(s.Label, data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: cOpts.overlayColor(i)}),
			charts.WithBarChartOpts(opts.BarChart{BarGap: "-100%"}),
		)
	}

	return bar
}

// histogramAxis is the sorted union of bin values across series.
func histogramAxis(series []histogram.Series) []float64 {
	var values []float64

	for _, s := range series {
		for _, b := range s.Bins {
			values = append(values, b.Value)
		}
	}

	slices.Sort(values)

	return slices.Compact(values)
}

// Message is a plain text block rendered in place of a chart.
type Message struct {
	Text string
}

// Render implements Renderable.
func (m Message) Render(w io.Writer) error {
	html, err := renderTemplate("message.html", messageData{Text: m.Text})
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, string(html))
	if err != nil {
		return fmt.Errorf("writing message: %w", err)
	}

	return nil
}

// MessageSection returns a section that shows text instead of a chart, used
// for the select-more-variables guidance.
func MessageSection(title, text string) Section {
	return Section{Title: title, Chart: Message{Text: text}}
}

// FlowSection renders a flow build result: the Sankey chart, or the guidance
// message when the result is the select-more-variables sentinel.
func FlowSection(cOpts *ChartOpts, result flow.Result, style Style) Section {
	const title = "Attribute flow"

	if result.SelectMoreVariables || result.Graph == nil {
		return MessageSection(title, flow.SelectMoreVariablesMessage)
	}

	return Section{
		Title: title,
		Subtitle: fmt.Sprintf("%d nodes, %d links from %d matching records",
			len(result.Graph.Nodes), len(result.Graph.Links), result.Matched),
		Chart: BuildSankey(cOpts, result.Graph, style),
	}
}

// HistogramSection renders the overlay histogram of series.
func HistogramSection(cOpts *ChartOpts, series []histogram.Series, style Style) Section {
	return Section{
		Title:    "Distribution",
		Subtitle: "Relative frequency (percent) of each value within the filtered records",
		Chart:    BuildHistogram(cOpts, series, style),
	}
}

// BuildRegionMap plots located records as longitude/latitude points, one
// colored series per region.
func BuildRegionMap(cOpts *ChartOpts, m regionmap.Map, style Style) *charts.Scatter {
	if cOpts == nil {
		cOpts = DefaultChartOpts()
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(cOpts.mapGlobals(style)...)

	var order []string

	byRegion := make(map[string][]opts.ScatterData)

	for _, p := range m.Points {
		region := p.Region
		if region == "" {
			region = unknownRegion
		}

		if _, seen := byRegion[region]; !seen {
			order = append(order, region)
		}

		byRegion[region] = append(byRegion[region], opts.ScatterData{
			Value:      []any{p.Lon, p.Lat, p.Label},
			SymbolSize: pointSize,
		})
	}

	for i, region := range order {
		scatter.AddSeries(region, byRegion[region],
			charts.WithItemStyleOpts(opts.ItemStyle{Color: cOpts.Color(i)}),
		)
	}

	return scatter
}

// RegionSection renders the region map with the record totals in the
// subtitle, or a message when no matching record has coordinates.
func RegionSection(cOpts *ChartOpts, m regionmap.Map, style Style) Section {
	const title = "Region map"

	subtitle := regionSummary(m.Totals)
	if m.Truncated {
		subtitle += fmt.Sprintf(" (first %d located records shown)", len(m.Points))
	}

	if len(m.Points) == 0 {
		return Section{Title: title, Subtitle: subtitle, Chart: Message{Text: "No matching record has coordinates."}}
	}

	return Section{Title: title, Subtitle: subtitle, Chart: BuildRegionMap(cOpts, m, style)}
}

func regionSummary(totals regionmap.Totals) string {
	parts := make([]string, 0, len(totals.Regions))
	for _, rc := range totals.Regions {
		parts = append(parts, fmt.Sprintf("%s: %d", rc.Region, rc.Count))
	}

	summary := fmt.Sprintf("Total records: %d", totals.Total)
	if len(parts) > 0 {
		summary += "; " + strings.Join(parts, ", ")
	}

	return summary
}
