// Package report formats flow graphs, histograms, region totals and label lists for the
// terminal with go-pretty tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/flowlens/pkg/aggregate"
	"github.com/Sumatoshi-tech/flowlens/pkg/flow"
	"github.com/Sumatoshi-tech/flowlens/pkg/histogram"
	"github.com/Sumatoshi-tech/flowlens/pkg/regionmap"
)

const percentScale = 100

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	return tbl
}

// Flow writes the ranked groups and coded links of result. The
// select-more-variables sentinel is printed as a highlighted message instead.
func Flow(w io.Writer, result flow.Result, columns []string) error {
	if result.SelectMoreVariables {
		_, err := color.New(color.FgYellow, color.Bold).Fprintln(w, result.Message())
		if err != nil {
			return fmt.Errorf("write message: %w", err)
		}

		return nil
	}

	if len(result.Groups) == 0 {
		_, err := fmt.Fprintf(w, "No records match (%s matched)\n", humanize.Comma(int64(result.Matched)))
		if err != nil {
			return fmt.Errorf("write message: %w", err)
		}

		return nil
	}

	Groups(w, result.Groups, columns)

	_, err := fmt.Fprintln(w)
	if err != nil {
		return fmt.Errorf("write separator: %w", err)
	}

	Links(w, result.Graph)

	return nil
}

// Groups writes one row per ranked combination with its count and its share
// of the listed total.
func Groups(w io.Writer, groups []aggregate.GroupCount, columns []string) {
	tbl := newTable(w)

	header := table.Row{"#"}
	for _, col := range columns {
		header = append(header, histogram.Label(col))
	}

	tbl.AppendHeader(append(header, "Count", "Share"))

	total := aggregate.Total(groups)

	for i, g := range groups {
		row := table.Row{i + 1}
		for _, v := range g.Key {
			row = append(row, v)
		}

		share := float64(g.Count) / float64(total) * percentScale
		tbl.AppendRow(append(row, humanize.Comma(int64(g.Count)), strconv.FormatFloat(share, 'f', 1, 64)+"%"))
	}

	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Total: %s", humanize.Comma(int64(total)))})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Count", Align: text.AlignRight},
		{Name: "Share", Align: text.AlignRight},
	})
	tbl.Render()
}

// Links writes the coded links of graph with their node labels.
func Links(w io.Writer, graph *flow.Graph) {
	if graph == nil {
		return
	}

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Source", "Target", "Weight"})

	for _, l := range graph.Links {
		tbl.AppendRow(table.Row{
			fmt.Sprintf("%d %s", l.Source, graph.Label(l.Source)),
			fmt.Sprintf("%d %s", l.Target, graph.Label(l.Target)),
			humanize.Comma(int64(l.Weight)),
		})
	}

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d nodes", len(graph.Nodes)),
		fmt.Sprintf("%d links", len(graph.Links)),
		"",
	})
	tbl.Render()
}

// Histogram writes one table per series: value, count and percent, followed
// by the summary statistics.
func Histogram(w io.Writer, series []histogram.Series) error {
	for i, s := range series {
		if i > 0 {
			_, err := fmt.Fprintln(w)
			if err != nil {
				return fmt.Errorf("write separator: %w", err)
			}
		}

		_, err := color.New(color.FgCyan, color.Bold).Fprintf(w, "%s (%s records)\n", s.Label, humanize.Comma(int64(s.Total)))
		if err != nil {
			return fmt.Errorf("write title: %w", err)
		}

		tbl := newTable(w)
		tbl.AppendHeader(table.Row{"Value", "Count", "Percent"})

		for _, b := range s.Bins {
			tbl.AppendRow(table.Row{
				strconv.FormatFloat(b.Value, 'f', -1, 64),
				humanize.Comma(int64(b.Count)),
				strconv.FormatFloat(b.Percent, 'f', 2, 64) + "%",
			})
		}

		sum := s.Summary
		tbl.AppendFooter(table.Row{
			fmt.Sprintf("mean %.2f  sd %.2f", sum.Mean, sum.StdDev),
			fmt.Sprintf("median %.2f", sum.Median),
			fmt.Sprintf("p95 %.2f", sum.P95),
		})
		tbl.Render()
	}

	return nil
}

// Regions writes the total record count and one row per region with its
// share of the total.
func Regions(w io.Writer, totals regionmap.Totals) error {
	_, err := color.New(color.FgCyan, color.Bold).Fprintf(w, "Total records: %s\n", humanize.Comma(int64(totals.Total)))
	if err != nil {
		return fmt.Errorf("write title: %w", err)
	}

	if len(totals.Regions) == 0 {
		return nil
	}

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Region", "Count", "Share"})

	for _, rc := range totals.Regions {
		share := 0.0
		if totals.Total > 0 {
			share = float64(rc.Count) / float64(totals.Total) * percentScale
		}

		tbl.AppendRow(table.Row{
			rc.Region,
			humanize.Comma(int64(rc.Count)),
			strconv.FormatFloat(share, 'f', 1, 64) + "%",
		})
	}

	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Count", Align: text.AlignRight},
		{Name: "Share", Align: text.AlignRight},
	})
	tbl.Render()

	return nil
}

// Labels writes the distinct values of column one per line.
func Labels(w io.Writer, column string, values []string) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{histogram.Label(column)})

	for _, v := range values {
		tbl.AppendRow(table.Row{v})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("%d values", len(values))})
	tbl.Render()
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}
