package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/flowlens/pkg/explore"
	"github.com/Sumatoshi-tech/flowlens/pkg/observability"
	"github.com/Sumatoshi-tech/flowlens/pkg/plotpage"
	"github.com/Sumatoshi-tech/flowlens/pkg/record"
	"github.com/Sumatoshi-tech/flowlens/pkg/regionmap"
)

const stdoutPath = "-"

func newRenderCommand(flags *GlobalFlags) *cobra.Command {
	var (
		query      queryFlags
		histColumn []string
		output     string
		theme      string
		title      string
	)

	cmd := &cobra.Command{
		Use:   "render [dataset]",
		Short: "Write an HTML page with the Sankey diagram, histogram and region map",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(flags, observability.ModeCLI, args)
			if err != nil {
				return err
			}
			defer sess.close()

			q := query.query(cmd)

			result, err := sess.explorer.Flow(cmd.Context(), q)
			if err != nil {
				return err
			}

			critQuery := explore.Query{Regions: q.Regions, YearStart: q.YearStart, YearEnd: q.YearEnd}

			histQuery := critQuery
			if cmd.Flags().Changed("hist-columns") {
				histQuery.Columns = nonNil(histColumn)
			}

			series, err := sess.explorer.Histogram(cmd.Context(), histQuery)
			if err != nil {
				return err
			}

			regions, err := regionMap(cmd.Context(), sess, critQuery)
			if err != nil {
				return err
			}

			crit := sess.explorer.Criteria(q)

			page := plotpage.NewPage(title, describe(crit.YearStart, crit.YearEnd, crit.Regions)).
				WithTheme(plotpage.ParseTheme(theme))
			cOpts := plotpage.NewChartOpts(page.Theme)
			style := plotpage.DefaultStyle()

			page.Add(
				plotpage.FlowSection(cOpts, result, style),
				plotpage.HistogramSection(cOpts, series, style),
				plotpage.RegionSection(cOpts, regions, style),
			)

			return writePage(cmd.OutOrStdout(), output, page)
		},
	}

	query.register(cmd.Flags(), "ordered categorical columns for the Sankey diagram (default: config flow.columns)")
	cmd.Flags().StringSliceVar(&histColumn, "hist-columns", nil, "numeric columns for the histogram (default: config histogram.columns)")
	cmd.Flags().StringVarP(&output, "output", "o", "flowlens.html", `output file, "-" for stdout`)
	cmd.Flags().StringVar(&theme, "theme", string(plotpage.ThemeDark), "page theme: dark or light")
	cmd.Flags().StringVar(&title, "title", "flowlens", "page title")

	return cmd
}

// regionMap returns the map for q. A dataset without the configured
// coordinate columns still gets its totals, with no points.
func regionMap(ctx context.Context, sess *session, q explore.Query) (regionmap.Map, error) {
	m, err := sess.explorer.Map(ctx, q)
	if !errors.Is(err, record.ErrUnknownColumn) {
		return m, err
	}

	sess.logger.WarnContext(ctx, "region map has no points", "error", err)

	totals, err := sess.explorer.RegionTotals(ctx, q)
	if err != nil {
		return regionmap.Map{}, err
	}

	return regionmap.Map{Totals: totals}, nil
}

func describe(yearStart, yearEnd int, regions []string) string {
	desc := fmt.Sprintf("Years %d-%d", yearStart, yearEnd)
	if len(regions) > 0 {
		desc += fmt.Sprintf(", regions %v", regions)
	}

	return desc
}

func writePage(stdout io.Writer, path string, page *plotpage.Page) error {
	if path == stdoutPath {
		return page.Render(stdout)
	}

	file, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	renderErr := page.Render(file)
	closeErr := file.Close()

	if renderErr != nil {
		return renderErr
	}

	if closeErr != nil {
		return fmt.Errorf("close output: %w", closeErr)
	}

	fmt.Fprintf(stdout, "Wrote %s\n", path)

	return nil
}
