package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/flowlens/pkg/observability"
	"github.com/Sumatoshi-tech/flowlens/pkg/report"
)

func newHistCommand(flags *GlobalFlags) *cobra.Command {
	var (
		query   queryFlags
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "hist [dataset]",
		Short: "Percent-normalized histograms of numeric columns",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(flags, observability.ModeCLI, args)
			if err != nil {
				return err
			}
			defer sess.close()

			series, err := sess.explorer.Histogram(cmd.Context(), query.query(cmd))
			if err != nil {
				return err
			}

			if jsonOut {
				return report.JSON(cmd.OutOrStdout(), series)
			}

			return report.Histogram(cmd.OutOrStdout(), series)
		},
	}

	query.register(cmd.Flags(), "numeric columns (default: config histogram.columns)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")

	return cmd
}
