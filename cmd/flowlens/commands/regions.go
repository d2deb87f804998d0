package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/flowlens/pkg/observability"
	"github.com/Sumatoshi-tech/flowlens/pkg/report"
)

func newRegionsCommand(flags *GlobalFlags) *cobra.Command {
	var (
		query   queryFlags
		jsonOut bool
		points  bool
	)

	cmd := &cobra.Command{
		Use:   "regions [dataset]",
		Short: "Record totals overall and per region",
		Long: `Count the records in the selected years, overall and per region.

Selected regions are listed in the given order, with 0 for a region that has
no records. Without --regions every region present is listed, largest first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(flags, observability.ModeCLI, args)
			if err != nil {
				return err
			}
			defer sess.close()

			q := query.query(cmd)

			if points {
				m, mapErr := sess.explorer.Map(cmd.Context(), q)
				if mapErr != nil {
					return mapErr
				}

				return report.JSON(cmd.OutOrStdout(), m)
			}

			totals, err := sess.explorer.RegionTotals(cmd.Context(), q)
			if err != nil {
				return err
			}

			if jsonOut {
				return report.JSON(cmd.OutOrStdout(), totals)
			}

			return report.Regions(cmd.OutOrStdout(), totals)
		},
	}

	query.registerCriteria(cmd.Flags())
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&points, "points", false, "print totals and record coordinates as JSON")

	return cmd
}
