package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/flowlens/pkg/observability"
	"github.com/Sumatoshi-tech/flowlens/pkg/report"
	"github.com/Sumatoshi-tech/flowlens/pkg/server"
)

func newFlowCommand(flags *GlobalFlags) *cobra.Command {
	var (
		query   queryFlags
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "flow [dataset]",
		Short: "Build the flow graph for the selected columns",
		Long: `Rank the ten most frequent combinations of the selected categorical columns
among the records in the year window and region set, and print them together
with the coded node/link graph. Fewer than two columns prints a reminder to
select more variables instead.`,
		Args: cobra.MaximumNArgs(1),
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

			out := cmd.OutOrStdout()

			if jsonOut {
				return report.JSON(out, server.FlowResponse{Result: result, Message: result.Message()})
			}

			columns := q.Columns
			if columns == nil {
				columns = sess.explorer.Defaults().FlowColumns
			}

			return report.Flow(out, result, columns)
		},
	}

	query.register(cmd.Flags(), "ordered categorical columns, one stage each (default: config flow.columns)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")

	return cmd
}
