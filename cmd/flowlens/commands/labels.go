package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/flowlens/pkg/observability"
	"github.com/Sumatoshi-tech/flowlens/pkg/report"
)

func newLabelsCommand(flags *GlobalFlags) *cobra.Command {
	var (
		column  string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "labels [dataset]",
		Short: "Distinct values of a column in first-seen order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(flags, observability.ModeCLI, args)
			if err != nil {
				return err
			}
			defer sess.close()

			labels, err := sess.explorer.Labels(column)
			if err != nil {
				return err
			}

			if jsonOut {
				return report.JSON(cmd.OutOrStdout(), labels)
			}

			report.Labels(cmd.OutOrStdout(), column, labels)

			return nil
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "column to list (required)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the values as a JSON array")

	_ = cmd.MarkFlagRequired("column")

	return cmd
}
