// Package commands implements the flowlens CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds the persistent root flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

// NewRootCommand creates the flowlens root command with all subcommands.
func NewRootCommand() *cobra.Command {
	flags := &GlobalFlags{}

	rootCmd := &cobra.Command{
		Use:   "flowlens",
		Short: "flowlens - categorical flow graphs and distributions for incident records",
		Long: `flowlens ranks the most frequent combinations of categorical attributes in
incident records and renders them as a multi-stage flow (Sankey) graph, next
to percent-normalized histograms of numeric attributes.

Commands:
  flow      Build the flow graph for the selected columns
  hist      Percent-normalized histograms of numeric columns
  regions   Record totals overall and per region
  labels    Distinct values of a column
  render    Write an HTML page with the Sankey diagram, histogram and region map
  serve     Serve the JSON API over HTTP
  mcp       Serve the MCP tools over stdio
  config    Print the effective configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "config file (default: flowlens.yaml in ., ./config, /etc/flowlens)")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(
		newFlowCommand(flags),
		newHistCommand(flags),
		newRegionsCommand(flags),
		newLabelsCommand(flags),
		newRenderCommand(flags),
		newServeCommand(flags),
		newMCPCommand(flags),
		newConfigCommand(flags),
		newVersionCommand(),
	)

	return rootCmd
}
