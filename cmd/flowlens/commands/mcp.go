package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/flowlens/pkg/mcp"
	"github.com/Sumatoshi-tech/flowlens/pkg/observability"
	"github.com/Sumatoshi-tech/flowlens/pkg/version"
)

func newMCPCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp [dataset]",
		Short: "Serve the MCP tools over stdio",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes the loaded dataset as tools that AI agents can discover
and invoke:
  - flowlens_flow_graph: ranked attribute combinations as a flow graph
  - flowlens_histogram:  percent-normalized distributions of numeric columns
  - flowlens_labels:     distinct values of a column

Logs go to stderr; stdout carries the protocol.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(flags, observability.ModeMCP, args)
			if err != nil {
				return err
			}
			defer sess.close()

			red, err := observability.NewREDMetrics(sess.providers.Meter)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Explorer: sess.explorer,
				Version:  version.Version,
				Logger:   sess.logger,
				Metrics:  red,
				Tracer:   sess.providers.Tracer,
			})

			ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx)
		},
	}
}
