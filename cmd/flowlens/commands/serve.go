package commands

import (
	"context"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/flowlens/pkg/observability"
	"github.com/Sumatoshi-tech/flowlens/pkg/server"
)

func newServeCommand(flags *GlobalFlags) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve [dataset]",
		Short: "Serve the JSON API over HTTP",
		Long: `Serve the loaded dataset over a read-only JSON API:

  GET /api/flow?columns=a,b&year_start=&year_end=&regions=
  GET /api/histogram?columns=&year_start=&year_end=&regions=
  GET /api/labels?column=
  GET /api/years
  GET /healthz
  GET /metrics`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(flags, observability.ModeServe, args)
			if err != nil {
				return err
			}
			defer sess.close()

			red, err := observability.NewREDMetrics(sess.providers.Meter)
			if err != nil {
				return err
			}

			handler := server.NewHandler(server.Deps{
				Explorer:       sess.explorer,
				Tracer:         sess.providers.Tracer,
				RED:            red,
				MetricsHandler: sess.providers.MetricsHandler,
				Logger:         sess.logger,
			})

			srvCfg := sess.cfg.Server
			if cmd.Flags().Changed("host") {
				srvCfg.Host = host
			}

			if cmd.Flags().Changed("port") {
				srvCfg.Port = port
			}

			ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.Run(ctx, server.Options{
				Addr:         net.JoinHostPort(srvCfg.Host, strconv.Itoa(srvCfg.Port)),
				ReadTimeout:  srvCfg.ReadTimeout,
				WriteTimeout: srvCfg.WriteTimeout,
				IdleTimeout:  srvCfg.IdleTimeout,
			}, handler, sess.logger)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default: config server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default: config server.port)")

	return cmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
