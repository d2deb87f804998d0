package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Sumatoshi-tech/flowlens/pkg/config"
	"github.com/Sumatoshi-tech/flowlens/pkg/dataset"
	"github.com/Sumatoshi-tech/flowlens/pkg/explore"
	"github.com/Sumatoshi-tech/flowlens/pkg/observability"
	"github.com/Sumatoshi-tech/flowlens/pkg/version"
)

// ErrNoDataset is returned when neither an argument nor dataset.path names the input.
var ErrNoDataset = errors.New("no dataset: pass a path or set dataset.path")

// session is everything a command needs after startup: configuration,
// telemetry and the loaded snapshot.
type session struct {
	cfg       *config.Config
	providers observability.Providers
	explorer  *explore.Explorer
	logger    *slog.Logger
}

func (s *session) close() {
	shutdownErr := s.providers.Shutdown(context.Background())
	if shutdownErr != nil {
		s.logger.Warn("observability shutdown failed", "error", shutdownErr)
	}
}

// loadConfig reads the configuration and applies -v/-q to the log level.
func loadConfig(flags *GlobalFlags) (*config.Config, error) {
	cfg, err := config.LoadConfig(flags.ConfigPath)
	if err != nil {
		return nil, err
	}

	switch {
	case flags.Quiet:
		cfg.Logging.Level = slog.LevelError.String()
	case flags.Verbose:
		cfg.Logging.Level = slog.LevelDebug.String()
	}

	return cfg, nil
}

// openSession loads config, starts telemetry and reads the dataset named by
// args[0] or dataset.path.
func openSession(flags *GlobalFlags, mode observability.AppMode, args []string) (*session, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	telemetry, err := cfg.Telemetry(mode, version.Version)
	if err != nil {
		return nil, err
	}

	providers, err := observability.Init(telemetry)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	sess := &session{cfg: cfg, providers: providers, logger: providers.Logger}

	explorer, err := sess.load(args)
	if err != nil {
		sess.close()

		return nil, err
	}

	sess.explorer = explorer

	return sess, nil
}

func (s *session) load(args []string) (*explore.Explorer, error) {
	path := s.cfg.Dataset.Path
	if len(args) > 0 {
		path = args[0]
	}

	if path == "" {
		return nil, ErrNoDataset
	}

	opts, err := s.cfg.DatasetOptions()
	if err != nil {
		return nil, err
	}

	ctx, span := s.providers.Tracer.Start(context.Background(), "flowlens.dataset.load")
	defer span.End()

	set, err := dataset.Open(path, s.cfg.Schema(), opts)
	if err != nil {
		span.RecordError(err)

		return nil, err
	}

	s.logger.InfoContext(ctx, "dataset loaded", "path", path, "records", set.Len())

	flowMetrics, err := observability.NewFlowMetrics(s.providers.Meter)
	if err != nil {
		return nil, err
	}

	return explore.New(set, explore.Defaults{
		FlowColumns:      s.cfg.Flow.Columns,
		HistogramColumns: s.cfg.Histogram.Columns,
		Criteria:         s.cfg.Criteria(0, 0),
		MapColumns:       s.cfg.MapColumns(),
		MaxPoints:        s.cfg.Map.MaxPoints,
	}, explore.Options{
		Tracer:  s.providers.Tracer,
		Metrics: flowMetrics,
		Logger:  s.logger,
	}), nil
}

// queryFlags are the selection flags shared by flow, hist, regions and render.
type queryFlags struct {
	columns   []string
	regions   []string
	yearStart int
	yearEnd   int
}

func (q *queryFlags) register(fs *pflag.FlagSet, columnsHelp string) {
	fs.StringSliceVar(&q.columns, "columns", nil, columnsHelp)
	q.registerCriteria(fs)
}

// registerCriteria adds only the region and year flags.
func (q *queryFlags) registerCriteria(fs *pflag.FlagSet) {
	fs.StringSliceVar(&q.regions, "regions", nil, "restrict to these regions (default: config flow.regions)")
	fs.IntVar(&q.yearStart, "year-start", 0, "first year, inclusive (default: config or earliest record)")
	fs.IntVar(&q.yearEnd, "year-end", 0, "last year, inclusive (default: config or latest record)")
}

// query builds an explore.Query. Columns and regions are only set when the
// flag was given, so an explicit --columns="" selects nothing.
func (q *queryFlags) query(cmd *cobra.Command) explore.Query {
	out := explore.Query{YearStart: q.yearStart, YearEnd: q.yearEnd}

	if cmd.Flags().Changed("columns") {
		out.Columns = nonNil(q.columns)
	}

	if cmd.Flags().Changed("regions") {
		out.Regions = nonNil(q.regions)
	}

	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}

	return values
}
