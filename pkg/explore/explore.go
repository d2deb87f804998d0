// Package explore answers flow, histogram, region and label queries over one loaded
// record snapshot. It is the shared backend of the CLI, the HTTP API and the
// MCP server.
package explore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/flowlens/pkg/dataset"
	"github.com/Sumatoshi-tech/flowlens/pkg/filter"
	"github.com/Sumatoshi-tech/flowlens/pkg/flow"
	"github.com/Sumatoshi-tech/flowlens/pkg/histogram"
	"github.com/Sumatoshi-tech/flowlens/pkg/observability"
	"github.com/Sumatoshi-tech/flowlens/pkg/record"
	"github.com/Sumatoshi-tech/flowlens/pkg/regionmap"
)

// Query selects columns and narrows the records. Nil Columns and zero years
// fall back to the explorer defaults; explicitly passed columns are used as
// given, even when there are fewer than two.
type Query struct {
	Columns   []string `json:"columns,omitempty"`
	Regions   []string `json:"regions,omitempty"`
	YearStart int      `json:"year_start,omitempty"`
	YearEnd   int      `json:"year_end,omitempty"`
}

// Defaults are the query values used when a Query leaves them unset.
type Defaults struct {
	FlowColumns      []string
	HistogramColumns []string
	Criteria         filter.Criteria
	MapColumns       regionmap.Columns
	// MaxPoints caps the points of a Map; zero means no cap.
	MaxPoints int
}

// Options configures an Explorer. All fields are optional.
type Options struct {
	Tracer  trace.Tracer
	Metrics *observability.FlowMetrics
	Logger  *slog.Logger
}

// Explorer serves queries over an immutable record set. It is safe for
// concurrent use.
type Explorer struct {
	set       *record.Set
	defaults  Defaults
	firstYear int
	lastYear  int
	hasYears  bool
	tracer    trace.Tracer
	metrics   *observability.FlowMetrics
	logger    *slog.Logger
}

// New creates an Explorer over set. Zero default years are filled from the
// set's own year bounds.
func New(set *record.Set, defaults Defaults, opts Options) *Explorer {
	first, last, ok := dataset.YearBounds(set)

	if defaults.Criteria.YearStart == 0 {
		defaults.Criteria.YearStart = first
	}

	if defaults.Criteria.YearEnd == 0 {
		defaults.Criteria.YearEnd = last
	}

	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("flowlens")
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Explorer{
		set:       set,
		defaults:  defaults,
		firstYear: first,
		lastYear:  last,
		hasYears:  ok,
		tracer:    opts.Tracer,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
}

// Set returns the underlying snapshot.
func (e *Explorer) Set() *record.Set {
	return e.set
}

// Defaults returns the effective defaults, with years resolved.
func (e *Explorer) Defaults() Defaults {
	return e.defaults
}

// Criteria resolves the filter for q.
func (e *Explorer) Criteria(q Query) filter.Criteria {
	crit := e.defaults.Criteria

	if q.YearStart != 0 {
		crit.YearStart = q.YearStart
	}

	if q.YearEnd != 0 {
		crit.YearEnd = q.YearEnd
	}

	if q.Regions != nil {
		crit.Regions = q.Regions
	}

	return crit
}

// Flow builds the flow graph for q.
func (e *Explorer) Flow(ctx context.Context, q Query) (flow.Result, error) {
	columns := q.Columns
	if columns == nil {
		columns = e.defaults.FlowColumns
	}

	crit := e.Criteria(q)

	ctx, span := e.tracer.Start(ctx, "flowlens.flow.build", trace.WithAttributes(
		attribute.StringSlice("flow.columns", columns),
		attribute.Int("flow.year_start", crit.YearStart),
		attribute.Int("flow.year_end", crit.YearEnd),
		attribute.StringSlice("flow.regions", crit.Regions),
	))
	defer span.End()

	start := time.Now()

	result, err := flow.Build(e.set, columns, crit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return flow.Result{}, fmt.Errorf("flow: %w", err)
	}

	stats := observability.FlowStats{SelectMore: result.SelectMoreVariables, RecordsMatched: result.Matched}
	if result.Graph != nil {
		stats.Nodes = len(result.Graph.Nodes)
		stats.Links = len(result.Graph.Links)
	}

	span.SetAttributes(
		attribute.Bool("flow.select_more_variables", stats.SelectMore),
		attribute.Int("flow.nodes", stats.Nodes),
		attribute.Int("flow.links", stats.Links),
	)

	if e.metrics != nil {
		e.metrics.Record(ctx, stats)
	}

	e.logger.DebugContext(ctx, "flow built",
		"columns", columns,
		"matched", result.Matched,
		"nodes", stats.Nodes,
		"links", stats.Links,
		"select_more_variables", stats.SelectMore,
		"duration", time.Since(start),
	)

	return result, nil
}

// Histogram returns the percent-normalized distributions for q over the
// filtered records.
func (e *Explorer) Histogram(ctx context.Context, q Query) ([]histogram.Series, error) {
	columns := q.Columns
	if columns == nil {
		columns = e.defaults.HistogramColumns
	}

	crit := e.Criteria(q)

	_, span := e.tracer.Start(ctx, "flowlens.histogram.build", trace.WithAttributes(
		attribute.StringSlice("histogram.columns", columns),
	))
	defer span.End()

	err := crit.Validate()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("histogram: %w", err)
	}

	series, err := histogram.Build(filter.Apply(e.set, crit), columns)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("histogram: %w", err)
	}

	return series, nil
}

// RegionTotals counts the records matching q's criteria, overall and per
// selected region.
func (e *Explorer) RegionTotals(ctx context.Context, q Query) (regionmap.Totals, error) {
	crit := e.Criteria(q)

	_, span := e.tracer.Start(ctx, "flowlens.regions.count", trace.WithAttributes(
		attribute.StringSlice("regions.selected", crit.Regions),
	))
	defer span.End()

	err := crit.Validate()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return regionmap.Totals{}, fmt.Errorf("regions: %w", err)
	}

	totals := regionmap.Count(filter.Apply(e.set, crit), crit.Regions)
	span.SetAttributes(attribute.Int("regions.total", totals.Total))

	return totals, nil
}

// Map returns the region totals for q together with the located records,
// capped at the configured maximum.
func (e *Explorer) Map(ctx context.Context, q Query) (regionmap.Map, error) {
	crit := e.Criteria(q)

	_, span := e.tracer.Start(ctx, "flowlens.regions.map", trace.WithAttributes(
		attribute.StringSlice("regions.selected", crit.Regions),
	))
	defer span.End()

	err := crit.Validate()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return regionmap.Map{}, fmt.Errorf("map: %w", err)
	}

	filtered := filter.Apply(e.set, crit)

	points, truncated, err := regionmap.Points(filtered, e.defaults.MapColumns, e.defaults.MaxPoints)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return regionmap.Map{}, fmt.Errorf("map: %w", err)
	}

	span.SetAttributes(
		attribute.Int("regions.points", len(points)),
		attribute.Bool("regions.truncated", truncated),
	)

	return regionmap.Map{
		Totals:    regionmap.Count(filtered, crit.Regions),
		Columns:   e.defaults.MapColumns,
		Points:    points,
		Truncated: truncated,
	}, nil
}

// Labels returns the distinct values of column in first-seen order.
func (e *Explorer) Labels(column string) ([]string, error) {
	err := e.set.Schema().Require(column)
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}

	return dataset.UniqueLabels(e.set, column), nil
}

// Years returns the first and last record year; ok is false for an empty set.
func (e *Explorer) Years() (first, last int, ok bool) {
	return e.firstYear, e.lastYear, e.hasYears
}
