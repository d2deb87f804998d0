package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "flowlens.requests.total"
	metricRequestDuration  = "flowlens.request.duration.seconds"
	metricErrorsTotal      = "flowlens.errors.total"
	metricInflightRequests = "flowlens.inflight.requests"

	metricGraphsTotal  = "flowlens.flow.graphs.total"
	metricGraphNodes   = "flowlens.flow.nodes"
	metricGraphLinks   = "flowlens.flow.links"
	metricRecordsMatch = "flowlens.flow.records.matched"

	attrOp      = "op"
	attrStatus  = "status"
	attrOutcome = "outcome"

	// StatusOK marks a successful request.
	StatusOK = "ok"
	// StatusError marks a failed request.
	StatusError = "error"

	// OutcomeGraph is a flow build that produced a graph.
	OutcomeGraph = "graph"
	// OutcomeSelectMore is a flow build that returned the select-more-variables sentinel.
	OutcomeSelectMore = "select_more_variables"
)

// durationBucketBoundaries covers 1ms to 30s; flow builds over an in-memory
// snapshot rarely exceed a second.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

var sizeBucketBoundaries = []float64{0, 2, 5, 10, 20, 50, 100, 250, 1000, 10000, 100000, 1000000}

// REDMetrics holds the OTel instruments for Rate, Error, Duration metrics.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	reqTotal, err := mt.Int64Counter(metricRequestsTotal,
		metric.WithDescription("Total number of requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestsTotal, err)
	}

	reqDuration, err := mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightRequests, err)
	}

	return &REDMetrics{
		requestsTotal:    reqTotal,
		requestDuration:  reqDuration,
		errorsTotal:      errTotal,
		inflightRequests: inflight,
	}, nil
}

// RecordRequest records a completed request with its operation, status, and duration.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// FlowMetrics records the shape of built flow graphs.
type FlowMetrics struct {
	graphsTotal    metric.Int64Counter
	nodes          metric.Int64Histogram
	links          metric.Int64Histogram
	recordsMatched metric.Int64Histogram
}

// FlowStats is one flow build observation.
type FlowStats struct {
	Nodes          int
	Links          int
	RecordsMatched int
	SelectMore     bool
}

// NewFlowMetrics creates flow graph instruments from the given meter.
func NewFlowMetrics(mt metric.Meter) (*FlowMetrics, error) {
	graphs, err := mt.Int64Counter(metricGraphsTotal,
		metric.WithDescription("Flow builds by outcome"),
		metric.WithUnit("{graph}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricGraphsTotal, err)
	}

	nodes, err := mt.Int64Histogram(metricGraphNodes,
		metric.WithDescription("Nodes per flow graph"),
		metric.WithUnit("{node}"),
		metric.WithExplicitBucketBoundaries(sizeBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricGraphNodes, err)
	}

	links, err := mt.Int64Histogram(metricGraphLinks,
		metric.WithDescription("Links per flow graph"),
		metric.WithUnit("{link}"),
		metric.WithExplicitBucketBoundaries(sizeBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricGraphLinks, err)
	}

	matched, err := mt.Int64Histogram(metricRecordsMatch,
		metric.WithDescription("Records surviving the filter per flow build"),
		metric.WithUnit("{record}"),
		metric.WithExplicitBucketBoundaries(sizeBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRecordsMatch, err)
	}

	return &FlowMetrics{
		graphsTotal:    graphs,
		nodes:          nodes,
		links:          links,
		recordsMatched: matched,
	}, nil
}

// Record records one flow build. Size histograms are skipped for the sentinel.
func (fm *FlowMetrics) Record(ctx context.Context, stats FlowStats) {
	if stats.SelectMore {
		fm.graphsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, OutcomeSelectMore)))

		return
	}

	fm.graphsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, OutcomeGraph)))
	fm.nodes.Record(ctx, int64(stats.Nodes))
	fm.links.Record(ctx, int64(stats.Links))
	fm.recordsMatched.Record(ctx, int64(stats.RecordsMatched))
}
