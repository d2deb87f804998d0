// Package mcp implements a Model Context Protocol server exposing flowlens
// queries as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/flowlens/pkg/explore"
	"github.com/Sumatoshi-tech/flowlens/pkg/observability"
)

const (
	serverName = "flowlens"
	toolCount  = 4
)

// ServerDeps holds injectable dependencies for the MCP server.
// Explorer is required; nil optional fields disable their concern.
type ServerDeps struct {
	Explorer *explore.Explorer

	// Version is reported as the server implementation version.
	Version string

	Logger  *slog.Logger
	Metrics *observability.REDMetrics
	Tracer  trace.Tracer
}

// Server wraps the MCP SDK server with flowlens tool registrations.
type Server struct {
	inner    *mcpsdk.Server
	explorer *explore.Explorer
	mu       sync.RWMutex
	tools    []string
	metrics  *observability.REDMetrics
	tracer   trace.Tracer
}

// NewServer creates a new MCP server with all flowlens tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	version := deps.Version
	if version == "" {
		version = "dev"
	}

	srv := &Server{
		inner:    mcpsdk.NewServer(&mcpsdk.Implementation{Name: serverName, Version: version}, opts),
		explorer: deps.Explorer,
		tools:    make([]string, 0, toolCount),
		metrics:  deps.Metrics,
		tracer:   deps.Tracer,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := slices.Clone(s.tools)
	slices.Sort(names)

	return names
}

// Run serves on stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves on transport until ctx is canceled or the
// connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	addTool(s, ToolNameFlowGraph, flowGraphToolDescription, s.handleFlowGraph)
	addTool(s, ToolNameHistogram, histogramToolDescription, s.handleHistogram)
	addTool(s, ToolNameRegions, regionsToolDescription, s.handleRegions)
	addTool(s, ToolNameLabels, labelsToolDescription, s.handleLabels)
}

func addTool[Input any](
	s *Server,
	name, description string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        name,
		Description: description,
	}, withMetrics(s.metrics, name, withTracing(s.tracer, name, handler)))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

const (
	mcpSpanPrefix  = "mcp."
	traceIDMetaKey = "trace_id"
)

// withTracing creates a span per invocation and appends the trace id to the
// response content when the span is sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			result.Content = append(result.Content,
				&mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())})
		}

		return result, output, err
	}
}

// withMetrics records RED metrics per invocation. Tool-level errors
// (IsError results) count as errors.
func withMetrics[Input any](
	metrics *observability.REDMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	op := mcpSpanPrefix + toolName

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, op)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, op, status, time.Since(start))

		return result, output, err
	}
}

const (
	flowGraphToolDescription = "Build a weighted multi-stage flow graph (Sankey) from incident records. " +
		"Ranks the ten most frequent combinations of the given categorical columns within an optional " +
		"year window and region set. Fewer than two columns returns select_more_variables instead of a graph."

	histogramToolDescription = "Percent-normalized frequency distribution of numeric columns " +
		"over the records matching an optional year window and region set."

	regionsToolDescription = "Total number of records matching an optional year window and region set, " +
		"with a count per selected region (zero when a region has no records). " +
		"Optionally includes the latitude/longitude of matching records."

	labelsToolDescription = "Distinct values of a column in first-seen order, " +
		"for choosing regions or column values to filter by."
)
