package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/flowlens/pkg/explore"
	"github.com/Sumatoshi-tech/flowlens/pkg/flow"
)

// Tool name constants.
const (
	ToolNameFlowGraph = "flowlens_flow_graph"
	ToolNameHistogram = "flowlens_histogram"
	ToolNameLabels    = "flowlens_labels"
	ToolNameRegions   = "flowlens_region_totals"
)

// ErrEmptyColumn indicates the column parameter is empty.
var ErrEmptyColumn = errors.New("column parameter is required and must not be empty")

// FlowGraphInput is the input schema for the flowlens_flow_graph tool.
type FlowGraphInput struct {
	Columns   []string `json:"columns,omitempty"    jsonschema:"ordered categorical columns, one stage each (default: configured flow columns)"`
	Regions   []string `json:"regions,omitempty"    jsonschema:"restrict to these regions (default: all)"`
	YearStart int      `json:"year_start,omitempty" jsonschema:"first year, inclusive (default: earliest record)"`
	YearEnd   int      `json:"year_end,omitempty"   jsonschema:"last year, inclusive (default: latest record)"`
}

// HistogramInput is the input schema for the flowlens_histogram tool.
type HistogramInput struct {
	Columns   []string `json:"columns,omitempty"    jsonschema:"numeric columns (default: configured histogram columns)"`
	Regions   []string `json:"regions,omitempty"    jsonschema:"restrict to these regions (default: all)"`
	YearStart int      `json:"year_start,omitempty" jsonschema:"first year, inclusive (default: earliest record)"`
	YearEnd   int      `json:"year_end,omitempty"   jsonschema:"last year, inclusive (default: latest record)"`
}

// RegionsInput is the input schema for the flowlens_region_totals tool.
type RegionsInput struct {
	Regions       []string `json:"regions,omitempty"        jsonschema:"regions to count, zero-filled (default: every region present)"`
	YearStart     int      `json:"year_start,omitempty"     jsonschema:"first year, inclusive (default: earliest record)"`
	YearEnd       int      `json:"year_end,omitempty"       jsonschema:"last year, inclusive (default: latest record)"`
	IncludePoints bool     `json:"include_points,omitempty" jsonschema:"also return record coordinates, capped by map.max_points"`
}

// LabelsInput is the input schema for the flowlens_labels tool.
type LabelsInput struct {
	Column string `json:"column" jsonschema:"column whose distinct values to list"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// FlowGraphOutput is the flowlens_flow_graph payload.
type FlowGraphOutput struct {
	flow.Result

	Message string `json:"message,omitempty"`
}

func (s *Server) handleFlowGraph(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input FlowGraphInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	result, err := s.explorer.Flow(ctx, explore.Query{
		Columns:   input.Columns,
		Regions:   input.Regions,
		YearStart: input.YearStart,
		YearEnd:   input.YearEnd,
	})
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(FlowGraphOutput{Result: result, Message: result.Message()})
}

func (s *Server) handleHistogram(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input HistogramInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	series, err := s.explorer.Histogram(ctx, explore.Query{
		Columns:   input.Columns,
		Regions:   input.Regions,
		YearStart: input.YearStart,
		YearEnd:   input.YearEnd,
	})
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(series)
}

func (s *Server) handleRegions(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input RegionsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	q := explore.Query{
		Regions:   input.Regions,
		YearStart: input.YearStart,
		YearEnd:   input.YearEnd,
	}

	if input.IncludePoints {
		m, err := s.explorer.Map(ctx, q)
		if err != nil {
			return errorResult(err)
		}

		return jsonResult(m)
	}

	totals, err := s.explorer.RegionTotals(ctx, q)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(totals)
}

func (s *Server) handleLabels(
	_ context.Context, _ *mcpsdk.CallToolRequest, input LabelsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.Column == "" {
		return errorResult(ErrEmptyColumn)
	}

	labels, err := s.explorer.Labels(input.Column)
	if err != nil {
		return errorResult(err)
	}

	if labels == nil {
		labels = []string{}
	}

	return jsonResult(map[string]any{"column": input.Column, "labels": labels})
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}
