// Package flow turns ranked attribute combinations into a weighted,
// multi-stage directed graph suitable for a Sankey renderer.
package flow

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/flowlens/pkg/aggregate"
)

// MinStages is the smallest column count that forms at least one edge.
const MinStages = 2

// Sentinel errors.
var (
	// ErrInsufficientStages is returned by Stack for fewer than MinStages columns.
	ErrInsufficientStages = errors.New("at least two stages are required")
	// ErrKeyWidth is returned when a group key does not span every column.
	ErrKeyWidth = errors.New("group key width does not match columns")
)

// StageEdge is a directed edge between the values of two adjacent columns
// of one group, weighted by the group's count.
type StageEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// Stack emits, for every adjacent column pair and every group, one edge from
// the value at position i to the value at position i+1. Edges are grouped by
// column pair, then by group rank. Edges sharing a source and target are kept
// as parallel edges; merging them would change the meaning of the top-N cut.
func Stack(groups []aggregate.GroupCount, columns []string) ([]StageEdge, error) {
	if len(columns) < MinStages {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientStages, len(columns))
	}

	edges := make([]StageEdge, 0, (len(columns)-1)*len(groups))

	for i := range len(columns) - 1 {
		for _, g := range groups {
			if len(g.Key) != len(columns) {
				return nil, fmt.Errorf("%w: %q has %d values, want %d", ErrKeyWidth, g.Key, len(g.Key), len(columns))
			}

			edges = append(edges, StageEdge{
				Source: g.Key[i],
				Target: g.Key[i+1],
				Weight: g.Count,
			})
		}
	}

	return edges, nil
}
