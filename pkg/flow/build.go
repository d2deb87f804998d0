package flow

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/flowlens/pkg/aggregate"
	"github.com/Sumatoshi-tech/flowlens/pkg/filter"
	"github.com/Sumatoshi-tech/flowlens/pkg/record"
)

// SelectMoreVariablesMessage is the guidance shown instead of a diagram when
// fewer than two columns were chosen.
const SelectMoreVariablesMessage = "Sankey: Please select two or more variables"

// Graph is the final node/link structure. Nodes[i] is the label of node i.
type Graph struct {
	Nodes []string `json:"nodes"`
	Links []Link   `json:"links"`
}

// Label returns the label of node i.
func (g *Graph) Label(i int) string {
	return g.Nodes[i]
}

// Result is the outcome of Build: either a Graph or the select-more-variables
// guidance. Groups carries the ranked combinations the graph was built from
// and Matched the number of records that passed the criteria.
type Result struct {
	Graph               *Graph                 `json:"graph,omitempty"`
	Groups              []aggregate.GroupCount `json:"groups,omitempty"`
	Matched             int                    `json:"matched"`
	SelectMoreVariables bool                   `json:"select_more_variables,omitempty"`
}

// Message returns the guidance text for a sentinel result, or "".
func (r Result) Message() string {
	if r.SelectMoreVariables {
		return SelectMoreVariablesMessage
	}

	return ""
}

// Build filters set by criteria, ranks the combinations of columns and
// returns the coded flow graph. Fewer than two columns is not an error: the
// result has SelectMoreVariables set and no graph. Any other failure returns
// an error and no partial result.
func Build(set *record.Set, columns []string, criteria filter.Criteria) (Result, error) {
	if len(columns) < MinStages {
		return Result{SelectMoreVariables: true}, nil
	}

	err := criteria.Validate()
	if err != nil {
		return Result{}, fmt.Errorf("filter: %w", err)
	}

	filtered := filter.Apply(set, criteria)

	groups, err := aggregate.Aggregate(filtered, columns)
	if err != nil {
		return Result{}, fmt.Errorf("aggregate: %w", err)
	}

	edges, err := Stack(groups, columns)
	if errors.Is(err, ErrInsufficientStages) {
		return Result{SelectMoreVariables: true}, nil
	}

	if err != nil {
		return Result{}, fmt.Errorf("stack: %w", err)
	}

	links, nodes := Code(edges)

	return Result{
		Graph:   &Graph{Nodes: nodes, Links: links},
		Groups:  groups,
		Matched: filtered.Len(),
	}, nil
}
