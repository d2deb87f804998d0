package flow

import (
	"slices"
)

// Link is a StageEdge expressed with node indices.
type Link struct {
	Source int `json:"source"`
	Target int `json:"target"`
	Weight int `json:"weight"`
}

// Code assigns every distinct label its position in lexicographic order and
// rewrites edges in terms of those indices. The returned labels are the node
// list: labels[i] is the node with index i. The mapping depends only on the
// set of labels, never on edge order.
func Code(edges []StageEdge) ([]Link, []string) {
	seen := make(map[string]struct{}, len(edges)*2)

	for _, e := range edges {
		seen[e.Source] = struct{}{}
		seen[e.Target] = struct{}{}
	}

	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}

	slices.Sort(labels)

	index := make(map[string]int, len(labels))
	for i, label := range labels {
		index[label] = i
	}

	links := make([]Link, len(edges))
	for i, e := range edges {
		links[i] = Link{Source: index[e.Source], Target: index[e.Target], Weight: e.Weight}
	}

	return links, labels
}
