// Package aggregate groups records by an ordered list of columns, counts each
// distinct combination and ranks the combinations by count.
package aggregate

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/flowlens/pkg/record"
)

// TopN bounds the ranked output of Aggregate. It keeps flow diagrams
// readable; narrower filters are the way to see more.
const TopN = 10

// ErrMissingColumn is returned when a grouping column is not in the schema.
var ErrMissingColumn = errors.New("missing column")

// keySep joins GroupKey values into a map key. It cannot occur in
// normalized attribute values.
const keySep = "\x1f"

// GroupKey is the ordered tuple of values, one per grouping column.
type GroupKey []string

// String renders the key as "a / b / c".
func (k GroupKey) String() string {
	return strings.Join(k, " / ")
}

// Equal reports positional equality.
func (k GroupKey) Equal(other GroupKey) bool {
	return slices.Equal(k, other)
}

func (k GroupKey) id() string {
	return strings.Join(k, keySep)
}

// GroupCount is one ranked group.
type GroupCount struct {
	Key   GroupKey `json:"key"`
	Count int      `json:"count"`
}

// Count groups set by columns and returns every group, ranked by count
// descending. Ties keep the order in which keys were first encountered.
// Records missing a value for any column are excluded entirely.
func Count(set *record.Set, columns []string) ([]GroupCount, error) {
	schema := set.Schema()

	for _, col := range columns {
		if !schema.Has(col) {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	index := make(map[string]int)

	var groups []GroupCount

	for _, rec := range set.All() {
		key, ok := keyOf(rec, columns)
		if !ok {
			continue
		}

		id := key.id()

		if pos, seen := index[id]; seen {
			groups[pos].Count++

			continue
		}

		index[id] = len(groups)
		groups = append(groups, GroupCount{Key: key, Count: 1})
	}

	slices.SortStableFunc(groups, func(a, b GroupCount) int {
		return b.Count - a.Count
	})

	return groups, nil
}

// Aggregate is Count truncated to the TopN highest-ranked groups.
func Aggregate(set *record.Set, columns []string) ([]GroupCount, error) {
	groups, err := Count(set, columns)
	if err != nil {
		return nil, err
	}

	return Top(groups, TopN), nil
}

// Top returns at most n leading groups.
func Top(groups []GroupCount, n int) []GroupCount {
	if len(groups) <= n {
		return groups
	}

	return groups[:n]
}

// Total sums the counts of groups.
func Total(groups []GroupCount) int {
	total := 0

	for _, g := range groups {
		total += g.Count
	}

	return total
}

func keyOf(rec record.Record, columns []string) (GroupKey, bool) {
	key := make(GroupKey, len(columns))

	for i, col := range columns {
		v, ok := rec.Value(col)
		if !ok {
			return nil, false
		}

		key[i] = v
	}

	return key, true
}
