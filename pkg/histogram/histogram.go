// Package histogram computes percent-normalized frequency distributions of
// numeric columns over a (usually filtered) record set.
package histogram

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Sumatoshi-tech/flowlens/pkg/record"
)

// ErrMissingColumn is returned when a requested column is not a numeric schema column.
var ErrMissingColumn = errors.New("missing numeric column")

const percentScale = 100

// Bin is the frequency of one distinct value.
type Bin struct {
	Value   float64 `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Series is the distribution of a single column. Total counts only the
// records that carry the column.
type Series struct {
	Column  string  `json:"column"`
	Label   string  `json:"label"`
	Total   int     `json:"total"`
	Bins    []Bin   `json:"bins"`
	Summary Summary `json:"summary"`
}

// Build returns one series per column, in column order. Bins are sorted by
// value and their percentages sum to 100 for any non-empty series.
func Build(set *record.Set, columns []string) ([]Series, error) {
	schema := set.Schema()

	for _, col := range columns {
		if schema.KindOf(col) != record.KindNumeric {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	out := make([]Series, 0, len(columns))

	for _, col := range columns {
		out = append(out, buildSeries(set, col))
	}

	return out, nil
}

func buildSeries(set *record.Set, column string) Series {
	counts := make(map[float64]int)
	values := make([]float64, 0, set.Len())

	for _, rec := range set.All() {
		v, ok := rec.Number(column)
		if !ok {
			continue
		}

		counts[v]++
		values = append(values, v)
	}

	bins := make([]Bin, 0, len(counts))

	for v, n := range counts {
		bins = append(bins, Bin{
			Value:   v,
			Count:   n,
			Percent: float64(n) / float64(len(values)) * percentScale,
		})
	}

	slices.SortFunc(bins, func(a, b Bin) int {
		switch {
		case a.Value < b.Value:
			return -1
		case a.Value > b.Value:
			return 1
		default:
			return 0
		}
	})

	return Series{
		Column:  column,
		Label:   Label(column),
		Total:   len(values),
		Bins:    bins,
		Summary: Summarize(values),
	}
}

// Label turns a snake_case column name into a Title Case display label,
// e.g. "number_of_persons_injured" -> "Number Of Persons Injured".
func Label(column string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(column, "_", " "))
}
