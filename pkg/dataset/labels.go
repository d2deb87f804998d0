package dataset

import (
	"github.com/Sumatoshi-tech/flowlens/pkg/record"
)

// UniqueLabels returns the distinct values of column in first-seen order.
// Records without the column are skipped: blank cells and missing-value tokens
// never become a label, so there is no placeholder entry such as "None" and
// every label matches at least one record.
func UniqueLabels(set *record.Set, column string) []string {
	seen := make(map[string]struct{})

	var labels []string

	for _, rec := range set.All() {
		v, ok := rec.Value(column)
		if !ok {
			continue
		}

		if _, dup := seen[v]; dup {
			continue
		}

		seen[v] = struct{}{}
		labels = append(labels, v)
	}

	return labels
}

// YearBounds returns the earliest and latest record years. ok is false for an empty set.
func YearBounds(set *record.Set) (first, last int, ok bool) {
	for i, rec := range set.All() {
		year := rec.Year()

		if i == 0 || year < first {
			first = year
		}

		if i == 0 || year > last {
			last = year
		}
	}

	return first, last, set.Len() > 0
}
