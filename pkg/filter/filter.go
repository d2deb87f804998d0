// Package filter narrows a record set to a year window and an optional set of regions.
package filter

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/flowlens/pkg/record"
)

// ErrInvalidYearRange is returned when the start year is after the end year.
var ErrInvalidYearRange = errors.New("year start is after year end")

// Criteria restricts records by inclusive year range and region membership.
// An empty Regions slice means no region restriction.
type Criteria struct {
	YearStart int      `json:"year_start"`
	YearEnd   int      `json:"year_end"`
	Regions   []string `json:"regions,omitempty"`
}

// Validate checks the year range invariant.
func (c Criteria) Validate() error {
	if c.YearStart > c.YearEnd {
		return fmt.Errorf("%w: %d > %d", ErrInvalidYearRange, c.YearStart, c.YearEnd)
	}

	return nil
}

// Matches reports whether rec passes the criteria under the given region column.
func (c Criteria) Matches(rec record.Record, regionColumn string) bool {
	year := rec.Year()
	if year < c.YearStart || year > c.YearEnd {
		return false
	}

	if len(c.Regions) == 0 {
		return true
	}

	region, ok := rec.Attr(regionColumn)

	return ok && slices.Contains(c.Regions, region)
}

// Apply returns the records of set that match c, in input order.
// No match yields an empty set, not an error.
func Apply(set *record.Set, c Criteria) *record.Set {
	regionColumn := set.Schema().RegionColumn

	return set.Where(func(rec record.Record) bool {
		return c.Matches(rec, regionColumn)
	})
}
