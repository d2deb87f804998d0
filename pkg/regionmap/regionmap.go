// Package regionmap summarizes where filtered records are: the total, a count
// per region and the coordinates of individual records.
package regionmap

import (
	"fmt"

	"github.com/Sumatoshi-tech/flowlens/pkg/aggregate"
	"github.com/Sumatoshi-tech/flowlens/pkg/record"
)

// RegionCount is the number of records in one region.
type RegionCount struct {
	Region string `json:"region"`
	Count  int    `json:"count"`
}

// Totals is the record count of a filtered set, overall and per region.
type Totals struct {
	Total   int           `json:"total"`
	Regions []RegionCount `json:"regions"`
}

// Count totals set, which is expected to be filtered already. With selected
// regions the result lists exactly those, in the given order, with zero for a
// region that has no records. Without a selection it lists every region
// present, largest first.
func Count(set *record.Set, selected []string) Totals {
	totals := Totals{Total: set.Len(), Regions: []RegionCount{}}

	column := set.Schema().RegionColumn
	if column == "" {
		return totals
	}

	if len(selected) == 0 {
		// The region column is part of every schema that names one, so this cannot fail.
		groups, _ := aggregate.Count(set, []string{column})
		for _, g := range groups {
			totals.Regions = append(totals.Regions, RegionCount{Region: g.Key[0], Count: g.Count})
		}

		return totals
	}

	counts := make(map[string]int, len(selected))

	for _, rec := range set.All() {
		if region, ok := rec.Attr(column); ok {
			counts[region]++
		}
	}

	for _, region := range selected {
		totals.Regions = append(totals.Regions, RegionCount{Region: region, Count: counts[region]})
	}

	return totals
}

// Columns names the coordinate columns and an optional per-point label column.
type Columns struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Label     string `json:"label,omitempty"`
}

// Point is one located record.
type Point struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Region string  `json:"region,omitempty"`
	Label  string  `json:"label,omitempty"`
}

// Points returns the coordinates of records that carry both latitude and
// longitude, in record order. limit > 0 caps the number of points; truncated
// reports whether located records were left out.
func Points(set *record.Set, cols Columns, limit int) (points []Point, truncated bool, err error) {
	schema := set.Schema()

	for _, col := range []string{cols.Latitude, cols.Longitude} {
		if schema.KindOf(col) != record.KindNumeric {
			return nil, false, fmt.Errorf("coordinate column %q: %w", col, record.ErrUnknownColumn)
		}
	}

	if cols.Label != "" {
		err = schema.Require(cols.Label)
		if err != nil {
			return nil, false, fmt.Errorf("label column: %w", err)
		}
	}

	points = []Point{}

	for _, rec := range set.All() {
		lat, okLat := rec.Number(cols.Latitude)
		lon, okLon := rec.Number(cols.Longitude)

		if !okLat || !okLon {
			continue
		}

		if limit > 0 && len(points) == limit {
			return points, true, nil
		}

		p := Point{Lat: lat, Lon: lon}
		p.Region, _ = rec.Attr(schema.RegionColumn)

		if cols.Label != "" {
			p.Label, _ = rec.Value(cols.Label)
		}

		points = append(points, p)
	}

	return points, false, nil
}

// Map is the full region view: totals plus located points.
type Map struct {
	Totals

	Columns   Columns `json:"columns"`
	Points    []Point `json:"points"`
	Truncated bool    `json:"truncated"`
}
