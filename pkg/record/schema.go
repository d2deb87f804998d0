package record

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownColumn is returned when a column identifier is not part of a schema.
var ErrUnknownColumn = errors.New("unknown column")

// Schema describes the columns a record set carries.
type Schema struct {
	TimestampColumn string
	RegionColumn    string
	Categorical     []string
	Numeric         []string
}

// Kind classifies a schema column.
type Kind int

// Column kinds.
const (
	KindUnknown Kind = iota
	KindTimestamp
	KindCategorical
	KindNumeric
)

// KindOf reports how column is declared in the schema.
func (s Schema) KindOf(column string) Kind {
	switch {
	case column == "":
		return KindUnknown
	case column == s.TimestampColumn:
		return KindTimestamp
	case slices.Contains(s.Categorical, column), column == s.RegionColumn:
		return KindCategorical
	case slices.Contains(s.Numeric, column):
		return KindNumeric
	default:
		return KindUnknown
	}
}

// Has reports whether column is a categorical or numeric attribute.
func (s Schema) Has(column string) bool {
	kind := s.KindOf(column)

	return kind == KindCategorical || kind == KindNumeric
}

// Require checks that every column is a categorical or numeric attribute.
func (s Schema) Require(columns ...string) error {
	for _, col := range columns {
		if !s.Has(col) {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
	}

	return nil
}

// Columns returns every attribute column: region first, then categorical,
// then numeric, without duplicates.
func (s Schema) Columns() []string {
	cols := make([]string, 0, len(s.Categorical)+len(s.Numeric)+1)

	if s.RegionColumn != "" {
		cols = append(cols, s.RegionColumn)
	}

	for _, c := range s.Categorical {
		if !slices.Contains(cols, c) {
			cols = append(cols, c)
		}
	}

	for _, c := range s.Numeric {
		if !slices.Contains(cols, c) {
			cols = append(cols, c)
		}
	}

	return cols
}
