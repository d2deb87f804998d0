package record

import (
	"iter"
	"slices"
)

// Set is an immutable snapshot of records sharing one schema.
// Every pipeline stage reads a Set and, when it narrows or rewrites rows,
// returns a new one. Concurrent readers need no locking.
type Set struct {
	schema  Schema
	records []Record
}

// NewSet creates a Set. The record slice is copied.
func NewSet(schema Schema, records []Record) *Set {
	return &Set{schema: schema, records: slices.Clone(records)}
}

// Schema returns the set's schema.
func (s *Set) Schema() Schema {
	return s.schema
}

// Len returns the number of records.
func (s *Set) Len() int {
	return len(s.records)
}

// At returns the i-th record.
func (s *Set) At(i int) Record {
	return s.records[i]
}

// All iterates records in order.
func (s *Set) All() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		for i, r := range s.records {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Records returns a copy of the record slice.
func (s *Set) Records() []Record {
	return slices.Clone(s.records)
}

// Where returns a new Set holding the records for which keep returns true,
// in their original order.
func (s *Set) Where(keep func(Record) bool) *Set {
	out := make([]Record, 0, len(s.records))

	for _, r := range s.records {
		if keep(r) {
			out = append(out, r)
		}
	}

	return &Set{schema: s.schema, records: out}
}

// with wraps an already-owned slice without copying.
func (s *Set) with(records []Record) *Set {
	return &Set{schema: s.schema, records: records}
}

// Map returns a new Set with fn applied to every record. The first error
// stops the mapping and is returned with the failing index.
func (s *Set) Map(fn func(int, Record) (Record, error)) (*Set, error) {
	out := make([]Record, len(s.records))

	for i, r := range s.records {
		mapped, err := fn(i, r)
		if err != nil {
			return nil, err
		}

		out[i] = mapped
	}

	return s.with(out), nil
}
