// Package record defines the immutable incident record model shared by every
// stage of the flow and histogram pipelines.
package record

import (
	"maps"
	"math"
	"strconv"
	"time"
)

// Record is one immutable row: a timestamp, named categorical attributes and
// named numeric attributes. Absent attributes are simply not stored.
type Record struct {
	timestamp time.Time
	attrs     map[string]string
	nums      map[string]float64
}

// New creates a Record. The attribute maps are copied; empty categorical
// values and NaN numbers are treated as absent.
func New(ts time.Time, attrs map[string]string, nums map[string]float64) Record {
	rec := Record{
		timestamp: ts,
		attrs:     make(map[string]string, len(attrs)),
		nums:      make(map[string]float64, len(nums)),
	}

	for k, v := range attrs {
		if v == "" {
			continue
		}

		rec.attrs[k] = v
	}

	for k, v := range nums {
		if math.IsNaN(v) {
			continue
		}

		rec.nums[k] = v
	}

	return rec
}

// Timestamp returns the record's date and time.
func (r Record) Timestamp() time.Time {
	return r.timestamp
}

// Year returns the calendar year of the record's timestamp.
func (r Record) Year() int {
	return r.timestamp.Year()
}

// Attr returns a categorical attribute.
func (r Record) Attr(name string) (string, bool) {
	v, ok := r.attrs[name]

	return v, ok
}

// Number returns a numeric attribute.
func (r Record) Number(name string) (float64, bool) {
	v, ok := r.nums[name]

	return v, ok
}

// Value returns the string form of a categorical or numeric attribute.
// Numeric values use their shortest decimal representation, so 2.0 becomes "2".
func (r Record) Value(name string) (string, bool) {
	if v, ok := r.attrs[name]; ok {
		return v, true
	}

	if n, ok := r.nums[name]; ok {
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}

	return "", false
}

// WithAttr returns a copy of r with the categorical attribute set to value.
// r itself is left untouched.
func (r Record) WithAttr(name, value string) Record {
	attrs := maps.Clone(r.attrs)
	if attrs == nil {
		attrs = make(map[string]string, 1)
	}

	if value == "" {
		delete(attrs, name)
	} else {
		attrs[name] = value
	}

	return Record{timestamp: r.timestamp, attrs: attrs, nums: r.nums}
}
