// Package dataset loads materialized incident exports (CSV or JSON, optionally
// LZ4-compressed) into immutable record sets.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Sumatoshi-tech/flowlens/pkg/record"
	"github.com/Sumatoshi-tech/flowlens/pkg/timebucket"
)

// Sentinel errors.
var (
	ErrMissingHeader     = errors.New("column missing from input")
	ErrNoTimestamp       = errors.New("schema has no timestamp column")
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrTooLarge          = errors.New("dataset exceeds size limit")
	ErrSchemaViolation   = errors.New("dataset does not match schema")
)

// SocrataFloatingTimestamp is the timestamp layout used by Socrata open-data exports.
const SocrataFloatingTimestamp = "2006-01-02T15:04:05.000"

// DefaultLayouts are tried in order when parsing the timestamp column.
var DefaultLayouts = []string{
	time.RFC3339,
	SocrataFloatingTimestamp,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
	"01/02/2006",
}

// missingTokens are the cell values read as "no value" for any column kind.
// They match pandas' default na_values, case-sensitively.
var missingTokens = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {},
	"N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {},
	"nan": {}, "null": {},
}

// IsMissing reports whether a raw cell holds no value: blank or a missing-value token.
func IsMissing(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return true
	}

	_, ok := missingTokens[raw]

	return ok
}

// Options control how raw rows become records.
type Options struct {
	// Layouts overrides DefaultLayouts when non-empty.
	Layouts []string
	// Normalize trims and title-cases categorical values.
	Normalize bool
	// ClockColumn, when set, is bucketed into hour ranges after loading.
	ClockColumn string
	// MaxBytes limits the decoded input size. Zero means unlimited.
	MaxBytes int64
}

func (o Options) layouts() []string {
	if len(o.Layouts) > 0 {
		return o.Layouts
	}

	return DefaultLayouts
}

// rowBuilder turns string-valued rows into records for one schema.
type rowBuilder struct {
	schema  record.Schema
	opts    Options
	caser   cases.Caser
	columns []string
}

func newRowBuilder(schema record.Schema, opts Options) (*rowBuilder, error) {
	if schema.TimestampColumn == "" {
		return nil, ErrNoTimestamp
	}

	if opts.ClockColumn != "" && schema.KindOf(opts.ClockColumn) != record.KindCategorical {
		return nil, fmt.Errorf("clock column %q: %w", opts.ClockColumn, record.ErrUnknownColumn)
	}

	return &rowBuilder{
		schema:  schema,
		opts:    opts,
		caser:   cases.Title(language.English),
		columns: append([]string{schema.TimestampColumn}, schema.Columns()...),
	}, nil
}

// build converts one row. get reports the raw string for a column.
func (b *rowBuilder) build(row int, get func(string) (string, bool)) (record.Record, error) {
	rawTS, _ := get(b.schema.TimestampColumn)

	ts, err := parseTimestamp(strings.TrimSpace(rawTS), b.opts.layouts())
	if err != nil {
		return record.Record{}, fmt.Errorf("row %d: %w", row, err)
	}

	attrs := make(map[string]string, len(b.schema.Categorical)+1)
	nums := make(map[string]float64, len(b.schema.Numeric))

	for _, col := range b.schema.Columns() {
		raw, ok := get(col)
		if !ok || IsMissing(raw) {
			continue
		}

		switch b.schema.KindOf(col) {
		case record.KindNumeric:
			raw = strings.TrimSpace(raw)

			n, parseErr := strconv.ParseFloat(raw, 64)
			if parseErr != nil || math.IsInf(n, 0) {
				return record.Record{}, fmt.Errorf("row %d column %s: %w: %q", row, col, timebucket.ErrInputFormat, raw)
			}

			// Spellings such as "NAN" parse but still mean no value.
			if math.IsNaN(n) {
				continue
			}

			nums[col] = n
		case record.KindCategorical:
			attrs[col] = b.normalize(col, raw)
		default:
		}
	}

	return record.New(ts, attrs, nums), nil
}

func (b *rowBuilder) normalize(col, value string) string {
	if !b.opts.Normalize || col == b.opts.ClockColumn {
		return value
	}

	return strings.TrimSpace(b.caser.String(value))
}

// finish wraps the records into a set and applies clock bucketing.
func (b *rowBuilder) finish(records []record.Record) (*record.Set, error) {
	set := record.NewSet(b.schema, records)

	if b.opts.ClockColumn == "" {
		return set, nil
	}

	bucketed, err := timebucket.BucketColumn(set, b.opts.ClockColumn)
	if err != nil {
		return nil, fmt.Errorf("bucket %s: %w", b.opts.ClockColumn, err)
	}

	return bucketed, nil
}

func parseTimestamp(raw string, layouts []string) (time.Time, error) {
	for _, layout := range layouts {
		ts, err := time.Parse(layout, raw)
		if err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: timestamp %q", timebucket.ErrInputFormat, raw)
}
