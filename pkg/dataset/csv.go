package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/flowlens/pkg/record"
)

// LoadCSV reads a CSV export with a header row. Every schema column must be
// present in the header; extra columns are ignored.
func LoadCSV(r io.Reader, schema record.Schema, opts Options) (*record.Set, error) {
	b, err := newRowBuilder(schema, opts)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[name] = i
	}

	for _, col := range b.columns {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingHeader, col)
		}
	}

	var records []record.Record

	for row := 1; ; row++ {
		fields, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, readErr)
		}

		rec, buildErr := b.build(row, func(col string) (string, bool) {
			i, ok := pos[col]
			if !ok || i >= len(fields) {
				return "", false
			}

			return fields[i], true
		})
		if buildErr != nil {
			return nil, buildErr
		}

		records = append(records, rec)
	}

	return b.finish(records)
}
