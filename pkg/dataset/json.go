package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/flowlens/pkg/record"
)

// LoadJSON reads a JSON array of row objects. The document is validated
// against JSONSchema(schema) before conversion.
func LoadJSON(r io.Reader, schema record.Schema, opts Options) (*record.Set, error) {
	b, err := newRowBuilder(schema, opts)
	if err != nil {
		return nil, err
	}

	var doc any

	dec := json.NewDecoder(r)
	dec.UseNumber()

	err = dec.Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	err = validate(doc, schema)
	if err != nil {
		return nil, err
	}

	// The schema guarantees an array of objects.
	rows, _ := doc.([]any)
	records := make([]record.Record, 0, len(rows))

	for i, item := range rows {
		obj, _ := item.(map[string]any)

		rec, buildErr := b.build(i+1, func(col string) (string, bool) {
			return jsonString(obj[col])
		})
		if buildErr != nil {
			return nil, buildErr
		}

		records = append(records, rec)
	}

	return b.finish(records)
}

// JSONSchema returns the JSON Schema a row document must satisfy. Numeric
// columns accept numbers or numeric strings since open-data APIs often quote them.
func JSONSchema(schema record.Schema) map[string]any {
	props := map[string]any{
		schema.TimestampColumn: map[string]any{"type": "string", "minLength": 1},
	}

	for _, col := range schema.Columns() {
		switch schema.KindOf(col) {
		case record.KindNumeric:
			props[col] = map[string]any{
				"anyOf": []any{
					map[string]any{"type": []any{"number", "null"}},
					map[string]any{"type": "string", "pattern": numericStringPattern},
				},
			}
		default:
			props[col] = map[string]any{"type": []any{"string", "number", "boolean", "null"}}
		}
	}

	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "array",
		"items": map[string]any{
			"type":       "object",
			"required":   []any{schema.TimestampColumn},
			"properties": props,
		},
	}
}

// numericStringPattern accepts quoted decimals, blanks and missing-value tokens.
var numericStringPattern = func() string {
	alts := []string{`-?[0-9]+(\.[0-9]+)?`}
	for _, tok := range slices.Sorted(maps.Keys(missingTokens)) {
		alts = append(alts, regexp.QuoteMeta(tok))
	}

	return `^\s*(` + strings.Join(alts, "|") + `)?\s*$`
}()

func validate(doc any, schema record.Schema) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(JSONSchema(schema)),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("validate json: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		msgs = append(msgs, verr.String())
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(msgs, "; "))
}

func jsonString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return fmt.Sprint(val), true
	}
}
