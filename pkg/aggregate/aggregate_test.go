package aggregate_test

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/flowlens/pkg/aggregate"
	"github.com/Sumatoshi-tech/flowlens/pkg/record"
)

var schema = record.Schema{
	TimestampColumn: "crash_date",
	RegionColumn:    "region",
	Categorical:     []string{"factor"},
	Numeric:         []string{"injured"},
}

func rec(attrs map[string]string, nums map[string]float64) record.Record {
	return record.New(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), attrs, nums)
}

func TestAggregate_Scenario(t *testing.T) {
	t.Parallel()

	set := record.NewSet(schema, []record.Record{
		rec(map[string]string{"region": "A", "factor": "ice"}, nil),
		rec(map[string]string{"region": "A", "factor": "ice"}, nil),
		rec(map[string]string{"region": "B", "factor": "speed"}, nil),
	})

	got, err := aggregate.Aggregate(set, []string{"region", "factor"})
	require.NoError(t, err)

	assert.Equal(t, []aggregate.GroupCount{
		{Key: aggregate.GroupKey{"A", "ice"}, Count: 2},
		{Key: aggregate.GroupKey{"B", "speed"}, Count: 1},
	}, got)
}

func TestAggregate_ExcludesIncompleteRecords(t *testing.T) {
	t.Parallel()

	set := record.NewSet(schema, []record.Record{
		rec(map[string]string{"region": "A", "factor": "ice"}, nil),
		rec(map[string]string{"region": "A"}, nil),
		rec(map[string]string{"region": "A"}, nil),
	})

	got, err := aggregate.Aggregate(set, []string{"region", "factor"})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Count)
	assert.Equal(t, 1, aggregate.Total(got))
}

func TestAggregate_MissingColumn(t *testing.T) {
	t.Parallel()

	set := record.NewSet(schema, nil)

	_, err := aggregate.Aggregate(set, []string{"region", "weather"})
	require.ErrorIs(t, err, aggregate.ErrMissingColumn)

	_, err = aggregate.Aggregate(set, []string{"crash_date"})
	require.ErrorIs(t, err, aggregate.ErrMissingColumn)
}

func TestAggregate_StableTiesAndTopN(t *testing.T) {
	t.Parallel()

	var recs []record.Record

	// 15 distinct factors; f03 and f07 occur twice, everything else once.
	for i := range 15 {
		recs = append(recs, rec(map[string]string{"factor": fmt.Sprintf("f%02d", i)}, nil))
	}

	recs = append(recs,
		rec(map[string]string{"factor": "f07"}, nil),
		rec(map[string]string{"factor": "f03"}, nil),
	)

	got, err := aggregate.Aggregate(record.NewSet(schema, recs), []string{"factor"})
	require.NoError(t, err)

	require.Len(t, got, aggregate.TopN)
	assert.Equal(t, aggregate.GroupKey{"f03"}, got[0].Key, "first-seen wins among equal counts")
	assert.Equal(t, aggregate.GroupKey{"f07"}, got[1].Key)
	assert.Equal(t, aggregate.GroupKey{"f00"}, got[2].Key)
	assert.Equal(t, aggregate.GroupKey{"f09"}, got[9].Key)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Count, got[i].Count)
	}

	all, err := aggregate.Count(record.NewSet(schema, recs), []string{"factor"})
	require.NoError(t, err)
	assert.Len(t, all, 15)
}

func TestAggregate_NumericColumnsAsLabels(t *testing.T) {
	t.Parallel()

	set := record.NewSet(schema, []record.Record{
		rec(map[string]string{"factor": "ice"}, map[string]float64{"injured": 1}),
		rec(map[string]string{"factor": "ice"}, map[string]float64{"injured": 1}),
		rec(map[string]string{"factor": "ice"}, map[string]float64{"injured": 0}),
	})

	got, err := aggregate.Aggregate(set, []string{"factor", "injured"})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, aggregate.GroupKey{"ice", "1"}, got[0].Key)
	assert.Equal(t, aggregate.GroupKey{"ice", "0"}, got[1].Key)
}

func TestAggregate_NaNIsNotAGroupValue(t *testing.T) {
	t.Parallel()

	set := record.NewSet(schema, []record.Record{
		rec(map[string]string{"factor": "ice"}, map[string]float64{"injured": math.NaN()}),
		rec(map[string]string{"factor": "ice"}, map[string]float64{"injured": math.NaN()}),
		rec(map[string]string{"factor": "ice"}, map[string]float64{"injured": 1}),
	})

	got, err := aggregate.Aggregate(set, []string{"factor", "injured"})
	require.NoError(t, err)

	assert.Equal(t, []aggregate.GroupCount{
		{Key: aggregate.GroupKey{"ice", "1"}, Count: 1},
	}, got)
}

func TestGroupKey(t *testing.T) {
	t.Parallel()

	k := aggregate.GroupKey{"Bronx", "Unsafe Speed"}

	assert.Equal(t, "Bronx / Unsafe Speed", k.String())
	assert.True(t, k.Equal(aggregate.GroupKey{"Bronx", "Unsafe Speed"}))
	assert.False(t, k.Equal(aggregate.GroupKey{"Bronx"}))
}
