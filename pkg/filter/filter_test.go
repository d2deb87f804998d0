package filter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/flowlens/pkg/filter"
	"github.com/Sumatoshi-tech/flowlens/pkg/record"
)

func sample() *record.Set {
	at := func(year int) time.Time { return time.Date(year, 6, 1, 12, 0, 0, 0, time.UTC) }

	return record.NewSet(record.Schema{TimestampColumn: "crash_date", RegionColumn: "borough"}, []record.Record{
		record.New(at(2019), map[string]string{"borough": "Bronx", "id": "1"}, nil),
		record.New(at(2022), map[string]string{"borough": "Queens", "id": "2"}, nil),
		record.New(at(2023), map[string]string{"borough": "Bronx", "id": "3"}, nil),
		record.New(at(2022), map[string]string{"id": "4"}, nil),
		record.New(at(2024), map[string]string{"borough": "Queens", "id": "5"}, nil),
	})
}

func ids(set *record.Set) []string {
	out := make([]string, 0, set.Len())

	for _, r := range set.All() {
		id, _ := r.Attr("id")
		out = append(out, id)
	}

	return out
}

func TestApply_YearRangeInclusive(t *testing.T) {
	t.Parallel()

	got := filter.Apply(sample(), filter.Criteria{YearStart: 2022, YearEnd: 2023})
	assert.Equal(t, []string{"2", "3", "4"}, ids(got))
}

func TestApply_Regions(t *testing.T) {
	t.Parallel()

	got := filter.Apply(sample(), filter.Criteria{YearStart: 2000, YearEnd: 2030, Regions: []string{"Bronx"}})
	assert.Equal(t, []string{"1", "3"}, ids(got))
}

func TestApply_RecordWithoutRegionExcludedOnlyWhenRestricted(t *testing.T) {
	t.Parallel()

	open := filter.Apply(sample(), filter.Criteria{YearStart: 2022, YearEnd: 2022})
	assert.Equal(t, []string{"2", "4"}, ids(open))

	restricted := filter.Apply(sample(), filter.Criteria{YearStart: 2022, YearEnd: 2022, Regions: []string{"Queens"}})
	assert.Equal(t, []string{"2"}, ids(restricted))
}

func TestApply_NoMatchIsEmpty(t *testing.T) {
	t.Parallel()

	got := filter.Apply(sample(), filter.Criteria{YearStart: 1990, YearEnd: 1991})
	require.NotNil(t, got)
	assert.Equal(t, 0, got.Len())
}

func TestApply_Idempotent(t *testing.T) {
	t.Parallel()

	c := filter.Criteria{YearStart: 2019, YearEnd: 2023, Regions: []string{"Bronx", "Queens"}}

	once := filter.Apply(sample(), c)
	twice := filter.Apply(once, c)

	assert.Equal(t, ids(once), ids(twice))
	assert.Equal(t, once.Records(), twice.Records())
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	set := sample()
	_ = filter.Apply(set, filter.Criteria{YearStart: 2023, YearEnd: 2023})

	assert.Equal(t, 5, set.Len())
}

func TestCriteria_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, filter.Criteria{YearStart: 2022, YearEnd: 2022}.Validate())
	require.ErrorIs(t, filter.Criteria{YearStart: 2023, YearEnd: 2022}.Validate(), filter.ErrInvalidYearRange)
}
