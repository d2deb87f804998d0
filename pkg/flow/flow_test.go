package flow_test

import (
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/flowlens/pkg/aggregate"
	"github.com/Sumatoshi-tech/flowlens/pkg/filter"
	"github.com/Sumatoshi-tech/flowlens/pkg/flow"
	"github.com/Sumatoshi-tech/flowlens/pkg/record"
)

var (
	schema = record.Schema{
		TimestampColumn: "crash_date",
		RegionColumn:    "region",
		Categorical:     []string{"factor", "vehicle", "crash_time"},
		Numeric:         []string{"injured"},
	}
	allYears = filter.Criteria{YearStart: 2000, YearEnd: 2100}
)

func rec(year int, attrs map[string]string) record.Record {
	return record.New(time.Date(year, 5, 4, 10, 30, 0, 0, time.UTC), attrs, nil)
}

func scenario() *record.Set {
	return record.NewSet(schema, []record.Record{
		rec(2022, map[string]string{"region": "A", "factor": "ice"}),
		rec(2022, map[string]string{"region": "A", "factor": "ice"}),
		rec(2022, map[string]string{"region": "B", "factor": "speed"}),
	})
}

func TestStack_EdgesPerGroup(t *testing.T) {
	t.Parallel()

	groups := []aggregate.GroupCount{
		{Key: aggregate.GroupKey{"A", "ice", "Sedan"}, Count: 5},
		{Key: aggregate.GroupKey{"B", "ice", "Sedan"}, Count: 3},
	}

	edges, err := flow.Stack(groups, []string{"region", "factor", "vehicle"})
	require.NoError(t, err)

	assert.Equal(t, []flow.StageEdge{
		{Source: "A", Target: "ice", Weight: 5},
		{Source: "B", Target: "ice", Weight: 3},
		{Source: "ice", Target: "Sedan", Weight: 5},
		{Source: "ice", Target: "Sedan", Weight: 3},
	}, edges, "parallel ice->Sedan edges stay unmerged")

	// k columns yield k-1 edges per group, each carrying the group count.
	perGroup := map[int]int{}
	for _, e := range edges {
		perGroup[e.Weight]++
	}

	assert.Equal(t, map[int]int{5: 2, 3: 2}, perGroup)
}

func TestStack_InsufficientStages(t *testing.T) {
	t.Parallel()

	_, err := flow.Stack(nil, []string{"region"})
	require.ErrorIs(t, err, flow.ErrInsufficientStages)

	_, err = flow.Stack(nil, nil)
	require.ErrorIs(t, err, flow.ErrInsufficientStages)
}

func TestStack_KeyWidthMismatch(t *testing.T) {
	t.Parallel()

	groups := []aggregate.GroupCount{{Key: aggregate.GroupKey{"A"}, Count: 1}}

	_, err := flow.Stack(groups, []string{"region", "factor"})
	require.ErrorIs(t, err, flow.ErrKeyWidth)
}

func TestStack_EmptyGroups(t *testing.T) {
	t.Parallel()

	edges, err := flow.Stack(nil, []string{"region", "factor"})
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestCode_SortedContiguousIndices(t *testing.T) {
	t.Parallel()

	links, labels := flow.Code([]flow.StageEdge{
		{Source: "A", Target: "ice", Weight: 2},
		{Source: "B", Target: "speed", Weight: 1},
	})

	assert.Equal(t, []string{"A", "B", "ice", "speed"}, labels)
	assert.Equal(t, []flow.Link{
		{Source: 0, Target: 2, Weight: 2},
		{Source: 1, Target: 3, Weight: 1},
	}, links)
}

func TestCode_OrderIndependent(t *testing.T) {
	t.Parallel()

	edges := []flow.StageEdge{
		{Source: "Queens", Target: "Unsafe Speed", Weight: 9},
		{Source: "Bronx", Target: "Unsafe Speed", Weight: 7},
		{Source: "Unsafe Speed", Target: "Sedan", Weight: 9},
		{Source: "Unsafe Speed", Target: "Taxi", Weight: 7},
		{Source: "Bronx", Target: "Driver Inattention", Weight: 4},
		{Source: "Driver Inattention", Target: "Sedan", Weight: 4},
	}

	_, want := flow.Code(edges)

	rng := rand.New(rand.NewPCG(1, 2))

	for range 20 {
		shuffled := slices.Clone(edges)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		links, got := flow.Code(shuffled)
		assert.Equal(t, want, got)

		for i, l := range links {
			assert.Equal(t, shuffled[i].Source, got[l.Source])
			assert.Equal(t, shuffled[i].Target, got[l.Target])
			assert.Equal(t, shuffled[i].Weight, l.Weight)
		}
	}
}

func TestCode_Empty(t *testing.T) {
	t.Parallel()

	links, labels := flow.Code(nil)
	assert.Empty(t, links)
	assert.Empty(t, labels)
}

func TestBuild_EndToEnd(t *testing.T) {
	t.Parallel()

	res, err := flow.Build(scenario(), []string{"region", "factor"}, allYears)
	require.NoError(t, err)
	require.False(t, res.SelectMoreVariables)
	require.NotNil(t, res.Graph)

	assert.Equal(t, []string{"A", "B", "ice", "speed"}, res.Graph.Nodes)
	assert.Equal(t, []flow.Link{
		{Source: 0, Target: 2, Weight: 2},
		{Source: 1, Target: 3, Weight: 1},
	}, res.Graph.Links)
	assert.Equal(t, "ice", res.Graph.Label(2))
	assert.Len(t, res.Groups, 2)
	assert.Empty(t, res.Message())
}

func TestBuild_SelectMoreVariables(t *testing.T) {
	t.Parallel()

	for _, cols := range [][]string{nil, {}, {"region"}, {"unknown"}} {
		res, err := flow.Build(scenario(), cols, allYears)
		require.NoError(t, err)
		assert.True(t, res.SelectMoreVariables)
		assert.Nil(t, res.Graph)
		assert.Equal(t, flow.SelectMoreVariablesMessage, res.Message())
	}
}

func TestBuild_PropagatesErrors(t *testing.T) {
	t.Parallel()

	_, err := flow.Build(scenario(), []string{"region", "weather"}, allYears)
	require.ErrorIs(t, err, aggregate.ErrMissingColumn)

	_, err = flow.Build(scenario(), []string{"region", "factor"}, filter.Criteria{YearStart: 2023, YearEnd: 2022})
	require.ErrorIs(t, err, filter.ErrInvalidYearRange)
}

func TestBuild_FiltersBeforeRanking(t *testing.T) {
	t.Parallel()

	set := record.NewSet(schema, []record.Record{
		rec(2019, map[string]string{"region": "A", "factor": "ice"}),
		rec(2019, map[string]string{"region": "A", "factor": "ice"}),
		rec(2022, map[string]string{"region": "A", "factor": "speed"}),
		rec(2022, map[string]string{"region": "B", "factor": "ice"}),
	})

	res, err := flow.Build(set, []string{"region", "factor"}, filter.Criteria{
		YearStart: 2022, YearEnd: 2022, Regions: []string{"A"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "speed"}, res.Graph.Nodes)
	assert.Equal(t, []flow.Link{{Source: 0, Target: 1, Weight: 1}}, res.Graph.Links)
}

func TestBuild_EmptySubsetYieldsEmptyGraph(t *testing.T) {
	t.Parallel()

	res, err := flow.Build(scenario(), []string{"region", "factor"}, filter.Criteria{YearStart: 1990, YearEnd: 1990})
	require.NoError(t, err)
	require.NotNil(t, res.Graph)
	assert.Empty(t, res.Graph.Nodes)
	assert.Empty(t, res.Graph.Links)
}

func TestBuild_ThreeStagesTopTen(t *testing.T) {
	t.Parallel()

	var recs []record.Record

	vehicles := []string{"Sedan", "Taxi", "Bike", "Bus"}
	factors := []string{"ice", "speed", "phone", "fatigue"}

	for i := range 200 {
		recs = append(recs, rec(2022, map[string]string{
			"region":  []string{"A", "B", "C"}[i%3],
			"factor":  factors[i%len(factors)],
			"vehicle": vehicles[(i/3)%len(vehicles)],
		}))
	}

	res, err := flow.Build(record.NewSet(schema, recs), []string{"region", "factor", "vehicle"}, allYears)
	require.NoError(t, err)

	require.LessOrEqual(t, len(res.Groups), aggregate.TopN)
	assert.Len(t, res.Graph.Links, 2*len(res.Groups))
	assert.True(t, slices.IsSorted(res.Graph.Nodes))

	for _, l := range res.Graph.Links {
		assert.Less(t, l.Source, len(res.Graph.Nodes))
		assert.Less(t, l.Target, len(res.Graph.Nodes))
	}
}
