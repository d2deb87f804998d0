package report_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/flowlens/pkg/aggregate"
	"github.com/Sumatoshi-tech/flowlens/pkg/flow"
	"github.com/Sumatoshi-tech/flowlens/pkg/histogram"
	"github.com/Sumatoshi-tech/flowlens/pkg/regionmap"
	"github.com/Sumatoshi-tech/flowlens/pkg/report"
)

func goldenResult() flow.Result {
	return flow.Result{
		Graph: &flow.Graph{
			Nodes: []string{"A", "B", "ice", "speed"},
			Links: []flow.Link{{Source: 0, Target: 2, Weight: 2}, {Source: 1, Target: 3, Weight: 1}},
		},
		Groups: []aggregate.GroupCount{
			{Key: aggregate.GroupKey{"A", "ice"}, Count: 2},
			{Key: aggregate.GroupKey{"B", "speed"}, Count: 1},
		},
		Matched: 3,
	}
}

func TestFlow_Tables(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.Flow(&buf, goldenResult(), []string{"borough", "contributing_factor"}))

	out := buf.String()
	assert.Contains(t, out, "BOROUGH")
	assert.Contains(t, out, "CONTRIBUTING FACTOR")
	assert.Contains(t, out, "66.7%")
	assert.Contains(t, out, "33.3%")
	assert.Contains(t, out, "0 A")
	assert.Contains(t, out, "3 speed")
	assert.Contains(t, out, "4 NODES")
}

func TestFlow_SelectMoreVariables(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.Flow(&buf, flow.Result{SelectMoreVariables: true}, []string{"borough"}))

	assert.Contains(t, buf.String(), flow.SelectMoreVariablesMessage)
	assert.NotContains(t, buf.String(), "Weight")
}

func TestFlow_NoMatches(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.Flow(&buf, flow.Result{Graph: &flow.Graph{}}, []string{"a", "b"}))

	assert.Contains(t, buf.String(), "No records match")
}

func TestGroups_HumanizedCounts(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	report.Groups(&buf, []aggregate.GroupCount{{Key: aggregate.GroupKey{"x", "y"}, Count: 12345}}, []string{"a", "b"})

	assert.Contains(t, buf.String(), "12,345")
	assert.Contains(t, buf.String(), "100.0%")
}

func TestHistogram(t *testing.T) {
	t.Parallel()

	series := []histogram.Series{{
		Column: "number_of_persons_injured",
		Label:  "Number Of Persons Injured",
		Total:  4,
		Bins: []histogram.Bin{
			{Value: 0, Count: 3, Percent: 75},
			{Value: 1.5, Count: 1, Percent: 25},
		},
		Summary: histogram.Summary{Mean: 0.375, Median: 0, P95: 1.25},
	}}

	var buf bytes.Buffer
	require.NoError(t, report.Histogram(&buf, series))

	out := buf.String()
	assert.Contains(t, out, "Number Of Persons Injured (4 records)")
	assert.Contains(t, out, "75.00%")
	assert.Contains(t, out, "1.5")
	assert.Contains(t, out, "P95 1.25")
}

func TestLabels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	report.Labels(&buf, "borough", []string{"Brooklyn", "Queens"})

	out := buf.String()
	assert.Contains(t, out, "Brooklyn")
	assert.Contains(t, out, "Queens")
	assert.Contains(t, out, "2 VALUES")
}

func TestJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.JSON(&buf, goldenResult()))

	var decoded flow.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []string{"A", "B", "ice", "speed"}, decoded.Graph.Nodes)
	assert.Equal(t, 3, decoded.Matched)
}

func TestRegions(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.Regions(&buf, regionmap.Totals{
		Total:   12345,
		Regions: []regionmap.RegionCount{{Region: "Queens", Count: 12345}, {Region: "Bronx", Count: 0}},
	}))

	out := buf.String()
	assert.Contains(t, out, "Total records: 12,345")
	assert.Contains(t, out, "REGION")
	assert.Contains(t, out, "100.0%")
	assert.Contains(t, out, "Bronx")
	assert.Contains(t, out, "0.0%")
}

func TestRegions_EmptySelection(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.Regions(&buf, regionmap.Totals{Regions: []regionmap.RegionCount{{Region: "Queens"}}}))

	out := buf.String()
	assert.Contains(t, out, "Total records: 0")
	assert.Contains(t, out, "0.0%")
}
