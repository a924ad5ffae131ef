package exporter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mortgagepulse/internal/aggregation"
	"mortgagepulse/internal/marketshare"
	"mortgagepulse/internal/shared/testutil"
	"mortgagepulse/pkg/contracts/domain"
)

func sampleRecords() []domain.MortgageRecord {
	return []domain.MortgageRecord{
		testutil.Record("Alpha", "0-20", 100, "2025-01-05", testutil.WithLTV(60)),
		testutil.Record("Beta", "0-20", 300, "2025-01-20", testutil.WithLTV(90)),
		testutil.Record("Alpha", "0-20", 200, "2025-02-03", testutil.WithLTV(70)),
	}
}

func TestAggregateTable(t *testing.T) {
	result, err := aggregation.New(nil).Aggregate(context.Background(), sampleRecords(), aggregation.Options{})
	require.NoError(t, err)

	table := AggregateTable(result)
	assert.Equal(t, AggregateHeaders, table.Headers)
	assert.Equal(t, [][]string{
		{"0-20", "2025-01", "400.00", "2", "200.00", "100.00", ""},
		{"0-20", "2025-02", "200.00", "1", "200.00", "100.00", "-50.00"},
	}, table.Rows)

	assert.Empty(t, AggregateTable(nil).Rows)
}

func TestWeightedTable(t *testing.T) {
	result, err := aggregation.New(nil).WeightedAverages(context.Background(), sampleRecords(),
		[]domain.Metric{domain.MetricLTV}, true, aggregation.Options{})
	require.NoError(t, err)

	table := WeightedTable(result)
	assert.Equal(t, WeightedHeaders, table.Headers)
	require.Len(t, table.Rows, 3)
	// (100*60 + 300*90 + 200*70) / 600
	assert.Equal(t, []string{"ltv", "0-20", "", "78.33", "3", "60.00", "90.00", "600.00"}, table.Rows[0])
	assert.Equal(t, []string{"ltv", "0-20", "2025-01", "82.50", "2", "60.00", "90.00", "400.00"}, table.Rows[1])
	assert.Equal(t, []string{"ltv", "0-20", "2025-02", "70.00", "1", "70.00", "70.00", "200.00"}, table.Rows[2])
}

func crossTabRows(t *testing.T) ([]domain.CrossTabRow, []string) {
	t.Helper()
	result, err := marketshare.New(nil).CrossTab(context.Background(), sampleRecords(), nil, marketshare.Options{})
	require.NoError(t, err)
	rows, err := marketshare.Rows(result, marketshare.SortTotalDesc)
	require.NoError(t, err)
	return rows, result.PremiumBands
}

func TestCrossTabTable(t *testing.T) {
	rows, bands := crossTabRows(t)

	table := CrossTabTable(rows, bands)
	assert.Equal(t, CrossTabHeaders, table.Headers)
	// Alpha, Beta and Total Market: two segments, a band subtotal and a row total each.
	require.Len(t, table.Rows, 3*4)

	assert.Equal(t, []string{"Alpha", "0-20", "under_80", "300.00", "2", "100.00"}, table.Rows[0])
	assert.Equal(t, []string{"Alpha", "0-20", "over_80_or_unknown", "0.00", "0", "0.00"}, table.Rows[1])
	assert.Equal(t, []string{"Alpha", "0-20", "all", "300.00", "2", "50.00"}, table.Rows[2])
	assert.Equal(t, []string{"Alpha", "all", "all", "300.00", "2", "50.00"}, table.Rows[3])
	assert.Equal(t, []string{domain.TotalMarketLabel, "all", "all", "600.00", "3", "100.00"}, table.Rows[11])
}

func TestCrossTabWideTable(t *testing.T) {
	rows, bands := crossTabRows(t)

	table := CrossTabWideTable(rows, bands)
	assert.Equal(t, []string{"lender", "0-20 under_80 %", "0-20 over_80_or_unknown %", "0-20 %", "total %", "total amount"}, table.Headers)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"Alpha", "100.00", "0.00", "50.00", "50.00", "300.00"}, table.Rows[0])
	assert.Equal(t, []string{"Beta", "0.00", "100.00", "50.00", "50.00", "300.00"}, table.Rows[1])
	assert.Equal(t, domain.TotalMarketLabel, table.Rows[2][0])
}
