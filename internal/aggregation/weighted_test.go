package aggregation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mortgagepulse/internal/errors"
	"mortgagepulse/internal/shared/testutil"
	"mortgagepulse/pkg/contracts/domain"
)

func TestWeightedAverages_LTV(t *testing.T) {
	records := []domain.MortgageRecord{
		testutil.Record("A", "160-180", 100, "2025-01-05", testutil.WithLTV(70)),
		testutil.Record("B", "160-180", 300, "2025-01-20", testutil.WithLTV(90)),
	}

	result, err := New(nil).WeightedAverages(context.Background(), records, []domain.Metric{domain.MetricLTV}, false, Options{})
	require.NoError(t, err)

	stat := result.ByBand[domain.MetricLTV]["160-180"]
	assert.Equal(t, 85.0, stat.WeightedAverage)
	assert.Equal(t, 34000.0, stat.WeightedSum)
	assert.Equal(t, 400.0, stat.TotalWeight)
	assert.Equal(t, 2, stat.Count)
	assert.Equal(t, 70.0, stat.Min)
	assert.Equal(t, 90.0, stat.Max)
	assert.Nil(t, result.ByBandMonth)
	assert.Empty(t, result.Months)
}

func TestWeightedAverages_ExclusionRules(t *testing.T) {
	records := []domain.MortgageRecord{
		testutil.Record("ok", "0-20", 200, "2025-01-01", testutil.WithLTV(60), testutil.WithMetric(domain.MetricInitialRate, 4.5)),
		testutil.Record("zero amount", "0-20", 0, "2025-01-01", testutil.WithLTV(99)),
		testutil.Record("raw amount", "0-20", 0, "2025-01-01", testutil.WithRawAmount("tbc"), testutil.WithLTV(99)),
		testutil.Record("zero ltv", "0-20", 500, "2025-01-01", testutil.WithLTV(0), testutil.WithMetric(domain.MetricInitialRate, 5.5)),
		testutil.Record("raw ltv", "0-20", 500, "2025-01-01", testutil.WithRawLTV("n/a")),
		testutil.Record("unknown band", domain.UnknownBand, 500, "2025-01-01", testutil.WithLTV(99)),
	}

	result, err := New(nil).WeightedAverages(context.Background(), records, []domain.Metric{domain.MetricLTV, domain.MetricInitialRate}, false, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"0-20"}, result.PremiumBands)

	ltv := result.ByBand[domain.MetricLTV]["0-20"]
	assert.Equal(t, 1, ltv.Count)
	assert.Equal(t, 60.0, ltv.WeightedAverage)

	rate := result.ByBand[domain.MetricInitialRate]["0-20"]
	assert.Equal(t, 2, rate.Count, "metrics accumulate independently")
	assert.InDelta(t, (4.5*200+5.5*500)/700, rate.WeightedAverage, 1e-9)
	assert.Equal(t, 4.5, rate.Min)
	assert.Equal(t, 5.5, rate.Max)
}

func TestWeightedAverages_NoValidValuesGivesZeros(t *testing.T) {
	records := []domain.MortgageRecord{
		testutil.Record("A", "20-40", 100, "2025-01-01", testutil.WithRawLTV("?")),
	}

	result, err := New(nil).WeightedAverages(context.Background(), records, []domain.Metric{domain.MetricLTV}, false, Options{})
	require.NoError(t, err)

	assert.Equal(t, domain.WeightedStat{}, result.ByBand[domain.MetricLTV]["20-40"])
}

func TestWeightedAverages_Monthly(t *testing.T) {
	records := []domain.MortgageRecord{
		testutil.Record("A", "0-20", 100, "2025-01-05", testutil.WithLTV(70)),
		testutil.Record("B", "0-20", 300, "2025-02-20", testutil.WithLTV(90)),
		testutil.Record("C", "0-20", 100, "", testutil.WithLTV(50)),
	}

	result, err := New(nil).WeightedAverages(context.Background(), records, []domain.Metric{domain.MetricLTV}, true, Options{
		MonthRange: &MonthRange{Start: "2025-01", End: "2025-03"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-01", "2025-02", "2025-03"}, result.Months)
	monthly := result.ByBandMonth[domain.MetricLTV]["0-20"]
	assert.Equal(t, 70.0, monthly["2025-01"].WeightedAverage)
	assert.Equal(t, 90.0, monthly["2025-02"].WeightedAverage)
	assert.Equal(t, domain.WeightedStat{}, monthly["2025-03"])

	byBand := result.ByBand[domain.MetricLTV]["0-20"]
	assert.Equal(t, 3, byBand.Count, "undated records still count towards the band figure")
	assert.Equal(t, 50.0, byBand.Min)
}

func TestWeightedAverages_MonthsFromContributingRecords(t *testing.T) {
	records := []domain.MortgageRecord{
		testutil.Record("A", "0-20", 100, "2025-01-05", testutil.WithLTV(70)),
		testutil.Record("B", domain.UnknownBand, 300, "2025-02-20", testutil.WithLTV(90)),
		testutil.Record("C", "0-20", 0, "2025-03-02", testutil.WithRawAmount("n/a"), testutil.WithLTV(80)),
		testutil.Record("D", "0-20", 200, "2025-04-11", testutil.WithLTV(60)),
	}

	result, err := New(nil).WeightedAverages(context.Background(), records, []domain.Metric{domain.MetricLTV}, true, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-01", "2025-04"}, result.Months)
	assert.Equal(t, []string{"0-20"}, result.PremiumBands)
}

func TestWeightedAverages_ContractErrors(t *testing.T) {
	tests := []struct {
		name    string
		records []domain.MortgageRecord
		metrics []domain.Metric
		opts    Options
		wantErr error
	}{
		{name: "nil collection", records: nil, metrics: []domain.Metric{domain.MetricLTV}, wantErr: ErrNilCollection},
		{name: "no metrics", records: []domain.MortgageRecord{}, metrics: nil, wantErr: ErrNoMetrics},
		{name: "unknown metric", records: []domain.MortgageRecord{}, metrics: []domain.Metric{"colour"}, wantErr: ErrUnknownMetric},
		{name: "negative sample", records: []domain.MortgageRecord{}, metrics: []domain.Metric{domain.MetricLTV}, opts: Options{SampleSize: -5}, wantErr: ErrInvalidSampleSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil).WeightedAverages(context.Background(), tt.records, tt.metrics, false, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.Equal(t, apperrors.ErrTypeContract, apperrors.TypeOf(err))
		})
	}
}

func TestWeightedAverages_AllMetrics(t *testing.T) {
	rec := testutil.Record("A", "40-60", 250000, "2025-01-01")
	for i, m := range domain.Metrics {
		testutil.WithMetric(m, float64(i+1))(&rec)
	}

	result, err := New(nil).WeightedAverages(context.Background(), []domain.MortgageRecord{rec}, domain.Metrics, false, Options{})
	require.NoError(t, err)

	for i, m := range domain.Metrics {
		assert.InDelta(t, float64(i+1), result.ByBand[m]["40-60"].WeightedAverage, 1e-9, "metric %s", m)
	}
}
