package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mortgagepulse/internal/errors"
	"mortgagepulse/internal/shared/testutil"
	"mortgagepulse/pkg/contracts/domain"
)

func lendersOf(records []domain.MortgageRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Lender)
	}
	return out
}

func openSpec() domain.FilterSpec {
	return domain.NewFilterSpec(nil, nil)
}

func TestActiveDimensions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.FilterSpec)
		want   Active
	}{
		{name: "default open spec", mutate: func(*domain.FilterSpec) {}, want: nil},
		{
			name:   "date range needs both bounds",
			mutate: func(s *domain.FilterSpec) { s.SetDateRange(testutil.DayPtr("2025-01-01"), nil) },
			want:   nil,
		},
		{
			name:   "complete date range",
			mutate: func(s *domain.FilterSpec) { s.SetDateRange(testutil.DayPtr("2025-01-01"), testutil.DayPtr("2025-02-01")) },
			want:   Active{domain.DimensionDateRange},
		},
		{name: "explicit lenders", mutate: func(s *domain.FilterSpec) { s.SelectLenders("Acme") }, want: Active{domain.DimensionLenders}},
		{name: "empty lender selection", mutate: func(s *domain.FilterSpec) { s.Lenders = nil }, want: nil},
		{name: "ltv bucket", mutate: func(s *domain.FilterSpec) { s.SetLTVBucket(domain.LTVAbove85) }, want: Active{domain.DimensionLTV}},
		{name: "purchase types", mutate: func(s *domain.FilterSpec) { s.SelectPurchaseTypes("Remortgage") }, want: Active{domain.DimensionPurchaseTypes}},
		{
			name: "all dimensions in fixed order",
			mutate: func(s *domain.FilterSpec) {
				s.SelectPurchaseTypes("Purchase")
				s.SetLTVBucket(domain.LTVBelow80)
				s.SelectLenders("Acme")
				s.SetDateRange(testutil.DayPtr("2025-01-01"), testutil.DayPtr("2025-01-31"))
			},
			want: Active{domain.DimensionDateRange, domain.DimensionLenders, domain.DimensionLTV, domain.DimensionPurchaseTypes},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := openSpec()
			tt.mutate(&spec)
			assert.Equal(t, tt.want, ActiveDimensions(spec))
		})
	}
}

func TestApply_LTVBuckets(t *testing.T) {
	records := []domain.MortgageRecord{
		testutil.Record("ltv79", "160-180", 100, "2025-01-10", testutil.WithLTV(79)),
		testutil.Record("ltv80", "160-180", 100, "2025-01-10", testutil.WithLTV(80)),
		testutil.Record("ltv85", "160-180", 100, "2025-01-10", testutil.WithLTV(85)),
		testutil.Record("ltv90", "160-180", 100, "2025-01-10", testutil.WithLTV(90)),
		testutil.Record("unknown", "160-180", 100, "2025-01-10", testutil.WithRawLTV("tbc")),
	}

	tests := []struct {
		bucket domain.LTVBucket
		want   []string
	}{
		{bucket: domain.LTVAll, want: []string{"ltv79", "ltv80", "ltv85", "ltv90", "unknown"}},
		{bucket: domain.LTVBelow80, want: []string{"ltv79"}},
		{bucket: domain.LTVAbove80, want: []string{"ltv80", "ltv85", "ltv90"}},
		{bucket: domain.LTVAbove85, want: []string{"ltv85", "ltv90"}},
		{bucket: domain.LTVAbove90, want: []string{"ltv90"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.bucket), func(t *testing.T) {
			spec := openSpec()
			spec.SetLTVBucket(tt.bucket)

			got, err := Apply(records, spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, lendersOf(got))
		})
	}
}

func TestApply_Above80KeepsExactlyTheThresholdRecords(t *testing.T) {
	records := []domain.MortgageRecord{
		testutil.Record("a", "160-180", 100, "2025-01-10", testutil.WithLTV(79)),
		testutil.Record("b", "160-180", 100, "2025-01-10", testutil.WithLTV(80)),
		testutil.Record("c", "160-180", 100, "2025-01-10", testutil.WithLTV(85)),
	}
	spec := openSpec()
	spec.SetLTVBucket(domain.LTVAbove80)

	got, err := Apply(records, spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, lendersOf(got))
}

func TestApply_DateRangeIsInclusiveByDay(t *testing.T) {
	records := []domain.MortgageRecord{
		testutil.Record("dec31", "0-20", 1, "2024-12-31"),
		testutil.Record("jan1", "0-20", 1, "2025-01-01"),
		testutil.Record("jan31", "0-20", 1, "2025-01-31"),
		testutil.Record("feb1", "0-20", 1, "2025-02-01"),
		testutil.Record("undated", "0-20", 1, ""),
	}

	start := testutil.Day("2025-01-01").Add(15 * time.Hour)
	end := testutil.Day("2025-01-31")

	spec := openSpec()
	spec.SetDateRange(&start, &end)
	got, err := Apply(records, spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"jan1", "jan31"}, lendersOf(got))

	spec.SetDateRange(&start, nil)
	got, err = Apply(records, spec)
	require.NoError(t, err)
	assert.Len(t, got, 5, "half-open range is inactive and keeps undated records")
}

func TestApply_SetDimensions(t *testing.T) {
	records := []domain.MortgageRecord{
		testutil.Record("A", "0-20", 1, "2025-01-01", testutil.WithPurchaseType("Purchase")),
		testutil.Record("B", "0-20", 1, "2025-01-01", testutil.WithPurchaseType("Remortgage")),
		testutil.Record("C", "0-20", 1, "2025-01-01", testutil.WithPurchaseType("Purchase")),
	}

	spec := openSpec()
	spec.SelectLenders("A", "B")
	got, err := Apply(records, spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, lendersOf(got))

	spec.SelectPurchaseTypes("Purchase")
	got, err = Apply(records, spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, lendersOf(got), "dimensions combine with AND")

	spec.ToggleLender("A")
	spec.ToggleLender("B")
	assert.Empty(t, spec.Lenders)
	got, err = Apply(records, spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, lendersOf(got), "empty lender selection does not restrict")
}

func TestApply_ExcludedBandsNeverPass(t *testing.T) {
	records := []domain.MortgageRecord{
		testutil.Record("kept", "160-180", 1, "2025-01-01"),
		testutil.Record("unknown", domain.UnknownBand, 1, "2025-01-01"),
		testutil.Record("negative", "-40--20", 1, "2025-01-01"),
		testutil.Record("negative literal", "-0.4--0.2", 1, "2025-01-01"),
	}

	for _, spec := range []domain.FilterSpec{openSpec(), DefaultSpec(records)} {
		got, err := Apply(records, spec)
		require.NoError(t, err)
		assert.Equal(t, []string{"kept"}, lendersOf(got))
	}
}

func TestApply_Idempotent(t *testing.T) {
	records := []domain.MortgageRecord{
		testutil.Record("A", "0-20", 100, "2025-01-05", testutil.WithLTV(70), testutil.WithPurchaseType("Purchase")),
		testutil.Record("B", "20-40", 200, "2025-01-20", testutil.WithLTV(85), testutil.WithPurchaseType("Remortgage")),
		testutil.Record("C", "Unknown", 300, "2025-02-03", testutil.WithLTV(90)),
		testutil.Record("D", "40-60", 400, "", testutil.WithRawLTV("?")),
		testutil.Record("A", "40-60", 500, "2025-03-01", testutil.WithLTV(95), testutil.WithPurchaseType("Purchase")),
	}

	specs := map[string]func(*domain.FilterSpec){
		"open":    func(*domain.FilterSpec) {},
		"default": func(s *domain.FilterSpec) { *s = DefaultSpec(records) },
		"lender and ltv": func(s *domain.FilterSpec) {
			s.SelectLenders("A")
			s.SetLTVBucket(domain.LTVAbove80)
		},
		"january": func(s *domain.FilterSpec) {
			s.SetDateRange(testutil.DayPtr("2025-01-01"), testutil.DayPtr("2025-01-31"))
			s.SelectPurchaseTypes("Purchase", "Remortgage")
		},
	}

	for name, mutate := range specs {
		t.Run(name, func(t *testing.T) {
			spec := openSpec()
			mutate(&spec)

			once, err := Apply(records, spec)
			require.NoError(t, err)
			twice, err := Apply(once, spec)
			require.NoError(t, err)
			assert.Equal(t, once, twice)
		})
	}
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	records := []domain.MortgageRecord{
		testutil.Record("A", "0-20", 1, "2025-01-01"),
		testutil.Record("B", "Unknown", 1, "2025-01-01"),
	}
	spec := openSpec()

	got, err := Apply(records, spec)
	require.NoError(t, err)
	got[0].Lender = "changed"

	assert.Equal(t, "A", records[0].Lender)
	assert.Len(t, records, 2)
}

func TestApply_InvalidSpec(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*domain.FilterSpec)
		wantField string
	}{
		{name: "unknown ltv bucket", mutate: func(s *domain.FilterSpec) { s.LTVBucket = "above-95" }, wantField: "ltv_bucket"},
		{name: "missing ltv bucket", mutate: func(s *domain.FilterSpec) { s.LTVBucket = "" }, wantField: "ltv_bucket"},
		{
			name:      "inverted date range",
			mutate:    func(s *domain.FilterSpec) { s.SetDateRange(testutil.DayPtr("2025-02-01"), testutil.DayPtr("2025-01-01")) },
			wantField: "date_range",
		},
		{name: "lender sentinel mixed", mutate: func(s *domain.FilterSpec) { s.Lenders = []string{domain.AllLenders, "Acme"} }, wantField: "lenders"},
		{
			name:      "purchase type sentinel mixed",
			mutate:    func(s *domain.FilterSpec) { s.PurchaseTypes = []string{"Purchase", domain.AllPurchaseTypes} },
			wantField: "purchase_types",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := openSpec()
			tt.mutate(&spec)

			_, err := Apply(nil, spec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSpec))
			assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			problems, ok := appErr.Context["fields"].([]FieldProblem)
			require.True(t, ok)
			require.Len(t, problems, 1)
			assert.Equal(t, tt.wantField, problems[0].Field)
		})
	}
}

func TestApply_SameDayRangeIsValid(t *testing.T) {
	records := []domain.MortgageRecord{testutil.Record("A", "0-20", 1, "2025-01-15")}
	start := testutil.Day("2025-01-15").Add(20 * time.Hour)
	end := testutil.Day("2025-01-15")

	spec := openSpec()
	spec.SetDateRange(&start, &end)
	got, err := Apply(records, spec)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDefaultSpec(t *testing.T) {
	records := []domain.MortgageRecord{
		testutil.Record("A", "0-20", 1, "2025-03-01"),
		testutil.Record("B", "0-20", 1, ""),
		testutil.Record("C", "0-20", 1, "2025-01-05"),
	}

	spec := DefaultSpec(records)
	require.NotNil(t, spec.DateRange.Start)
	require.NotNil(t, spec.DateRange.End)
	assert.Equal(t, testutil.Day("2025-01-05"), *spec.DateRange.Start)
	assert.Equal(t, testutil.Day("2025-03-01"), *spec.DateRange.End)
	assert.Equal(t, []string{domain.AllLenders}, spec.Lenders)
	assert.Equal(t, domain.LTVAll, spec.LTVBucket)
	assert.Equal(t, []string{domain.AllPurchaseTypes}, spec.PurchaseTypes)

	empty := DefaultSpec(nil)
	assert.Nil(t, empty.DateRange.Start)
	assert.Empty(t, ActiveDimensions(empty))
}
