package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mortgagepulse/pkg/contracts/domain"
)

// RecordOption adjusts a fixture record.
type RecordOption func(*domain.MortgageRecord)

// Record builds a canonical record. date is "YYYY-MM-DD"; an empty date leaves the record undated.
func Record(lender, band string, amount float64, date string, opts ...RecordOption) domain.MortgageRecord {
	rec := domain.MortgageRecord{
		Provider:    lender,
		Lender:      lender,
		PremiumBand: band,
		LoanAmount:  domain.NumberOf(amount),
	}
	if date != "" {
		rec.DocumentDate = Day(date)
		rec.RawDocumentDate = date
	}
	for _, opt := range opts {
		opt(&rec)
	}
	return rec
}

// Day parses a "YYYY-MM-DD" fixture date and panics on a typo.
func Day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// DayPtr is Day for optional bounds.
func DayPtr(s string) *time.Time {
	t := Day(s)
	return &t
}

// WithLTV sets a parsed LTV.
func WithLTV(v float64) RecordOption {
	return func(r *domain.MortgageRecord) { r.LTV = domain.NumberOf(v) }
}

// WithRawLTV sets an LTV that did not parse.
func WithRawLTV(raw string) RecordOption {
	return func(r *domain.MortgageRecord) { r.LTV = domain.Number{Raw: raw} }
}

// WithPurchaseType sets the purchase type.
func WithPurchaseType(pt string) RecordOption {
	return func(r *domain.MortgageRecord) { r.PurchaseType = pt }
}

// WithProduct sets the product name.
func WithProduct(name string) RecordOption {
	return func(r *domain.MortgageRecord) { r.ProductName = name }
}

// WithRawAmount replaces the loan amount with unparsed text.
func WithRawAmount(raw string) RecordOption {
	return func(r *domain.MortgageRecord) { r.LoanAmount = domain.Number{Raw: raw} }
}

// WithMetric sets a metric field to a parsed value.
func WithMetric(m domain.Metric, v float64) RecordOption {
	return func(r *domain.MortgageRecord) {
		n := domain.NumberOf(v)
		switch m {
		case domain.MetricLTV:
			r.LTV = n
		case domain.MetricTerm:
			r.Term = n
		case domain.MetricInitialRate:
			r.InitialRate = n
		case domain.MetricSwapRate:
			r.SwapRate = n
		case domain.MetricGrossMargin:
			r.GrossMargin = n
		case domain.MetricFlatFees:
			r.FlatFees = n
		case domain.MetricPercentageFees:
			r.PercentageFees = n
		}
	}
}

// WriteWorkbook saves rows to sheet in a new XLSX file under dir and returns its path.
func WriteWorkbook(t *testing.T, dir, name, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// WriteCSV saves rows as a CSV file under dir and returns its path.
func WriteCSV(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	w := csv.NewWriter(file)
	require.NoError(t, w.WriteAll(rows))
	return path
}
