package domain

import (
	"time"
)

// MonthLayout is the canonical month key format used by every aggregate.
const MonthLayout = "2006-01"

// UnknownBand is the premium band assigned when no margin bucket could be read.
const UnknownBand = "Unknown"

// RawRow is one source row keyed by its original column header.
// Values are strings, numbers or time.Time depending on the reader.
type RawRow map[string]any

// Dataset is the rows read from one source. Headers keeps the source column
// order so the first column claiming a field wins deterministically.
type Dataset struct {
	Source  string   `json:"source"`
	Headers []string `json:"headers"`
	Rows    []RawRow `json:"rows"`
}

// Number is a numeric field after coercion. Raw keeps the original text so an
// unparsable value is never lost; Valid reports whether Value is meaningful.
type Number struct {
	Value float64 `json:"value"`
	Raw   string  `json:"raw,omitempty"`
	Valid bool    `json:"valid"`
}

// NumberOf returns a valid Number holding v.
func NumberOf(v float64) Number {
	return Number{Value: v, Valid: true}
}

// Positive reports whether n holds a parsed value greater than zero.
func (n Number) Positive() bool {
	return n.Valid && n.Value > 0
}

// MortgageRecord is one priced mortgage product observation.
type MortgageRecord struct {
	Provider     string `json:"provider"`
	Lender       string `json:"lender"`
	ProductName  string `json:"product_name"`
	PurchaseType string `json:"purchase_type"`

	LoanAmount     Number `json:"loan_amount"`
	LTV            Number `json:"ltv"`
	Term           Number `json:"term"`
	InitialRate    Number `json:"initial_rate"`
	SwapRate       Number `json:"swap_rate"`
	GrossMargin    Number `json:"gross_margin"`
	FlatFees       Number `json:"flat_fees"`
	PercentageFees Number `json:"percentage_fees"`

	// DocumentDate is truncated to the day. The zero value marks an invalid date.
	DocumentDate    time.Time `json:"document_date"`
	RawDocumentDate string    `json:"raw_document_date,omitempty"`

	// PremiumBand is "<minBps>-<maxBps>" or UnknownBand.
	PremiumBand  string `json:"premium_band"`
	MarginBucket string `json:"margin_bucket,omitempty"`

	// Extra holds source columns with no canonical field.
	Extra map[string]string `json:"extra,omitempty"`
}

// HasValidDate reports whether the document date was parsed.
func (r MortgageRecord) HasValidDate() bool {
	return !r.DocumentDate.IsZero()
}

// Month returns the "YYYY-MM" key of the document date, or "" when the date is invalid.
func (r MortgageRecord) Month() string {
	if !r.HasValidDate() {
		return ""
	}
	return r.DocumentDate.Format(MonthLayout)
}

// Metric names a numeric record field that can be weight-averaged.
type Metric string

const (
	MetricLTV            Metric = "ltv"
	MetricTerm           Metric = "term"
	MetricInitialRate    Metric = "initial_rate"
	MetricSwapRate       Metric = "swap_rate"
	MetricGrossMargin    Metric = "gross_margin"
	MetricFlatFees       Metric = "flat_fees"
	MetricPercentageFees Metric = "percentage_fees"
)

// Metrics lists every supported metric in display order.
var Metrics = []Metric{
	MetricLTV,
	MetricInitialRate,
	MetricSwapRate,
	MetricGrossMargin,
	MetricFlatFees,
	MetricPercentageFees,
	MetricTerm,
}

// MetricValue returns the field named by m. ok is false for an unknown metric.
func (r MortgageRecord) MetricValue(m Metric) (Number, bool) {
	switch m {
	case MetricLTV:
		return r.LTV, true
	case MetricTerm:
		return r.Term, true
	case MetricInitialRate:
		return r.InitialRate, true
	case MetricSwapRate:
		return r.SwapRate, true
	case MetricGrossMargin:
		return r.GrossMargin, true
	case MetricFlatFees:
		return r.FlatFees, true
	case MetricPercentageFees:
		return r.PercentageFees, true
	default:
		return Number{}, false
	}
}

// IngestStats describes what happened to the rows handed to ingestion.
// It is diagnostic output and never part of an analytic result.
type IngestStats struct {
	Total        int `json:"total"`
	Accepted     int `json:"accepted"`
	Rejected     int `json:"rejected"`
	Duplicates   int `json:"duplicates"`
	InvalidDates int `json:"invalid_dates"`
}
