package domain

// Cell holds the loan amount sum, record count and average for one band and month.
type Cell struct {
	Amount  float64 `json:"amount"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// Total is an amount and count pair.
type Total struct {
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// AggregateTotals holds the marginal and grand totals of an AggregateResult.
type AggregateTotals struct {
	ByPremiumBand map[string]Total `json:"by_premium_band"`
	ByMonth       map[string]Total `json:"by_month"`
	Overall       Total            `json:"overall"`
}

// AggregateResult is the band by month view of a record collection.
// Every call returns a new value; nothing in it aliases the input.
type AggregateResult struct {
	PremiumBands []string `json:"premium_bands"`
	Months       []string `json:"months"`

	// Data is keyed band, then month. Every band/month pair is present.
	Data   map[string]map[string]Cell `json:"data"`
	Totals AggregateTotals            `json:"totals"`

	// MarketShare is a 0-100 percentage of the month total, keyed band then month.
	MarketShare map[string]map[string]float64 `json:"market_share"`
	// GrowthRate is the month-over-month percentage change, keyed band then month.
	// The first month of the window has no entry.
	GrowthRate map[string]map[string]float64 `json:"growth_rate"`

	// Skipped counts records outside the band or month set or without a usable date.
	Skipped int `json:"skipped"`
	// Sampled is set when only a head and tail slice of SampledFrom records was read.
	Sampled     bool `json:"sampled"`
	SampledFrom int  `json:"sampled_from,omitempty"`
}

// Empty reports whether the result has nothing to show.
func (r *AggregateResult) Empty() bool {
	return r == nil || len(r.PremiumBands) == 0 || len(r.Months) == 0
}

// WeightedStat is the loan-weighted accumulation of one metric.
type WeightedStat struct {
	WeightedAverage float64 `json:"weighted_average"`
	WeightedSum     float64 `json:"weighted_sum"`
	TotalWeight     float64 `json:"total_weight"`
	Count           int     `json:"count"`
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`
}

// WeightedAverageResult holds weighted metrics by band and optionally by month.
type WeightedAverageResult struct {
	Metrics      []Metric `json:"metrics"`
	PremiumBands []string `json:"premium_bands"`
	Months       []string `json:"months,omitempty"`

	// ByBand is keyed metric, then band.
	ByBand map[Metric]map[string]WeightedStat `json:"by_band"`
	// ByBandMonth is keyed metric, band, then month. Nil unless monthly output was requested.
	ByBandMonth map[Metric]map[string]map[string]WeightedStat `json:"by_band_month,omitempty"`

	Sampled     bool `json:"sampled"`
	SampledFrom int  `json:"sampled_from,omitempty"`
}
