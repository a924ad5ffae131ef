package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	apperrors "mortgagepulse/internal/errors"
	"mortgagepulse/internal/normalize"
	"mortgagepulse/internal/sampling"
	"mortgagepulse/pkg/contracts/domain"
)

var (
	// ErrNilCollection is returned when an engine is handed a nil record slice.
	ErrNilCollection = errors.New("record collection is nil")
	// ErrInvalidMonthRange is returned for an unreadable or inverted month window.
	ErrInvalidMonthRange = errors.New("invalid month range")
	// ErrInvalidSampleSize is returned for a negative sample size.
	ErrInvalidSampleSize = errors.New("sample size must not be negative")
	// ErrNoMetrics is returned when weighted averages are requested for no metric.
	ErrNoMetrics = errors.New("no metrics requested")
	// ErrUnknownMetric is returned for a metric name with no record field.
	ErrUnknownMetric = errors.New("unknown metric")
)

var hundred = decimal.NewFromInt(100)

// Options controls one aggregation pass.
type Options struct {
	// MonthRange fixes the month columns. When nil the months present in the data are used.
	MonthRange *MonthRange
	// SampleSize bounds the records read to a head and tail slice. 0 reads everything.
	SampleSize int
}

// Aggregator builds band by month views of a record collection. It holds no
// state between calls and is safe for concurrent use.
type Aggregator struct {
	logger *slog.Logger
}

// New creates an Aggregator. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger.With(slog.String("component", "aggregation"))}
}

// Sample returns a head and tail slice of at most n records, reporting whether
// anything was dropped. n <= 0 returns records unchanged.
func Sample(records []domain.MortgageRecord, n int) ([]domain.MortgageRecord, bool) {
	return sampling.HeadTail(records, n)
}

// prepare checks the inputs shared by every pass and applies sampling.
func prepare(records []domain.MortgageRecord, opts Options) ([]domain.MortgageRecord, bool, error) {
	if records == nil {
		return nil, false, apperrors.NewContractError("aggregation requires a record collection", ErrNilCollection)
	}
	if opts.SampleSize < 0 {
		return nil, false, apperrors.NewContractError(fmt.Sprintf("sample size %d", opts.SampleSize), ErrInvalidSampleSize)
	}
	view, sampled := Sample(records, opts.SampleSize)
	return view, sampled, nil
}

// bandsPresent lists the distinct, non-excluded premium bands in band order.
func bandsPresent(records []domain.MortgageRecord) []string {
	seen := make(map[string]struct{})
	bands := make([]string, 0)
	for i := range records {
		band := records[i].PremiumBand
		if band == "" || normalize.IsExcludedBand(band) {
			continue
		}
		if _, ok := seen[band]; ok {
			continue
		}
		seen[band] = struct{}{}
		bands = append(bands, band)
	}
	return normalize.SortBands(bands)
}

// tally is an amount and count accumulator.
type tally struct {
	amount decimal.Decimal
	count  int
}

func (t *tally) add(amount decimal.Decimal) {
	t.amount = t.amount.Add(amount)
	t.count++
}

func (t *tally) merge(o tally) {
	t.amount = t.amount.Add(o.amount)
	t.count += o.count
}

func (t tally) total() domain.Total {
	return domain.Total{Amount: t.amount.InexactFloat64(), Count: t.count}
}

func (t tally) cell() domain.Cell {
	c := domain.Cell{Amount: t.amount.InexactFloat64(), Count: t.count}
	if t.count > 0 {
		c.Average = t.amount.Div(decimal.NewFromInt(int64(t.count))).InexactFloat64()
	}
	return c
}

// percentOf returns part/whole as a 0-100 percentage, or 0 when whole is zero.
func percentOf(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(hundred).InexactFloat64()
}

// Aggregate groups records by premium band and month and derives totals,
// market share and month-over-month growth.
//
// Records in an excluded band, without a valid date, outside the month window
// or with an unusable loan amount are counted in Skipped and otherwise ignored.
// A nil collection, an invalid month window or a negative sample size is a
// contract error.
func (a *Aggregator) Aggregate(ctx context.Context, records []domain.MortgageRecord, opts Options) (*domain.AggregateResult, error) {
	started := time.Now()

	view, sampled, err := prepare(records, opts)
	if err != nil {
		return nil, err
	}

	bands := bandsPresent(view)
	bandIndex := indexOf(bands)
	months, err := resolveMonths(view, opts.MonthRange, func(rec *domain.MortgageRecord) bool {
		_, inBand := bandIndex[rec.PremiumBand]
		_, usable := loanAmount(*rec)
		return inBand && usable
	})
	if err != nil {
		return nil, err
	}

	monthIndex := indexOf(months)
	grid := make([][]tally, len(bands))
	for i := range grid {
		grid[i] = make([]tally, len(months))
	}

	skipped := 0
	for i := range view {
		rec := &view[i]
		b, okBand := bandIndex[rec.PremiumBand]
		m, okMonth := monthIndex[rec.Month()]
		if !okBand || !okMonth {
			skipped++
			continue
		}
		amount, ok := loanAmount(*rec)
		if !ok {
			skipped++
			a.logger.DebugContext(ctx, "record skipped, unusable loan amount",
				slog.String("lender", rec.Lender),
				slog.String("raw_amount", rec.LoanAmount.Raw))
			continue
		}
		grid[b][m].add(amount)
	}

	result := buildResult(bands, months, grid)
	result.Skipped = skipped
	result.Sampled = sampled
	if sampled {
		result.SampledFrom = len(records)
	}

	a.logger.InfoContext(ctx, "aggregation complete",
		slog.Int("records", len(view)),
		slog.Int("bands", len(bands)),
		slog.Int("months", len(months)),
		slog.Int("skipped", skipped),
		slog.Bool("sampled", sampled),
		slog.Duration("duration", time.Since(started)))

	return result, nil
}

// loanAmount returns a record's loan amount as a decimal. Unparsed and
// negative amounts are unusable.
func loanAmount(rec domain.MortgageRecord) (decimal.Decimal, bool) {
	if !rec.LoanAmount.Valid || rec.LoanAmount.Value < 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(rec.LoanAmount.Value), true
}

func buildResult(bands, months []string, grid [][]tally) *domain.AggregateResult {
	result := &domain.AggregateResult{
		PremiumBands: bands,
		Months:       months,
		Data:         make(map[string]map[string]domain.Cell, len(bands)),
		Totals: domain.AggregateTotals{
			ByPremiumBand: make(map[string]domain.Total, len(bands)),
			ByMonth:       make(map[string]domain.Total, len(months)),
		},
		MarketShare: make(map[string]map[string]float64, len(bands)),
		GrowthRate:  make(map[string]map[string]float64, len(bands)),
	}

	bandTotals := make([]tally, len(bands))
	monthTotals := make([]tally, len(months))
	var overall tally
	for b := range bands {
		for m := range months {
			bandTotals[b].merge(grid[b][m])
			monthTotals[m].merge(grid[b][m])
			overall.merge(grid[b][m])
		}
	}

	for b, band := range bands {
		cells := make(map[string]domain.Cell, len(months))
		shares := make(map[string]float64, len(months))
		growth := make(map[string]float64, len(months))
		for m, month := range months {
			cells[month] = grid[b][m].cell()
			shares[month] = percentOf(grid[b][m].amount, monthTotals[m].amount)
			if m > 0 {
				prev := grid[b][m-1].amount
				growth[month] = percentOf(grid[b][m].amount.Sub(prev), prev)
			}
		}
		result.Data[band] = cells
		result.MarketShare[band] = shares
		result.GrowthRate[band] = growth
		result.Totals.ByPremiumBand[band] = bandTotals[b].total()
	}
	for m, month := range months {
		result.Totals.ByMonth[month] = monthTotals[m].total()
	}
	result.Totals.Overall = overall.total()
	return result
}

func indexOf(keys []string) map[string]int {
	idx := make(map[string]int, len(keys))
	for i, k := range keys {
		idx[k] = i
	}
	return idx
}
