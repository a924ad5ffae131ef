package aggregation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	apperrors "mortgagepulse/internal/errors"
	"mortgagepulse/pkg/contracts/domain"
)

// weightedTally accumulates one metric weighted by loan amount.
type weightedTally struct {
	weightedSum decimal.Decimal
	totalWeight decimal.Decimal
	count       int
	min, max    float64
}

func (w *weightedTally) add(value float64, weight decimal.Decimal) {
	w.weightedSum = w.weightedSum.Add(decimal.NewFromFloat(value).Mul(weight))
	w.totalWeight = w.totalWeight.Add(weight)
	if w.count == 0 || value < w.min {
		w.min = value
	}
	if w.count == 0 || value > w.max {
		w.max = value
	}
	w.count++
}

// stat finalizes the tally. Min and max stay 0 when nothing was accumulated.
func (w weightedTally) stat() domain.WeightedStat {
	s := domain.WeightedStat{
		WeightedSum: w.weightedSum.InexactFloat64(),
		TotalWeight: w.totalWeight.InexactFloat64(),
		Count:       w.count,
		Min:         w.min,
		Max:         w.max,
	}
	if !w.totalWeight.IsZero() {
		s.WeightedAverage = w.weightedSum.Div(w.totalWeight).InexactFloat64()
	}
	return s
}

// WeightedAverages computes loan-weighted averages, counts and min/max of each
// metric per premium band, and per band and month when includeMonthly is set.
//
// A record contributes to a metric only when both its loan amount and that
// metric's value are parsed and positive. Monthly figures use opts.MonthRange
// when set, otherwise the months present in the data.
func (a *Aggregator) WeightedAverages(ctx context.Context, records []domain.MortgageRecord, metrics []domain.Metric, includeMonthly bool, opts Options) (*domain.WeightedAverageResult, error) {
	view, sampled, err := prepare(records, opts)
	if err != nil {
		return nil, err
	}
	if len(metrics) == 0 {
		return nil, apperrors.NewContractError("weighted averages need at least one metric", ErrNoMetrics)
	}
	var probe domain.MortgageRecord
	for _, m := range metrics {
		if _, ok := probe.MetricValue(m); !ok {
			return nil, apperrors.NewContractError(fmt.Sprintf("metric %q has no record field", m), ErrUnknownMetric).WithContext("metric", string(m))
		}
	}

	bands := bandsPresent(view)
	bandIndex := indexOf(bands)

	var months []string
	var monthIndex map[string]int
	if includeMonthly {
		months, err = resolveMonths(view, opts.MonthRange, func(rec *domain.MortgageRecord) bool {
			_, inBand := bandIndex[rec.PremiumBand]
			return inBand && rec.LoanAmount.Positive()
		})
		if err != nil {
			return nil, err
		}
		monthIndex = indexOf(months)
	}

	byBand := make([][]weightedTally, len(metrics))
	byBandMonth := make([][][]weightedTally, len(metrics))
	for mi := range metrics {
		byBand[mi] = make([]weightedTally, len(bands))
		if includeMonthly {
			byBandMonth[mi] = make([][]weightedTally, len(bands))
			for b := range bands {
				byBandMonth[mi][b] = make([]weightedTally, len(months))
			}
		}
	}

	for i := range view {
		rec := &view[i]
		b, ok := bandIndex[rec.PremiumBand]
		if !ok || !rec.LoanAmount.Positive() {
			continue
		}
		weight := decimal.NewFromFloat(rec.LoanAmount.Value)
		month, inWindow := -1, false
		if includeMonthly {
			month, inWindow = monthIndex[rec.Month()]
		}

		for mi, metric := range metrics {
			value, _ := rec.MetricValue(metric)
			if !value.Positive() {
				continue
			}
			byBand[mi][b].add(value.Value, weight)
			if inWindow {
				byBandMonth[mi][b][month].add(value.Value, weight)
			}
		}
	}

	result := &domain.WeightedAverageResult{
		Metrics:      append([]domain.Metric(nil), metrics...),
		PremiumBands: bands,
		Months:       months,
		ByBand:       make(map[domain.Metric]map[string]domain.WeightedStat, len(metrics)),
		Sampled:      sampled,
	}
	if sampled {
		result.SampledFrom = len(records)
	}
	if includeMonthly {
		result.ByBandMonth = make(map[domain.Metric]map[string]map[string]domain.WeightedStat, len(metrics))
	}

	for mi, metric := range metrics {
		perBand := make(map[string]domain.WeightedStat, len(bands))
		for b, band := range bands {
			perBand[band] = byBand[mi][b].stat()
		}
		result.ByBand[metric] = perBand

		if includeMonthly {
			perBandMonth := make(map[string]map[string]domain.WeightedStat, len(bands))
			for b, band := range bands {
				perMonth := make(map[string]domain.WeightedStat, len(months))
				for m, month := range months {
					perMonth[month] = byBandMonth[mi][b][m].stat()
				}
				perBandMonth[band] = perMonth
			}
			result.ByBandMonth[metric] = perBandMonth
		}
	}

	a.logger.InfoContext(ctx, "weighted averages complete",
		slog.Int("records", len(view)),
		slog.Int("metrics", len(metrics)),
		slog.Int("bands", len(bands)),
		slog.Bool("monthly", includeMonthly),
		slog.Bool("sampled", sampled))

	return result, nil
}
