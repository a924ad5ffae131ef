package filter

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"mortgagepulse/internal/normalize"
	"mortgagepulse/internal/sampling"
	"mortgagepulse/pkg/contracts/domain"
)

// ErrOptionsInProgress is returned when AvailableOptions is re-entered while
// it is still computing.
var ErrOptionsInProgress = errors.New("filter options are already being computed")

// Options are the selectable values derived from a record collection.
type Options struct {
	Lenders       []string `json:"lenders"`
	PurchaseTypes []string `json:"purchase_types"`
	PremiumBands  []string `json:"premium_bands"`
	DateRange     DateSpan `json:"date_range"`
	Sampled       bool     `json:"sampled"`
	SampledFrom   int      `json:"sampled_from,omitempty"`
}

// DateSpan is the earliest and latest valid document date. Both are nil for a
// collection without dates.
type DateSpan struct {
	Min *time.Time `json:"min,omitempty"`
	Max *time.Time `json:"max,omitempty"`
}

// AvailableOptions collects distinct lenders, purchase types and premium bands
// from at most limit records (head and tail when sampling; limit <= 0 reads
// everything). The date span always covers the full collection. Excluded bands
// are never offered.
func AvailableOptions(records []domain.MortgageRecord, limit int) Options {
	view, sampled := sampling.HeadTail(records, limit)

	lenders := make(map[string]struct{})
	purchaseTypes := make(map[string]struct{})
	bands := make(map[string]struct{})
	for i := range view {
		rec := &view[i]
		if rec.Lender != "" {
			lenders[rec.Lender] = struct{}{}
		}
		if rec.PurchaseType != "" {
			purchaseTypes[rec.PurchaseType] = struct{}{}
		}
		if rec.PremiumBand != "" && !normalize.IsExcludedBand(rec.PremiumBand) {
			bands[rec.PremiumBand] = struct{}{}
		}
	}

	minDate, maxDate := DateBounds(records)
	opts := Options{
		Lenders:       sortedKeys(lenders),
		PurchaseTypes: sortedKeys(purchaseTypes),
		PremiumBands:  normalize.SortBands(keys(bands)),
		DateRange:     DateSpan{Min: minDate, Max: maxDate},
		Sampled:       sampled,
	}
	if sampled {
		opts.SampledFrom = len(records)
	}
	return opts
}

// EngineConfig holds options for an Engine.
type EngineConfig struct {
	OptionsSampleLimit int // Records read when deriving options; 0 reads all
}

// Engine holds the current filter specification over one record collection.
// It is not safe for concurrent mutation; concurrent callers should each hold
// their own Engine over a shared, read-only collection.
type Engine struct {
	logger *slog.Logger
	config EngineConfig

	records  []domain.MortgageRecord
	defaults domain.FilterSpec
	spec     domain.FilterSpec
	active   Active

	options     *Options
	optionsBusy atomic.Bool
}

// NewEngine creates an Engine over records with the default specification.
// A nil logger uses slog.Default().
func NewEngine(logger *slog.Logger, config EngineConfig, records []domain.MortgageRecord) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		logger: logger.With(slog.String("component", "filter_engine")),
		config: config,
	}
	e.SetRecords(records)
	return e
}

// SetRecords swaps the underlying collection, drops cached options and resets
// the specification to the new collection's defaults.
func (e *Engine) SetRecords(records []domain.MortgageRecord) {
	e.records = records
	e.options = nil
	e.defaults = DefaultSpec(records)
	e.Reset()
}

// Reset restores the default specification: the full ingested date range and
// no lender, LTV or purchase type restriction.
func (e *Engine) Reset() {
	e.spec = e.defaults.Clone()
	e.active = ActiveDimensions(e.spec)
}

// Spec returns a copy of the current specification.
func (e *Engine) Spec() domain.FilterSpec {
	return e.spec.Clone()
}

// SetSpec replaces the specification after validating it.
func (e *Engine) SetSpec(spec domain.FilterSpec) error {
	if err := Validate(spec); err != nil {
		return err
	}
	e.spec = spec.Clone()
	e.UpdateActiveFilters()
	return nil
}

// Update applies a field-by-field mutation to a copy of the specification and
// keeps it only if the result is valid.
func (e *Engine) Update(mutate func(*domain.FilterSpec)) error {
	next := e.spec.Clone()
	mutate(&next)
	return e.SetSpec(next)
}

// UpdateActiveFilters recomputes and returns the active dimensions.
func (e *Engine) UpdateActiveFilters() Active {
	e.active = ActiveDimensions(e.spec)
	return e.active
}

// ActiveFilters returns the dimensions currently restricting the collection.
func (e *Engine) ActiveFilters() Active {
	return append(Active(nil), e.active...)
}

// Records returns the full underlying collection.
func (e *Engine) Records() []domain.MortgageRecord {
	return e.records
}

// Filtered applies the current specification to the collection.
func (e *Engine) Filtered(ctx context.Context) ([]domain.MortgageRecord, error) {
	out, err := Apply(e.records, e.spec)
	if err != nil {
		return nil, err
	}
	e.logger.DebugContext(ctx, "filter applied",
		slog.Int("input", len(e.records)),
		slog.Int("output", len(out)),
		slog.Any("active", e.active))
	return out, nil
}

// AvailableOptions returns the selectable values for the current collection,
// computing them once per collection. It never applies the filter itself and
// fails with ErrOptionsInProgress if re-entered.
func (e *Engine) AvailableOptions(ctx context.Context) (Options, error) {
	if !e.optionsBusy.CompareAndSwap(false, true) {
		return Options{}, ErrOptionsInProgress
	}
	defer e.optionsBusy.Store(false)

	if e.options == nil {
		opts := AvailableOptions(e.records, e.config.OptionsSampleLimit)
		e.options = &opts
		e.logger.DebugContext(ctx, "filter options derived",
			slog.Int("lenders", len(opts.Lenders)),
			slog.Int("purchase_types", len(opts.PurchaseTypes)),
			slog.Int("premium_bands", len(opts.PremiumBands)),
			slog.Bool("sampled", opts.Sampled))
	}
	return *e.options, nil
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := keys(set)
	sort.Strings(out)
	return out
}
