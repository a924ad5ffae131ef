package marketshare

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"mortgagepulse/internal/aggregation"
	apperrors "mortgagepulse/internal/errors"
	"mortgagepulse/internal/normalize"
	"mortgagepulse/pkg/contracts/domain"
)

// UnknownLender labels records with neither a lender nor a provider.
const UnknownLender = "Unknown Lender"

// UnknownLTVPolicy decides what happens to records whose LTV did not parse.
type UnknownLTVPolicy string

const (
	// PolicyBucketOver80 counts unparsed LTV in the over_80_or_unknown segment.
	PolicyBucketOver80 UnknownLTVPolicy = "bucket_over_80"
	// PolicyExclude leaves records with unparsed LTV out of the cross-tab.
	PolicyExclude UnknownLTVPolicy = "exclude"
)

// Valid reports whether p is a known policy.
func (p UnknownLTVPolicy) Valid() bool {
	return p == PolicyBucketOver80 || p == PolicyExclude
}

// ErrNilCollection is shared with the aggregation engine.
var ErrNilCollection = aggregation.ErrNilCollection

// Options controls a cross-tab pass.
type Options struct {
	// UnknownLTVPolicy defaults to PolicyBucketOver80.
	UnknownLTVPolicy UnknownLTVPolicy
}

var hundred = decimal.NewFromInt(100)

// Segment classifies an LTV. Unparsed values follow policy; ok is false when
// the record should be left out.
func Segment(ltv domain.Number, policy UnknownLTVPolicy) (segment domain.LTVSegment, ok bool) {
	if !ltv.Valid {
		if policy == PolicyExclude {
			return "", false
		}
		return domain.SegmentOver80OrUnknown, true
	}
	if ltv.Value < 80 {
		return domain.SegmentUnder80, true
	}
	return domain.SegmentOver80OrUnknown, true
}

type tally struct {
	amount decimal.Decimal
	count  int
}

func (tl *tally) add(amount decimal.Decimal) {
	tl.amount = tl.amount.Add(amount)
	tl.count++
}

// share renders t as a ShareCell holding its percentage of whole.
func (tl tally) share(whole decimal.Decimal) domain.ShareCell {
	c := domain.ShareCell{Amount: tl.amount.InexactFloat64(), Count: tl.count}
	if !whole.IsZero() {
		c.Percentage = tl.amount.Div(whole).Mul(hundred).InexactFloat64()
	}
	return c
}

type segmentTallies map[domain.LTVSegment]*tally

func newSegmentTallies() segmentTallies {
	s := make(segmentTallies, len(domain.LTVSegments))
	for _, seg := range domain.LTVSegments {
		s[seg] = &tally{}
	}
	return s
}

// builder accumulates the three nesting levels of one cross-tab pass.
type builder struct {
	lenderCells  map[string]map[string]segmentTallies
	lenderBands  map[string]map[string]*tally
	lenderTotals map[string]*tally
	bandSegments map[string]segmentTallies
	bandTotals   map[string]*tally
	segments     segmentTallies
	grand        tally
}

func newBuilder(bands []string) *builder {
	b := &builder{
		lenderCells:  make(map[string]map[string]segmentTallies),
		lenderBands:  make(map[string]map[string]*tally),
		lenderTotals: make(map[string]*tally),
		bandSegments: make(map[string]segmentTallies, len(bands)),
		bandTotals:   make(map[string]*tally, len(bands)),
		segments:     newSegmentTallies(),
	}
	for _, band := range bands {
		b.bandSegments[band] = newSegmentTallies()
		b.bandTotals[band] = &tally{}
	}
	return b
}

func (b *builder) ensureLender(lender string, bands []string) {
	if _, ok := b.lenderTotals[lender]; ok {
		return
	}
	cells := make(map[string]segmentTallies, len(bands))
	totals := make(map[string]*tally, len(bands))
	for _, band := range bands {
		cells[band] = newSegmentTallies()
		totals[band] = &tally{}
	}
	b.lenderCells[lender] = cells
	b.lenderBands[lender] = totals
	b.lenderTotals[lender] = &tally{}
}

func (b *builder) add(lender, band string, seg domain.LTVSegment, amount decimal.Decimal) {
	b.lenderCells[lender][band][seg].add(amount)
	b.lenderBands[lender][band].add(amount)
	b.lenderTotals[lender].add(amount)
	b.bandSegments[band][seg].add(amount)
	b.bandTotals[band].add(amount)
	b.segments[seg].add(amount)
	b.grand.add(amount)
}

// Tabulator builds lender market-share cross-tabs. It holds no state between
// calls and is safe for concurrent use.
type Tabulator struct {
	logger *slog.Logger
}

// New creates a Tabulator. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Tabulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tabulator{logger: logger.With(slog.String("component", "marketshare"))}
}

// CrossTab splits the loan amount of records in the selected premium bands by
// lender, band and LTV segment. Each lender cell's percentage is its share of
// the band and segment total, so a sole contributor holds 100%. An empty
// selection means every band present in records. Excluded bands are never
// reported, even when selected.
func (t *Tabulator) CrossTab(ctx context.Context, records []domain.MortgageRecord, selectedBands []string, opts Options) (*domain.CrossTabResult, error) {
	if records == nil {
		return nil, apperrors.NewContractError("cross-tab requires a record collection", ErrNilCollection)
	}
	policy := opts.UnknownLTVPolicy
	if policy == "" {
		policy = PolicyBucketOver80
	}
	if !policy.Valid() {
		return nil, apperrors.NewContractError(fmt.Sprintf("unknown LTV policy %q", policy), nil)
	}

	bands := selectBands(records, selectedBands)
	selected := make(map[string]struct{}, len(bands))
	for _, band := range bands {
		selected[band] = struct{}{}
	}

	b := newBuilder(bands)
	skipped := 0
	for i := range records {
		rec := &records[i]
		if _, ok := selected[rec.PremiumBand]; !ok {
			skipped++
			continue
		}
		seg, ok := Segment(rec.LTV, policy)
		if !ok {
			skipped++
			continue
		}
		if !rec.LoanAmount.Valid || rec.LoanAmount.Value < 0 {
			skipped++
			t.logger.DebugContext(ctx, "cross-tab record skipped, unusable loan amount",
				slog.String("lender", rec.Lender),
				slog.String("raw_amount", rec.LoanAmount.Raw))
			continue
		}
		lender := lenderName(*rec)
		b.ensureLender(lender, bands)
		b.add(lender, rec.PremiumBand, seg, decimal.NewFromFloat(rec.LoanAmount.Value))
	}

	result := b.result(bands)
	result.Skipped = skipped

	t.logger.InfoContext(ctx, "cross-tab complete",
		slog.Int("records", len(records)),
		slog.Int("lenders", len(result.Lenders)),
		slog.Int("bands", len(bands)),
		slog.Int("skipped", skipped),
		slog.String("unknown_ltv_policy", string(policy)))

	return result, nil
}

func (b *builder) result(bands []string) *domain.CrossTabResult {
	lenders := make([]string, 0, len(b.lenderTotals))
	for lender := range b.lenderTotals {
		lenders = append(lenders, lender)
	}
	sortStrings(lenders)

	result := &domain.CrossTabResult{
		Lenders:           lenders,
		PremiumBands:      bands,
		ByLender:          make(map[string]map[string]map[domain.LTVSegment]domain.ShareCell, len(lenders)),
		LenderBandTotals:  make(map[string]map[string]domain.ShareCell, len(lenders)),
		LenderTotals:      make(map[string]domain.ShareCell, len(lenders)),
		BandSegmentTotals: make(map[string]map[domain.LTVSegment]domain.ShareCell, len(bands)),
		BandTotals:        make(map[string]domain.ShareCell, len(bands)),
		SegmentTotals:     make(map[domain.LTVSegment]domain.ShareCell, len(domain.LTVSegments)),
		GrandTotal:        b.grand.share(b.grand.amount),
	}

	for _, band := range bands {
		segs := make(map[domain.LTVSegment]domain.ShareCell, len(domain.LTVSegments))
		for _, seg := range domain.LTVSegments {
			t := b.bandSegments[band][seg]
			segs[seg] = t.share(t.amount)
		}
		result.BandSegmentTotals[band] = segs
		result.BandTotals[band] = b.bandTotals[band].share(b.bandTotals[band].amount)
	}
	for _, seg := range domain.LTVSegments {
		result.SegmentTotals[seg] = b.segments[seg].share(b.grand.amount)
	}

	for _, lender := range lenders {
		perBand := make(map[string]map[domain.LTVSegment]domain.ShareCell, len(bands))
		bandTotals := make(map[string]domain.ShareCell, len(bands))
		for _, band := range bands {
			segs := make(map[domain.LTVSegment]domain.ShareCell, len(domain.LTVSegments))
			for _, seg := range domain.LTVSegments {
				segs[seg] = b.lenderCells[lender][band][seg].share(b.bandSegments[band][seg].amount)
			}
			perBand[band] = segs
			bandTotals[band] = b.lenderBands[lender][band].share(b.bandTotals[band].amount)
		}
		result.ByLender[lender] = perBand
		result.LenderBandTotals[lender] = bandTotals
		result.LenderTotals[lender] = b.lenderTotals[lender].share(b.grand.amount)
	}
	return result
}

// selectBands returns the selected bands minus excluded ones, deduplicated and
// in band order. An empty selection takes every band present in records.
func selectBands(records []domain.MortgageRecord, selectedBands []string) []string {
	source := selectedBands
	if len(source) == 0 {
		source = make([]string, 0)
		for i := range records {
			source = append(source, records[i].PremiumBand)
		}
	}
	seen := make(map[string]struct{})
	bands := make([]string, 0)
	for _, band := range source {
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

func lenderName(rec domain.MortgageRecord) string {
	switch {
	case rec.Lender != "":
		return rec.Lender
	case rec.Provider != "":
		return rec.Provider
	default:
		return UnknownLender
	}
}
