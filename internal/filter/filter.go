package filter

import (
	"time"

	"mortgagepulse/internal/dataprocessing"
	"mortgagepulse/internal/normalize"
	"mortgagepulse/pkg/contracts/domain"
)

// Active is the ordered set of dimensions that participate in the predicate.
type Active []domain.Dimension

// Has reports whether d is active.
func (a Active) Has(d domain.Dimension) bool {
	for _, got := range a {
		if got == d {
			return true
		}
	}
	return false
}

// ActiveDimensions reports which dimensions of spec differ from their
// unrestricted default. The date range counts only when both bounds are set;
// a set dimension counts only when it is non-empty and lacks its sentinel.
func ActiveDimensions(spec domain.FilterSpec) Active {
	var active Active
	if spec.DateRange.Complete() {
		active = append(active, domain.DimensionDateRange)
	}
	if restricts(spec.Lenders, domain.AllLenders) {
		active = append(active, domain.DimensionLenders)
	}
	if spec.LTVBucket != domain.LTVAll && spec.LTVBucket != "" {
		active = append(active, domain.DimensionLTV)
	}
	if restricts(spec.PurchaseTypes, domain.AllPurchaseTypes) {
		active = append(active, domain.DimensionPurchaseTypes)
	}
	return active
}

func restricts(selection []string, sentinel string) bool {
	return len(selection) > 0 && !contains(selection, sentinel)
}

// Apply returns the records that satisfy every active dimension of spec.
// Records in an excluded premium band never pass. The result is a new slice;
// records is not modified.
func Apply(records []domain.MortgageRecord, spec domain.FilterSpec) ([]domain.MortgageRecord, error) {
	if err := Validate(spec); err != nil {
		return nil, err
	}

	p := newPredicate(spec)
	out := make([]domain.MortgageRecord, 0, len(records))
	for _, rec := range records {
		if p.match(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// predicate is a compiled FilterSpec.
type predicate struct {
	active        Active
	start, end    time.Time
	lenders       map[string]struct{}
	ltv           domain.LTVBucket
	purchaseTypes map[string]struct{}
}

func newPredicate(spec domain.FilterSpec) predicate {
	p := predicate{active: ActiveDimensions(spec), ltv: spec.LTVBucket}
	if p.active.Has(domain.DimensionDateRange) {
		p.start = dataprocessing.StartOfDay(*spec.DateRange.Start)
		p.end = dataprocessing.EndOfDay(*spec.DateRange.End)
	}
	if p.active.Has(domain.DimensionLenders) {
		p.lenders = toSet(spec.Lenders)
	}
	if p.active.Has(domain.DimensionPurchaseTypes) {
		p.purchaseTypes = toSet(spec.PurchaseTypes)
	}
	return p
}

func (p predicate) match(rec domain.MortgageRecord) bool {
	if normalize.IsExcludedBand(rec.PremiumBand) {
		return false
	}
	for _, d := range p.active {
		switch d {
		case domain.DimensionDateRange:
			if !rec.HasValidDate() || rec.DocumentDate.Before(p.start) || rec.DocumentDate.After(p.end) {
				return false
			}
		case domain.DimensionLenders:
			if _, ok := p.lenders[rec.Lender]; !ok {
				return false
			}
		case domain.DimensionLTV:
			if !MatchesLTV(p.ltv, rec.LTV) {
				return false
			}
		case domain.DimensionPurchaseTypes:
			if _, ok := p.purchaseTypes[rec.PurchaseType]; !ok {
				return false
			}
		}
	}
	return true
}

// MatchesLTV applies a bucket's threshold. The "above" buckets are inclusive
// (LTV >= threshold). An unparsed LTV only matches LTVAll.
func MatchesLTV(bucket domain.LTVBucket, ltv domain.Number) bool {
	if bucket == domain.LTVAll {
		return true
	}
	if !ltv.Valid {
		return false
	}
	switch bucket {
	case domain.LTVBelow80:
		return ltv.Value < 80
	case domain.LTVAbove80:
		return ltv.Value >= 80
	case domain.LTVAbove85:
		return ltv.Value >= 85
	case domain.LTVAbove90:
		return ltv.Value >= 90
	default:
		return false
	}
}

// DateBounds returns the earliest and latest valid document dates, or nils
// when no record has a valid date.
func DateBounds(records []domain.MortgageRecord) (minDate, maxDate *time.Time) {
	for i := range records {
		if !records[i].HasValidDate() {
			continue
		}
		d := records[i].DocumentDate
		if minDate == nil || d.Before(*minDate) {
			v := d
			minDate = &v
		}
		if maxDate == nil || d.After(*maxDate) {
			v := d
			maxDate = &v
		}
	}
	return minDate, maxDate
}

// DefaultSpec is the unrestricted specification spanning every dated record.
func DefaultSpec(records []domain.MortgageRecord) domain.FilterSpec {
	start, end := DateBounds(records)
	return domain.NewFilterSpec(start, end)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func dayOf(t time.Time) time.Time {
	return dataprocessing.StartOfDay(t)
}
