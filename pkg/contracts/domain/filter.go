package domain

import (
	"time"
)

// Sentinel selections meaning "no restriction" for the set-valued dimensions.
const (
	AllLenders       = "all_lenders"
	AllPurchaseTypes = "all_purchase_types"
)

// LTVBucket restricts records by loan-to-value.
type LTVBucket string

const (
	LTVAll     LTVBucket = "all"
	LTVBelow80 LTVBucket = "below-80"
	LTVAbove80 LTVBucket = "above-80"
	LTVAbove85 LTVBucket = "above-85"
	LTVAbove90 LTVBucket = "above-90"
)

// LTVBuckets lists the accepted bucket values.
var LTVBuckets = []LTVBucket{LTVAll, LTVBelow80, LTVAbove80, LTVAbove85, LTVAbove90}

// Valid reports whether b is one of LTVBuckets.
func (b LTVBucket) Valid() bool {
	for _, known := range LTVBuckets {
		if b == known {
			return true
		}
	}
	return false
}

// Dimension identifies one field of a FilterSpec.
type Dimension string

const (
	DimensionDateRange     Dimension = "dateRange"
	DimensionLenders       Dimension = "lenders"
	DimensionLTV           Dimension = "ltvBucket"
	DimensionPurchaseTypes Dimension = "purchaseTypes"
)

// DateRange bounds the document date. A nil bound is open.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Complete reports whether both bounds are set.
func (r DateRange) Complete() bool {
	return r.Start != nil && r.End != nil
}

// FilterSpec is the caller-owned filter value object. Lenders and PurchaseTypes
// hold either explicit members or the single matching sentinel, never both.
type FilterSpec struct {
	DateRange     DateRange `json:"date_range"`
	Lenders       []string  `json:"lenders"`
	LTVBucket     LTVBucket `json:"ltv_bucket" validate:"required,ltv_bucket"`
	PurchaseTypes []string  `json:"purchase_types"`
}

// NewFilterSpec returns the default specification over the given date bounds.
func NewFilterSpec(start, end *time.Time) FilterSpec {
	return FilterSpec{
		DateRange:     DateRange{Start: copyTime(start), End: copyTime(end)},
		Lenders:       []string{AllLenders},
		LTVBucket:     LTVAll,
		PurchaseTypes: []string{AllPurchaseTypes},
	}
}

// Clone returns a deep copy so callers can mutate it independently.
func (s FilterSpec) Clone() FilterSpec {
	out := s
	out.DateRange = DateRange{Start: copyTime(s.DateRange.Start), End: copyTime(s.DateRange.End)}
	out.Lenders = append([]string(nil), s.Lenders...)
	out.PurchaseTypes = append([]string(nil), s.PurchaseTypes...)
	return out
}

// SetDateRange replaces both date bounds.
func (s *FilterSpec) SetDateRange(start, end *time.Time) {
	s.DateRange = DateRange{Start: copyTime(start), End: copyTime(end)}
}

// SetLTVBucket replaces the LTV bucket.
func (s *FilterSpec) SetLTVBucket(b LTVBucket) {
	s.LTVBucket = b
}

// SelectLenders replaces the lender selection. Passing the sentinel, alone or
// mixed with members, selects all lenders.
func (s *FilterSpec) SelectLenders(lenders ...string) {
	s.Lenders = selectMembers(AllLenders, lenders)
}

// ToggleLender adds or removes one lender, clearing the sentinel.
func (s *FilterSpec) ToggleLender(lender string) {
	s.Lenders = toggleMember(AllLenders, s.Lenders, lender)
}

// SelectAllLenders clears any explicit lender selection.
func (s *FilterSpec) SelectAllLenders() {
	s.Lenders = []string{AllLenders}
}

// SelectPurchaseTypes replaces the purchase type selection.
func (s *FilterSpec) SelectPurchaseTypes(types ...string) {
	s.PurchaseTypes = selectMembers(AllPurchaseTypes, types)
}

// TogglePurchaseType adds or removes one purchase type, clearing the sentinel.
func (s *FilterSpec) TogglePurchaseType(purchaseType string) {
	s.PurchaseTypes = toggleMember(AllPurchaseTypes, s.PurchaseTypes, purchaseType)
}

// SelectAllPurchaseTypes clears any explicit purchase type selection.
func (s *FilterSpec) SelectAllPurchaseTypes() {
	s.PurchaseTypes = []string{AllPurchaseTypes}
}

func selectMembers(sentinel string, members []string) []string {
	if len(members) == 0 {
		return []string{sentinel}
	}
	out := make([]string, 0, len(members))
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if m == sentinel {
			return []string{sentinel}
		}
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func toggleMember(sentinel string, current []string, member string) []string {
	if member == sentinel {
		return []string{sentinel}
	}
	out := make([]string, 0, len(current)+1)
	found := false
	for _, m := range current {
		if m == sentinel {
			continue
		}
		if m == member {
			found = true
			continue
		}
		out = append(out, m)
	}
	if !found {
		out = append(out, member)
	}
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
