package marketshare

import (
	"fmt"
	"sort"
	"strings"

	apperrors "mortgagepulse/internal/errors"
	"mortgagepulse/pkg/contracts/domain"
)

// SortKey selects the ordering of lender rows.
type SortKey string

const (
	// SortTotalDesc orders lenders by descending grand total, then by name.
	SortTotalDesc SortKey = "total_desc"
	// SortName orders lenders alphabetically.
	SortName SortKey = "name"
)

// Rows flattens a cross-tab into display rows. Lender rows follow key and the
// Total Market row, built from the band and segment totals, always comes last.
// An empty key means SortTotalDesc.
func Rows(result *domain.CrossTabResult, key SortKey) ([]domain.CrossTabRow, error) {
	if result == nil {
		return nil, apperrors.NewContractError("rows require a cross-tab result", ErrNilCollection)
	}
	if key == "" {
		key = SortTotalDesc
	}

	lenders := append([]string(nil), result.Lenders...)
	switch key {
	case SortName:
		sortStrings(lenders)
	case SortTotalDesc:
		sort.SliceStable(lenders, func(i, j int) bool {
			a, b := result.LenderTotals[lenders[i]], result.LenderTotals[lenders[j]]
			if a.Amount != b.Amount {
				return a.Amount > b.Amount
			}
			return strings.ToLower(lenders[i]) < strings.ToLower(lenders[j])
		})
	default:
		return nil, apperrors.NewContractError(fmt.Sprintf("unknown sort key %q", key), nil)
	}

	rows := make([]domain.CrossTabRow, 0, len(lenders)+1)
	for _, lender := range lenders {
		rows = append(rows, domain.CrossTabRow{
			Lender:     lender,
			Cells:      result.ByLender[lender],
			BandTotals: result.LenderBandTotals[lender],
			Total:      result.LenderTotals[lender],
		})
	}
	rows = append(rows, domain.CrossTabRow{
		Lender:        domain.TotalMarketLabel,
		IsTotalMarket: true,
		Cells:         result.BandSegmentTotals,
		BandTotals:    result.BandTotals,
		Total:         result.GrandTotal,
	})
	return rows, nil
}

// sortStrings orders names case-insensitively, falling back to byte order.
func sortStrings(names []string) {
	sort.Slice(names, func(i, j int) bool {
		a, b := strings.ToLower(names[i]), strings.ToLower(names[j])
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})
}
