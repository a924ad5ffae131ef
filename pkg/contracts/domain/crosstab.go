package domain

// TotalMarketLabel names the synthetic row equal to the market totals.
const TotalMarketLabel = "Total Market"

// LTVSegment splits the cross-tab by loan-to-value.
type LTVSegment string

const (
	SegmentUnder80         LTVSegment = "under_80"
	SegmentOver80OrUnknown LTVSegment = "over_80_or_unknown"
)

// LTVSegments lists the segments in display order.
var LTVSegments = []LTVSegment{SegmentUnder80, SegmentOver80OrUnknown}

// ShareCell is an amount, count and share of the containing total (0-100).
type ShareCell struct {
	Amount     float64 `json:"amount"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// CrossTabResult is the lender by band by LTV segment market-share view.
type CrossTabResult struct {
	Lenders      []string `json:"lenders"`
	PremiumBands []string `json:"premium_bands"`

	// ByLender is keyed lender, band, segment. Percentage is the share of the
	// matching BandSegmentTotals cell.
	ByLender map[string]map[string]map[LTVSegment]ShareCell `json:"by_lender"`
	// LenderBandTotals is keyed lender, band. Percentage is the share of BandTotals.
	LenderBandTotals map[string]map[string]ShareCell `json:"lender_band_totals"`
	// LenderTotals is keyed lender. Percentage is the share of GrandTotal.
	LenderTotals map[string]ShareCell `json:"lender_totals"`

	BandSegmentTotals map[string]map[LTVSegment]ShareCell `json:"band_segment_totals"`
	BandTotals        map[string]ShareCell                `json:"band_totals"`
	SegmentTotals     map[LTVSegment]ShareCell            `json:"segment_totals"`
	GrandTotal        ShareCell                           `json:"grand_total"`

	// Skipped counts records whose band was not selected, whose loan amount
	// was unusable or whose LTV was unparsable under the exclude policy.
	Skipped int `json:"skipped"`
}

// CrossTabRow is one display row: a lender or the Total Market row.
type CrossTabRow struct {
	Lender        string                              `json:"lender"`
	IsTotalMarket bool                                `json:"is_total_market"`
	Cells         map[string]map[LTVSegment]ShareCell `json:"cells"`
	BandTotals    map[string]ShareCell                `json:"band_totals"`
	Total         ShareCell                           `json:"total"`
}
