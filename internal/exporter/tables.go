package exporter

import (
	"mortgagepulse/pkg/contracts/domain"
)

// Table is a header row plus string rows, shared by the CSV and workbook writers.
type Table struct {
	Headers []string
	Rows    [][]string
}

// AggregateHeaders are the columns of the band by month export.
var AggregateHeaders = []string{"band", "month", "amount", "count", "average", "market_share", "growth"}

// AggregateTable flattens a band by month result, one row per cell in band
// then month order. Growth is blank for the first month.
func AggregateTable(result *domain.AggregateResult) Table {
	t := Table{Headers: AggregateHeaders, Rows: make([][]string, 0)}
	if result == nil {
		return t
	}
	for _, band := range result.PremiumBands {
		for i, month := range result.Months {
			cell := result.Data[band][month]
			growth := ""
			if i > 0 {
				growth = formatFloat(result.GrowthRate[band][month])
			}
			t.Rows = append(t.Rows, []string{
				band,
				month,
				formatFloat(cell.Amount),
				formatInt(cell.Count),
				formatFloat(cell.Average),
				formatFloat(result.MarketShare[band][month]),
				growth,
			})
		}
	}
	return t
}

// WeightedHeaders are the columns of the weighted average export.
var WeightedHeaders = []string{"metric", "band", "month", "weighted_average", "count", "min", "max", "total_weight"}

// WeightedTable flattens weighted averages. Band level rows have an empty month
// and precede that band's monthly rows.
func WeightedTable(result *domain.WeightedAverageResult) Table {
	t := Table{Headers: WeightedHeaders, Rows: make([][]string, 0)}
	if result == nil {
		return t
	}
	row := func(metric domain.Metric, band, month string, s domain.WeightedStat) []string {
		return []string{
			string(metric),
			band,
			month,
			formatFloat(s.WeightedAverage),
			formatInt(s.Count),
			formatFloat(s.Min),
			formatFloat(s.Max),
			formatFloat(s.TotalWeight),
		}
	}
	for _, metric := range result.Metrics {
		for _, band := range result.PremiumBands {
			t.Rows = append(t.Rows, row(metric, band, "", result.ByBand[metric][band]))
			if result.ByBandMonth == nil {
				continue
			}
			for _, month := range result.Months {
				t.Rows = append(t.Rows, row(metric, band, month, result.ByBandMonth[metric][band][month]))
			}
		}
	}
	return t
}

// CrossTabHeaders are the columns of the long form cross-tab export.
var CrossTabHeaders = []string{"lender", "band", "ltv_segment", "amount", "count", "share"}

// allLabel marks a subtotal across bands or segments.
const allLabel = "all"

// CrossTabTable flattens ordered cross-tab rows into long form: for each row
// and band one line per LTV segment then the band subtotal, followed by the
// row total. Row order is kept, so the Total Market row stays last.
func CrossTabTable(rows []domain.CrossTabRow, bands []string) Table {
	t := Table{Headers: CrossTabHeaders, Rows: make([][]string, 0)}
	line := func(lender, band, segment string, c domain.ShareCell) []string {
		return []string{lender, band, segment, formatFloat(c.Amount), formatInt(c.Count), formatFloat(c.Percentage)}
	}
	for _, r := range rows {
		for _, band := range bands {
			for _, seg := range domain.LTVSegments {
				t.Rows = append(t.Rows, line(r.Lender, band, string(seg), r.Cells[band][seg]))
			}
			t.Rows = append(t.Rows, line(r.Lender, band, allLabel, r.BandTotals[band]))
		}
		t.Rows = append(t.Rows, line(r.Lender, allLabel, allLabel, r.Total))
	}
	return t
}

// CrossTabWideTable lays cross-tab rows out one line per lender with a share
// column per band and segment, then per band, then the overall share and amount.
func CrossTabWideTable(rows []domain.CrossTabRow, bands []string) Table {
	headers := []string{"lender"}
	for _, band := range bands {
		for _, seg := range domain.LTVSegments {
			headers = append(headers, band+" "+string(seg)+" %")
		}
		headers = append(headers, band+" %")
	}
	headers = append(headers, "total %", "total amount")

	t := Table{Headers: headers, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		line := make([]string, 0, len(headers))
		line = append(line, r.Lender)
		for _, band := range bands {
			for _, seg := range domain.LTVSegments {
				line = append(line, formatFloat(r.Cells[band][seg].Percentage))
			}
			line = append(line, formatFloat(r.BandTotals[band].Percentage))
		}
		line = append(line, formatFloat(r.Total.Percentage), formatFloat(r.Total.Amount))
		t.Rows = append(t.Rows, line)
	}
	return t
}
