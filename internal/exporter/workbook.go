package exporter

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"mortgagepulse/internal/config"
	apperrors "mortgagepulse/internal/errors"
	"mortgagepulse/pkg/contracts/domain"
)

// Workbook sheet names.
const (
	SheetTotals      = "Totals"
	SheetMarketShare = "Market Share"
	SheetGrowth      = "Growth"
	SheetWeighted    = "Weighted"
	SheetCrossTab    = "Cross Tab"
)

// Report gathers the results written to one workbook. Nil parts are left out.
type Report struct {
	Aggregate     *domain.AggregateResult
	Weighted      *domain.WeightedAverageResult
	CrossTabRows  []domain.CrossTabRow
	CrossTabBands []string
}

// WorkbookWriter renders a Report as a multi-sheet XLSX file.
type WorkbookWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewWorkbookWriter creates a WorkbookWriter. Relative paths resolve against
// the reports directory of paths.
func NewWorkbookWriter(paths *config.Paths, logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{paths: paths, logger: logger}
}

type sheet struct {
	name    string
	headers []string
	rows    [][]any
}

// WriteReport writes the report to filePath, replacing any existing file.
// Numeric cells are written as numbers so they stay sortable in Excel.
func (w *WorkbookWriter) WriteReport(filePath string, report Report) error {
	fullPath := resolveReportPath(w.paths, filePath)

	sheets := reportSheets(report)
	if len(sheets) == 0 {
		sheets = append(sheets, sheet{name: SheetTotals, headers: []string{"band", "total"}})
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return apperrors.NewStorageError("failed to create header style", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return apperrors.NewStorageError("failed to name sheet", err).WithContext("sheet", s.name)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return apperrors.NewStorageError("failed to add sheet", err).WithContext("sheet", s.name)
		}
		if err := writeSheet(f, s, header); err != nil {
			return apperrors.NewStorageError("failed to write sheet", err).WithContext("sheet", s.name)
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err).WithContext("path", fullPath)
	}
	if err := f.SaveAs(fullPath); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err).WithContext("path", fullPath)
	}

	w.logger.Info("Workbook written",
		slog.String("path", fullPath),
		slog.Int("sheets", len(sheets)))
	return nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	headerRow := make([]any, len(s.headers))
	for i, h := range s.headers {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(s.name, "A1", &headerRow); err != nil {
		return err
	}
	if len(s.headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(s.headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for i := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &s.rows[i]); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(s.name, "A", "A", 22); err != nil {
		return err
	}
	return f.SetPanes(s.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func reportSheets(report Report) []sheet {
	var sheets []sheet
	if agg := report.Aggregate; agg != nil {
		sheets = append(sheets, totalsSheet(agg), marketShareSheet(agg), growthSheet(agg))
	}
	if report.Weighted != nil {
		sheets = append(sheets, weightedSheet(report.Weighted))
	}
	if report.CrossTabRows != nil {
		sheets = append(sheets, crossTabSheet(report.CrossTabRows, report.CrossTabBands))
	}
	return sheets
}

// totalsSheet is a band by month amount matrix with a total column and a total row.
func totalsSheet(agg *domain.AggregateResult) sheet {
	s := sheet{name: SheetTotals, headers: append(append([]string{"band"}, agg.Months...), "total")}
	for _, band := range agg.PremiumBands {
		row := []any{band}
		for _, month := range agg.Months {
			row = append(row, agg.Data[band][month].Amount)
		}
		row = append(row, agg.Totals.ByPremiumBand[band].Amount)
		s.rows = append(s.rows, row)
	}
	total := []any{"total"}
	for _, month := range agg.Months {
		total = append(total, agg.Totals.ByMonth[month].Amount)
	}
	s.rows = append(s.rows, append(total, agg.Totals.Overall.Amount))
	return s
}

func marketShareSheet(agg *domain.AggregateResult) sheet {
	s := sheet{name: SheetMarketShare, headers: append([]string{"band"}, agg.Months...)}
	for _, band := range agg.PremiumBands {
		row := []any{band}
		for _, month := range agg.Months {
			row = append(row, agg.MarketShare[band][month])
		}
		s.rows = append(s.rows, row)
	}
	return s
}

// growthSheet has no column for the first month, which has no predecessor.
func growthSheet(agg *domain.AggregateResult) sheet {
	months := agg.Months
	if len(months) > 0 {
		months = months[1:]
	}
	s := sheet{name: SheetGrowth, headers: append([]string{"band"}, months...)}
	for _, band := range agg.PremiumBands {
		row := []any{band}
		for _, month := range months {
			row = append(row, agg.GrowthRate[band][month])
		}
		s.rows = append(s.rows, row)
	}
	return s
}

func weightedSheet(res *domain.WeightedAverageResult) sheet {
	s := sheet{name: SheetWeighted, headers: WeightedHeaders}
	add := func(metric domain.Metric, band, month string, st domain.WeightedStat) {
		s.rows = append(s.rows, []any{string(metric), band, month, st.WeightedAverage, st.Count, st.Min, st.Max, st.TotalWeight})
	}
	for _, metric := range res.Metrics {
		for _, band := range res.PremiumBands {
			add(metric, band, "", res.ByBand[metric][band])
			if res.ByBandMonth == nil {
				continue
			}
			for _, month := range res.Months {
				add(metric, band, month, res.ByBandMonth[metric][band][month])
			}
		}
	}
	return s
}

func crossTabSheet(rows []domain.CrossTabRow, bands []string) sheet {
	wide := CrossTabWideTable(nil, bands)
	s := sheet{name: SheetCrossTab, headers: wide.Headers}
	for _, r := range rows {
		row := []any{r.Lender}
		for _, band := range bands {
			for _, seg := range domain.LTVSegments {
				row = append(row, r.Cells[band][seg].Percentage)
			}
			row = append(row, r.BandTotals[band].Percentage)
		}
		s.rows = append(s.rows, append(row, r.Total.Percentage, r.Total.Amount))
	}
	return s
}
