package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"mortgagepulse/internal/normalize"
	"mortgagepulse/pkg/contracts/domain"
)

// Ingestor turns raw source rows into the canonical record collection.
type Ingestor struct {
	logger *slog.Logger
	config IngestorConfig
}

// IngestorConfig holds options for an Ingestor.
type IngestorConfig struct {
	Deduplicate bool // Drop repeated provider/product/rate/date rows, keeping the first
}

// DefaultIngestorConfig returns the default ingestion options.
func DefaultIngestorConfig() IngestorConfig {
	return IngestorConfig{Deduplicate: false}
}

// NewIngestor creates an Ingestor. A nil logger uses slog.Default().
func NewIngestor(logger *slog.Logger, config IngestorConfig) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{logger: logger, config: config}
}

// CombineAndSort flattens every dataset, normalizes each row into a record,
// drops rows that fail IsValidRecord, optionally deduplicates and sorts the
// result ascending by document date. Records with an invalid date are kept and
// placed after all dated records in their original order.
//
// The returned slice is freshly allocated and owned by the caller.
func (ing *Ingestor) CombineAndSort(ctx context.Context, datasets []domain.Dataset) ([]domain.MortgageRecord, domain.IngestStats) {
	var stats domain.IngestStats
	records := make([]domain.MortgageRecord, 0)

	for _, ds := range datasets {
		mapping := normalize.MapColumns(datasetHeaders(ds))
		if len(mapping.Unmapped) > 0 {
			ing.logger.DebugContext(ctx, "unmapped source columns",
				slog.String("source", ds.Source),
				slog.Any("columns", mapping.Unmapped))
		}

		for i, row := range ds.Rows {
			stats.Total++
			rec := NormalizeRow(row, mapping)
			if !IsValidRecord(rec) {
				stats.Rejected++
				ing.logger.DebugContext(ctx, "row rejected, no identifying fields",
					slog.String("source", ds.Source),
					slog.Int("row", i+1))
				continue
			}
			if !rec.HasValidDate() {
				stats.InvalidDates++
			}
			records = append(records, rec)
		}
	}

	if ing.config.Deduplicate {
		var dups int
		records, dups = Deduplicate(records)
		stats.Duplicates = dups
	}

	SortByDate(records)
	stats.Accepted = len(records)

	ing.logger.InfoContext(ctx, "ingestion complete",
		slog.Int("sources", len(datasets)),
		slog.Int("rows", stats.Total),
		slog.Int("accepted", stats.Accepted),
		slog.Int("rejected", stats.Rejected),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("invalid_dates", stats.InvalidDates))

	return records, stats
}

// datasetHeaders returns the declared headers, or the sorted key union when none were declared.
func datasetHeaders(ds domain.Dataset) []string {
	if len(ds.Headers) > 0 {
		return ds.Headers
	}
	seen := make(map[string]bool)
	var headers []string
	for _, row := range ds.Rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}
	sort.Strings(headers)
	return headers
}

// NormalizeRow applies column mapping, numeric coercion, date parsing and band
// conversion to one raw row.
func NormalizeRow(row domain.RawRow, mapping normalize.ColumnMapping) domain.MortgageRecord {
	var rec domain.MortgageRecord
	var premiumBand string

	for header, value := range row {
		field, ok := mapping.Fields[header]
		if !ok {
			if text := cellText(value); text != "" && strings.TrimSpace(header) != "" {
				if rec.Extra == nil {
					rec.Extra = make(map[string]string)
				}
				rec.Extra[header] = text
			}
			continue
		}

		switch field {
		case normalize.FieldProvider:
			rec.Provider = cellText(value)
		case normalize.FieldLender:
			rec.Lender = cellText(value)
		case normalize.FieldProductName:
			rec.ProductName = cellText(value)
		case normalize.FieldPurchaseType:
			rec.PurchaseType = cellText(value)
		case normalize.FieldLoanAmount:
			rec.LoanAmount = CoerceNumeric(value)
		case normalize.FieldLTV:
			rec.LTV = CoerceNumeric(value)
		case normalize.FieldTerm:
			rec.Term = CoerceNumeric(value)
		case normalize.FieldInitialRate:
			rec.InitialRate = CoerceNumeric(value)
		case normalize.FieldSwapRate:
			rec.SwapRate = CoerceNumeric(value)
		case normalize.FieldGrossMargin:
			rec.GrossMargin = CoerceNumeric(value)
		case normalize.FieldFlatFees:
			rec.FlatFees = CoerceNumeric(value)
		case normalize.FieldPercentageFees:
			rec.PercentageFees = CoerceNumeric(value)
		case normalize.FieldDocumentDate:
			rec.RawDocumentDate = cellText(value)
			rec.DocumentDate = ParseDate(value)
		case normalize.FieldMarginBucket:
			rec.MarginBucket = cellText(value)
		case normalize.FieldPremiumBand:
			premiumBand = cellText(value)
		}
	}

	if rec.Lender == "" {
		rec.Lender = rec.Provider
	}
	rec.PremiumBand = resolveBand(premiumBand, rec.MarginBucket)
	return rec
}

// resolveBand prefers an explicit premium band column and falls back to the
// margin bucket. Anything that does not end up as a bps range is UnknownBand.
func resolveBand(premiumBand, marginBucket string) string {
	if premiumBand != "" {
		if band := normalize.StandardizePremiumBand(premiumBand); normalize.IsBpsBand(band) {
			return band
		}
	}
	if marginBucket != "" {
		if band := normalize.ConvertMarginBucketToBps(marginBucket); normalize.IsBpsBand(band) {
			return band
		}
	}
	return domain.UnknownBand
}

// IsValidRecord reports whether a record carries at least one identifying
// field: provider or lender, product name, rate or document date. It is an
// inclusion check, not schema validation.
func IsValidRecord(rec domain.MortgageRecord) bool {
	return rec.Provider != "" ||
		rec.Lender != "" ||
		rec.ProductName != "" ||
		rec.InitialRate.Valid ||
		strings.TrimSpace(rec.InitialRate.Raw) != "" ||
		rec.HasValidDate() ||
		rec.RawDocumentDate != ""
}

// Deduplicate keeps the first record for each provider, product name, rate and
// document date combination. It returns a new slice and the number of records dropped.
func Deduplicate(records []domain.MortgageRecord) ([]domain.MortgageRecord, int) {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.MortgageRecord, 0, len(records))
	for _, rec := range records {
		key := dedupKey(rec)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out, len(records) - len(out)
}

func dedupKey(rec domain.MortgageRecord) string {
	rate := rec.InitialRate.Raw
	if rate == "" && rec.InitialRate.Valid {
		rate = strconv.FormatFloat(rec.InitialRate.Value, 'f', -1, 64)
	}
	date := rec.RawDocumentDate
	if rec.HasValidDate() {
		date = rec.DocumentDate.Format("2006-01-02")
	}
	return strings.Join([]string{rec.Provider, rec.ProductName, strings.TrimSpace(rate), date}, "|")
}

// SortByDate orders records ascending by document date in place. The sort is
// stable and undated records go last.
func SortByDate(records []domain.MortgageRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch {
		case !a.HasValidDate():
			return false
		case !b.HasValidDate():
			return true
		default:
			return a.DocumentDate.Before(b.DocumentDate)
		}
	})
}
