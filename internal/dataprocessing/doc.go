// Package dataprocessing turns raw mortgage pricing exports into the canonical
// record collection that the filter, aggregation and cross-tab engines consume.
//
// # Architecture
//
// The package is organized into three parts:
//
// 1. Readers: ReadWorkbook and ReadCSV load one source into a domain.Dataset
// 2. Field parsing: ParseDate and CoerceNumeric read ambiguous cell values
// 3. Ingestor: normalizes rows, rejects unidentifiable ones, deduplicates and sorts
//
// # Usage
//
//	ds, err := dataprocessing.ReadWorkbook("pricing-2025-01.xlsx")
//	if err != nil {
//	    return err
//	}
//	ing := dataprocessing.NewIngestor(logger, dataprocessing.IngestorConfig{Deduplicate: true})
//	records, stats := ing.CombineAndSort(ctx, []domain.Dataset{ds})
//
// # Data Flow
//
//	XLSX/CSV → Reader → Dataset → Ingestor → []MortgageRecord (sorted by document date)
//
// # Error Handling
//
// Cell level problems never fail a call. An unreadable date becomes the zero
// time, an unreadable number keeps its text with Valid=false and an
// unconvertible margin bucket yields the Unknown band. Rows without any
// identifying field are counted in IngestStats.Rejected and dropped. Only
// reader failures (missing file, malformed CSV, no header row) return errors.
package dataprocessing
