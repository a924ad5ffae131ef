// Package exporter renders aggregate, weighted average and cross-tab results
// as CSV files and as a multi-sheet XLSX report.
//
// Table builders (AggregateTable, WeightedTable, CrossTabTable) flatten results
// into string rows with two decimal places. CSVWriter writes a Table with a
// UTF-8 BOM so Excel opens it correctly. WorkbookWriter writes numeric cells
// to the Totals, Market Share, Growth, Weighted and Cross Tab sheets.
//
// Example usage:
//
//	csvw := exporter.NewCSVWriter(paths)
//	err := csvw.WriteTable(config.AggregateCSVName, exporter.AggregateTable(result))
//
//	xlsx := exporter.NewWorkbookWriter(paths, logger)
//	err = xlsx.WriteReport(config.WorkbookName, exporter.Report{Aggregate: result})
package exporter
