package config

import "mortgagepulse/pkg/contracts"

// Application constants
const (
	AppName    = "mortgage-report"
	AppVersion = contracts.Version

	// DefaultOptionsSampleLimit bounds the records scanned when listing filter options.
	DefaultOptionsSampleLimit = 10000
	// DefaultMaxConcurrentFiles bounds how many source files are read at once.
	DefaultMaxConcurrentFiles = 4

	// Report file names written under Paths.ReportsDir
	AggregateCSVName = "aggregate.csv"
	CrossTabCSVName  = "cross_tab.csv"
	WorkbookName     = "mortgage_report.xlsx"
	MetricsFileName  = "mortgage_report.prom"
)

// SourceExtensions lists the file types discovered as pricing sources.
var SourceExtensions = []string{".xlsx", ".csv"}
