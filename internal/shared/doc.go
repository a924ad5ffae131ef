// Package shared holds helpers used across packages that belong to no single
// engine. Its testutil subpackage provides:
//
//	- BufferedSlogHandler for asserting on structured log output
//	- Record fixtures (testutil.Record with RecordOption modifiers)
//	- Workbook and CSV writers for reader tests
//
// Example:
//
//	func TestAggregate(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    records := []domain.MortgageRecord{
//	        testutil.Record("Acme", "160-180", 100, "2025-01-10", testutil.WithLTV(75)),
//	    }
//	    ...
//	}
package shared
