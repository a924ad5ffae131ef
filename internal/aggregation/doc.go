// Package aggregation builds the band by month view of a mortgage record
// collection and its loan-weighted metric averages.
//
// Amounts are summed with shopspring/decimal so totals over large collections
// carry no float drift; results are converted to float64 once at the end.
// Every call returns a new result and keeps no state between calls.
//
// Sampling (Options.SampleSize) reads only a head and tail slice of the
// collection. Results computed that way are flagged Sampled and are an
// approximation.
package aggregation
