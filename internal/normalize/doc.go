// Package normalize maps raw mortgage pricing columns onto canonical fields and
// converts margin buckets into basis point premium bands.
//
// Margin buckets arrive as decimal percentage ranges ("1.6-1.8"). Both bounds
// are signed, so the hyphen separating them can sit next to a sign:
//
//	ConvertMarginBucketToBps("1.6-1.8")   // "160-180"
//	ConvertMarginBucketToBps("-0.4--0.2") // "-40--20"
//	ConvertMarginBucketToBps("n/a")       // "n/a"
//
// Bands sort by their numeric lower bound (CompareBands). "Unknown" and the
// negative "-0.4--0.2" band, in either spelling, are excluded from every
// aggregate view (IsExcludedBand).
package normalize
