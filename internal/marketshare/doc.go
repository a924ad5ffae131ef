// Package marketshare splits loan volume across lenders, premium bands and
// LTV segments.
//
// CrossTab builds a three level breakdown where every lender cell carries its
// share of the matching band and segment total. Rows flattens that breakdown
// into ordered display rows ending with a synthetic Total Market row.
//
// Records whose LTV did not parse are bucketed with the over 80% segment by
// default. PolicyExclude drops them instead.
package marketshare
