// Package filter applies a FilterSpec to a mortgage record collection.
//
// A spec restricts four dimensions: document date range, lender set, LTV
// bucket and purchase type set. Only active dimensions (see ActiveDimensions)
// take part in the conjunctive predicate used by Apply. Records in an excluded
// premium band are dropped by every filter, including the default one.
//
// Engine wraps a collection with its current spec, the derived active set and
// the cached AvailableOptions for building selectors.
package filter
