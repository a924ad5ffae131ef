// Package sampling bounds large collections for preview-scale work.
//
// HeadTail keeps the earliest and latest items of an ordered collection rather
// than a random subset, so results computed from a sample are an
// approximation that still covers both ends of the time range.
package sampling

// HeadTail returns at most n items: the first ceil(n/2) and the last floor(n/2)
// of items, in their original order. sampled is false and items is returned
// as-is when n <= 0 or the collection already fits.
func HeadTail[T any](items []T, n int) (out []T, sampled bool) {
	if n <= 0 || len(items) <= n {
		return items, false
	}
	head := (n + 1) / 2
	tail := n - head

	out = make([]T, 0, n)
	out = append(out, items[:head]...)
	out = append(out, items[len(items)-tail:]...)
	return out, true
}
