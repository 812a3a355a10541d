package canon

import "sort"

// StableSort returns a new slice containing the elements of in ordered by
// less, with ties resolved by original index. sort.SliceStable already
// preserves input order among equal elements, so the tiebreak is implicit;
// StableSort exists so every package in this module goes through one named
// entry point for "the comparator + original-index tiebreak stable sort"
// the spec requires for every enumerable output (indexes, summaries, edges,
// facts), rather than each caller reaching for sort.SliceStable directly.
func StableSort[T any](in []T, less func(a, b T) bool) []T {
	out := make([]T, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
