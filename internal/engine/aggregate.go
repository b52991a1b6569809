package engine

// Aggregate concatenates category result sets in the order given. It does
// not deduplicate, so earlier categories win first-seen precedence later.
func Aggregate[T any](sets ...[]T) []T {
	total := 0
	for _, set := range sets {
		total += len(set)
	}
	out := make([]T, 0, total)
	for _, set := range sets {
		out = append(out, set...)
	}
	return out
}
