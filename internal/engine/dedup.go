package engine

import "strings"

// Deduplicator drops records whose natural key was already seen during one
// invocation. State is never persisted.
type Deduplicator[T any] struct {
	key         func(T) string
	seen        map[string]struct{}
	duplicates  int
	onDuplicate func(key string)
}

func NewDeduplicator[T any](key func(T) string, onDuplicate func(key string)) *Deduplicator[T] {
	return &Deduplicator[T]{
		key:         key,
		seen:        make(map[string]struct{}),
		onDuplicate: onDuplicate,
	}
}

// Keep reports whether item is the first with its key and marks the key seen.
func (d *Deduplicator[T]) Keep(item T) bool {
	k := strings.TrimSpace(d.key(item))
	if _, ok := d.seen[k]; ok {
		d.duplicates++
		if d.onDuplicate != nil {
			d.onDuplicate(k)
		}
		return false
	}
	d.seen[k] = struct{}{}
	return true
}

// Filter streams items once and returns the first occurrence of each key in
// input order.
func (d *Deduplicator[T]) Filter(items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if d.Keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func (d *Deduplicator[T]) Duplicates() int {
	return d.duplicates
}

// Dedup is the single-pass form of Deduplicator.
func Dedup[T any](items []T, key func(T) string) ([]T, int) {
	d := NewDeduplicator(key, nil)
	kept := d.Filter(items)
	return kept, d.Duplicates()
}

// dropKeyless removes records without a natural key and reports how many.
func dropKeyless[T any](items []T, key func(T) string) ([]T, int) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(key(item)) == "" {
			continue
		}
		out = append(out, item)
	}
	return out, len(items) - len(out)
}
