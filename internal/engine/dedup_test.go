package engine

import (
	"reflect"
	"testing"
)

type keyed struct {
	key   string
	label string
}

func keyOf(k keyed) string { return k.key }

func TestDedupPreservesFirstSeenOrder(t *testing.T) {
	t.Parallel()

	in := []keyed{{"a", "a1"}, {"b", "b1"}, {"a", "a2"}, {"c", "c1"}}
	got, dups := Dedup(in, keyOf)

	want := []keyed{{"a", "a1"}, {"b", "b1"}, {"c", "c1"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected dedup result: %v", got)
	}
	if dups != 1 {
		t.Fatalf("unexpected duplicate count: %d", dups)
	}
}

func TestDedupStateIsPerInvocation(t *testing.T) {
	t.Parallel()

	in := []keyed{{"a", "1"}, {"b", "2"}}
	first, _ := Dedup(in, keyOf)
	second, dups := Dedup(in, keyOf)
	if !reflect.DeepEqual(first, second) || dups != 0 {
		t.Fatalf("expected identical independent runs, got %v / %v (dups=%d)", first, second, dups)
	}
}

func TestDeduplicatorReportsDuplicates(t *testing.T) {
	t.Parallel()

	var reported []string
	d := NewDeduplicator(keyOf, func(key string) { reported = append(reported, key) })
	d.Filter([]keyed{{"x", ""}, {"x", ""}})
	d.Filter([]keyed{{"x", ""}, {"y", ""}})

	if d.Duplicates() != 2 || !reflect.DeepEqual(reported, []string{"x", "x"}) {
		t.Fatalf("unexpected duplicates: %d %v", d.Duplicates(), reported)
	}
}

func TestAggregateConcatenatesInOrder(t *testing.T) {
	t.Parallel()

	got := Aggregate([]int{1}, nil, []int{2, 1}, []int{})
	if !reflect.DeepEqual(got, []int{1, 2, 1}) {
		t.Fatalf("unexpected aggregate: %v", got)
	}
}

func TestDropKeyless(t *testing.T) {
	t.Parallel()

	got, dropped := dropKeyless([]keyed{{"a", ""}, {" ", ""}, {"", ""}}, keyOf)
	if len(got) != 1 || dropped != 2 {
		t.Fatalf("unexpected keyless filter: %v dropped=%d", got, dropped)
	}
}
