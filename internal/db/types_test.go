package db

import "testing"

func TestStringListValue(t *testing.T) {
	t.Parallel()

	empty, err := StringList{}.Value()
	if err != nil || empty != nil {
		t.Fatalf("expected NULL for empty list, got %v (%v)", empty, err)
	}

	value, err := StringList{"Health", "Tax"}.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if value != `["Health","Tax"]` {
		t.Fatalf("unexpected encoded value: %v", value)
	}

	var decoded StringList
	if err := decoded.Scan([]byte(`["Health","Tax"]`)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !decoded.Contains("Tax") || decoded.Contains("tax") {
		t.Fatalf("unexpected contains result for %v", decoded)
	}
}
