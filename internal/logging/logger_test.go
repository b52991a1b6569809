package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriterEmitsJSONOutsideLocal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewWithWriter("production", "debug", &buf)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	componentLogger := Component(logger, "page_fetcher")
	componentLogger.Info().Str("category", "introduced").Msg("page fetched")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["service"] != "breakdown" {
		t.Fatalf("unexpected service field: %v", line["service"])
	}
	if line["component"] != "page_fetcher" {
		t.Fatalf("unexpected component field: %v", line["component"])
	}
	if line["category"] != "introduced" {
		t.Fatalf("unexpected category field: %v", line["category"])
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := New("local", "loud"); err == nil {
		t.Fatalf("expected invalid level error")
	}
}
