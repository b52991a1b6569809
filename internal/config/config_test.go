package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Environment:              "local",
		LogLevel:                 "info",
		DatabaseURL:              "postgres://localhost/breakdown",
		DBMinConns:               1,
		DBMaxConns:               8,
		CongressBaseURL:          "https://api.propublica.org/congress/v1",
		CongressAPIKey:           "key",
		CongressNumber:           118,
		CongressPageSize:         20,
		CongressFetchConcurrency: 6,
		SyncChunkSize:            20,
		SyncChunkDelay:           10 * time.Second,
		DocumentBaseURL:          "https://www.congress.gov",
		SummaryChunkChars:        8000,
		EnrichmentWorkers:        4,
		ScheduleInterval:         time.Hour,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing api key", mutate: func(c *Config) { c.CongressAPIKey = "  " }, wantErr: "CONGRESS_API_KEY"},
		{name: "min exceeds max", mutate: func(c *Config) { c.DBMinConns = 9 }, wantErr: "cannot exceed"},
		{name: "bad base url", mutate: func(c *Config) { c.CongressBaseURL = "ftp://example.com" }, wantErr: "CONGRESS_BASE_URL"},
		{name: "zero chunk size", mutate: func(c *Config) { c.SyncChunkSize = 0 }, wantErr: "SYNC_CHUNK_SIZE"},
		{name: "negative delay", mutate: func(c *Config) { c.SyncChunkDelay = -time.Second }, wantErr: "SYNC_CHUNK_DELAY"},
		{name: "zero workers", mutate: func(c *Config) { c.EnrichmentWorkers = 0 }, wantErr: "ENRICHMENT_WORKERS"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestKafkaBrokerList(t *testing.T) {
	t.Parallel()

	cfg := &Config{KafkaBrokers: " kafka-1:9092, ,kafka-2:9092,kafka-1:9092 "}
	got := cfg.KafkaBrokerList()
	want := []string{"kafka-1:9092", "kafka-2:9092"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected brokers: got %v want %v", got, want)
	}

	if brokers := (&Config{}).KafkaBrokerList(); len(brokers) != 0 {
		t.Fatalf("expected no brokers, got %v", brokers)
	}
}
