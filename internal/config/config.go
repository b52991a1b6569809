package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"8"`

	CongressBaseURL           string        `envconfig:"CONGRESS_BASE_URL" default:"https://api.propublica.org/congress/v1"`
	CongressAPIKey            string        `envconfig:"CONGRESS_API_KEY" required:"true"`
	CongressNumber            int           `envconfig:"CONGRESS_NUMBER" default:"118"`
	CongressPageSize          int           `envconfig:"CONGRESS_PAGE_SIZE" default:"20"`
	CongressFetchConcurrency  int           `envconfig:"CONGRESS_FETCH_CONCURRENCY" default:"6"`
	CongressRequestsPerSecond float64       `envconfig:"CONGRESS_REQUESTS_PER_SECOND" default:"0"`
	CongressRequestTimeout    time.Duration `envconfig:"CONGRESS_REQUEST_TIMEOUT" default:"20s"`

	SyncChunkSize  int           `envconfig:"SYNC_CHUNK_SIZE" default:"20"`
	SyncChunkDelay time.Duration `envconfig:"SYNC_CHUNK_DELAY" default:"10s"`

	DocumentBaseURL string        `envconfig:"DOCUMENT_BASE_URL" default:"https://www.congress.gov"`
	DocumentTimeout time.Duration `envconfig:"DOCUMENT_TIMEOUT" default:"20s"`

	SummaryProvider   string        `envconfig:"SUMMARY_PROVIDER" default:"openai"`
	SummaryEndpoint   string        `envconfig:"SUMMARY_ENDPOINT" default:"https://api.openai.com/v1"`
	SummaryModel      string        `envconfig:"SUMMARY_MODEL" default:"gpt-4o-mini"`
	SummaryAPIKey     string        `envconfig:"SUMMARY_API_KEY" default:""`
	SummaryTimeout    time.Duration `envconfig:"SUMMARY_TIMEOUT" default:"120s"`
	SummaryChunkChars int           `envconfig:"SUMMARY_CHUNK_CHARS" default:"8000"`

	EnrichmentEnabled bool `envconfig:"ENRICHMENT_ENABLED" default:"true"`
	EnrichmentWorkers int  `envconfig:"ENRICHMENT_WORKERS" default:"4"`

	RedisURL        string        `envconfig:"REDIS_URL" default:""`
	SubjectCacheTTL time.Duration `envconfig:"SUBJECT_CACHE_TTL" default:"24h"`
	KeyLockTTL      time.Duration `envconfig:"KEY_LOCK_TTL" default:"30s"`

	KafkaBrokers   string `envconfig:"KAFKA_BROKERS" default:""`
	KafkaSyncTopic string `envconfig:"KAFKA_SYNC_TOPIC" default:"breakdown.sync.completed"`

	ScheduleInterval time.Duration `envconfig:"SCHEDULE_INTERVAL" default:"24h"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) cannot exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if strings.TrimSpace(c.CongressAPIKey) == "" {
		return fmt.Errorf("CONGRESS_API_KEY is required")
	}
	if err := validateHTTPURL("CONGRESS_BASE_URL", c.CongressBaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("DOCUMENT_BASE_URL", c.DocumentBaseURL); err != nil {
		return err
	}
	if c.CongressNumber < 1 {
		return fmt.Errorf("CONGRESS_NUMBER must be >= 1")
	}
	if c.CongressPageSize < 1 {
		return fmt.Errorf("CONGRESS_PAGE_SIZE must be >= 1")
	}
	if c.CongressFetchConcurrency < 1 {
		return fmt.Errorf("CONGRESS_FETCH_CONCURRENCY must be >= 1")
	}
	if c.CongressRequestsPerSecond < 0 {
		return fmt.Errorf("CONGRESS_REQUESTS_PER_SECOND must be >= 0")
	}
	if c.SyncChunkSize < 1 {
		return fmt.Errorf("SYNC_CHUNK_SIZE must be >= 1")
	}
	if c.SyncChunkDelay < 0 {
		return fmt.Errorf("SYNC_CHUNK_DELAY must be >= 0")
	}
	if c.SummaryChunkChars < 1 {
		return fmt.Errorf("SUMMARY_CHUNK_CHARS must be >= 1")
	}
	if c.EnrichmentWorkers < 1 {
		return fmt.Errorf("ENRICHMENT_WORKERS must be >= 1")
	}
	if c.ScheduleInterval <= 0 {
		return fmt.Errorf("SCHEDULE_INTERVAL must be > 0")
	}
	return nil
}

// KafkaBrokerList splits KAFKA_BROKERS on commas, dropping blanks and repeats.
func (c *Config) KafkaBrokerList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.KafkaBrokers, ",")
	brokers := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		broker := strings.TrimSpace(part)
		if broker == "" {
			continue
		}
		if _, exists := seen[broker]; exists {
			continue
		}
		seen[broker] = struct{}{}
		brokers = append(brokers, broker)
	}
	return brokers
}

func validateHTTPURL(name, raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", name)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
