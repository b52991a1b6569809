package app

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/breakdown/internal/cache"
	"horse.fit/breakdown/internal/cli"
	"horse.fit/breakdown/internal/config"
	"horse.fit/breakdown/internal/congress"
	"horse.fit/breakdown/internal/db"
	"horse.fit/breakdown/internal/engine"
	"horse.fit/breakdown/internal/enrich"
	"horse.fit/breakdown/internal/lock"
	"horse.fit/breakdown/internal/logging"
	"horse.fit/breakdown/internal/notify"
	"horse.fit/breakdown/internal/summarize"
)

const entityAll = "all"

// loadSettings applies the .env file, then loads config and the logger. A
// non-zero exit code means the command should stop.
func loadSettings(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, int) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, zerolog.Nop(), 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return nil, zerolog.Nop(), 1
	}
	return cfg, logger, 0
}

func connect(cfg *config.Config, logger zerolog.Logger, command string) (*db.Pool, int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Str("command", command).Msg("failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return nil, 1
	}
	return pool, 0
}

// runtime holds the wired engine and the resources it owns.
type runtime struct {
	engine     *engine.Engine
	enricher   *enrich.Service
	dispatcher *enrich.Dispatcher
	logger     zerolog.Logger
	closers    []func() error
}

type runtimeOptions struct {
	// Enrichment overrides ENRICHMENT_ENABLED when set.
	Enrichment *bool
}

func newRuntime(ctx context.Context, cfg *config.Config, pool *db.Pool, logger zerolog.Logger, opts runtimeOptions) (*runtime, error) {
	if cfg == nil || pool == nil {
		return nil, fmt.Errorf("runtime requires config and database pool")
	}
	rt := &runtime{logger: logger}

	client := congress.NewClient(congress.ClientOptions{
		APIKey:            cfg.CongressAPIKey,
		Timeout:           cfg.CongressRequestTimeout,
		RequestsPerSecond: cfg.CongressRequestsPerSecond,
	})
	endpoints := congress.Endpoints{BaseURL: cfg.CongressBaseURL, Congress: cfg.CongressNumber}
	fetcher := congress.NewPageFetcher(client, cfg.CongressFetchConcurrency, logging.Component(logger, "fetch"))

	var subjectCache congress.SubjectCache
	var locker lock.KeyLocker = lock.Noop{}
	if strings.TrimSpace(cfg.RedisURL) != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, rdb.Close)
		subjectCache = cache.NewSubjectCache(rdb, cfg.SubjectCacheTTL, logging.Component(logger, "subject_cache"))
		locker = lock.NewRedisLocker(rdb, "", cfg.KeyLockTTL, 0)
	}

	notifiers := notify.Fanout{notify.NewLogNotifier(logging.Component(logger, "notify"))}
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		kafkaNotifier := notify.NewKafkaNotifier(brokers, cfg.KafkaSyncTopic, logging.Component(logger, "notify"))
		rt.closers = append(rt.closers, kafkaNotifier.Close)
		notifiers = append(notifiers, kafkaNotifier)
	}

	registry := summarize.NewRegistry(cfg.SummaryProvider)
	if err := registry.Register(summarize.NewOpenAIProvider(summarize.OpenAIOptions{
		Endpoint: cfg.SummaryEndpoint,
		Model:    cfg.SummaryModel,
		APIKey:   cfg.SummaryAPIKey,
		Timeout:  cfg.SummaryTimeout,
	})); err != nil {
		rt.Close(0)
		return nil, fmt.Errorf("register summary provider: %w", err)
	}
	rt.enricher = enrich.NewService(
		pool,
		enrich.NewDocumentFetcher(enrich.FetchOptions{Timeout: cfg.DocumentTimeout}),
		summarize.NewBillSummarizer(registry, cfg.SummaryProvider),
		enrich.Options{DocumentBaseURL: cfg.DocumentBaseURL, ChunkChars: cfg.SummaryChunkChars},
		logging.Component(logger, "enrich"),
	)

	deps := engine.Deps{
		Store:     pool,
		Fetcher:   fetcher,
		Endpoints: endpoints,
		Subjects:  congress.NewSubjectSource(client, endpoints, cfg.CongressPageSize, subjectCache, logging.Component(logger, "subjects")),
		Locker:    locker,
		Notifier:  notifiers,
		Logger:    logging.Component(logger, "engine"),
	}
	enrichment := cfg.EnrichmentEnabled
	if opts.Enrichment != nil {
		enrichment = *opts.Enrichment
	}
	if enrichment {
		rt.dispatcher = enrich.NewDispatcher(rt.enricher, cfg.EnrichmentWorkers, logging.Component(logger, "dispatch"))
		deps.Dispatcher = rt.dispatcher
	}

	eng, err := engine.New(deps, engine.Options{
		PageSize:   cfg.CongressPageSize,
		ChunkSize:  cfg.SyncChunkSize,
		ChunkDelay: cfg.SyncChunkDelay,
	})
	if err != nil {
		rt.Close(0)
		return nil, fmt.Errorf("build engine: %w", err)
	}
	rt.engine = eng
	return rt, nil
}

// Close lets in-flight enrichment finish for up to drain, then releases
// Redis and Kafka connections.
func (rt *runtime) Close(drain time.Duration) {
	if rt == nil {
		return
	}
	if rt.dispatcher != nil {
		if err := rt.dispatcher.Drain(drain); err != nil {
			rt.logger.Warn().Err(err).Msg("enrichment tasks did not drain")
		}
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Warn().Err(err).Msg("close runtime resource")
		}
	}
	rt.closers = nil
}

// parseEntities resolves a sync target argument into entry point names.
func parseEntities(raw string) ([]string, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == entityAll {
		return slices.Clone(engine.Entities), nil
	}
	if slices.Contains(engine.Entities, name) {
		return []string{name}, nil
	}
	return nil, fmt.Errorf("unknown sync target %q (want one of %s, %s)", raw, strings.Join(engine.Entities, ", "), entityAll)
}

// parseEntityList accepts a comma-separated list of sync targets.
func parseEntityList(raw string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		entities, err := parseEntities(part)
		if err != nil {
			return nil, err
		}
		for _, entity := range entities {
			if !slices.Contains(out, entity) {
				out = append(out, entity)
			}
		}
	}
	if len(out) == 0 {
		return slices.Clone(engine.Entities), nil
	}
	return out, nil
}
