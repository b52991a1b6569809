package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/breakdown/internal/db"
	"horse.fit/breakdown/internal/globaltime"
)

// Result is the terminal state an enrichment attempt reached.
type Result string

const (
	// ResultSkipped means a record already existed for the bill.
	ResultSkipped Result = "skipped"
	// ResultStored means text and summary were both stored.
	ResultStored Result = "stored"
	// ResultStoredPartial means text was stored without a summary.
	ResultStoredPartial Result = "stored_partial"
	// ResultStoredEmpty means no text was available; the bill is not retried.
	ResultStoredEmpty Result = "stored_empty"
	ResultFailed      Result = "failed"
)

type Store interface {
	GetBillEnrichment(ctx context.Context, billID string) (*db.BillEnrichment, error)
	StoreBillEnrichment(ctx context.Context, row db.StoreEnrichmentParams) error
}

type TextFetcher interface {
	FetchText(ctx context.Context, documentURL string) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

type Options struct {
	DocumentBaseURL string
	ChunkChars      int
}

// Service performs one bill's enrichment: text retrieval, chunked
// summarization and a single store. Any existing record makes the bill
// terminal.
type Service struct {
	store      Store
	docs       TextFetcher
	summarizer Summarizer
	opts       Options
	logger     zerolog.Logger
}

func NewService(store Store, docs TextFetcher, summarizer Summarizer, opts Options, logger zerolog.Logger) *Service {
	if opts.ChunkChars <= 0 {
		opts.ChunkChars = DefaultChunkChars
	}
	return &Service{
		store:      store,
		docs:       docs,
		summarizer: summarizer,
		opts:       opts,
		logger:     logger,
	}
}

func (s *Service) Enrich(ctx context.Context, t Target) (Result, error) {
	if s == nil || s.store == nil {
		return ResultFailed, fmt.Errorf("enrichment service is not initialized")
	}
	if strings.TrimSpace(t.BillID) == "" {
		return ResultFailed, fmt.Errorf("bill id is required")
	}

	existing, err := s.store.GetBillEnrichment(ctx, t.BillID)
	if err != nil {
		return ResultFailed, err
	}
	if existing != nil {
		s.logger.Debug().Str("natural_key", t.NaturalKey).Msg("enrichment already stored")
		return ResultSkipped, nil
	}

	text := s.fetchText(ctx, t)
	var summary *string
	if text != nil {
		summary = s.summarize(ctx, t, *text)
	}

	// A cancelled task must not leave a terminal empty record behind.
	if err := ctx.Err(); err != nil {
		return ResultFailed, err
	}

	if err := s.store.StoreBillEnrichment(ctx, db.StoreEnrichmentParams{
		BillID:  t.BillID,
		Text:    text,
		Summary: summary,
		At:      globaltime.UTC(),
	}); err != nil {
		return ResultFailed, err
	}

	result := ResultStored
	switch {
	case text == nil:
		result = ResultStoredEmpty
	case summary == nil:
		result = ResultStoredPartial
	}
	s.logger.Info().
		Str("natural_key", t.NaturalKey).
		Str("result", string(result)).
		Msg("bill enrichment stored")
	return result, nil
}

// fetchText tries the XML document, then the HTML text version. Failures
// are logged and yield nil.
func (s *Service) fetchText(ctx context.Context, t Target) *string {
	if s.docs == nil {
		return nil
	}
	urls := DocumentURLs(s.opts.DocumentBaseURL, t)
	if len(urls) == 0 {
		s.logger.Debug().Str("natural_key", t.NaturalKey).Str("bill_type", t.BillType).Msg("no document source for bill type")
		return nil
	}
	for _, documentURL := range urls {
		if ctx.Err() != nil {
			return nil
		}
		text, err := s.docs.FetchText(ctx, documentURL)
		if err != nil {
			s.logger.Warn().Err(err).Str("natural_key", t.NaturalKey).Str("url", documentURL).Msg("bill text unavailable")
			continue
		}
		return &text
	}
	return nil
}

// summarize returns nil unless every chunk was summarized.
func (s *Service) summarize(ctx context.Context, t Target, text string) *string {
	if s.summarizer == nil {
		return nil
	}
	chunks := Chunk(text, s.opts.ChunkChars)
	parts := make([]string, 0, len(chunks))
	for idx, chunk := range chunks {
		part, err := s.summarizer.Summarize(ctx, chunk)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("natural_key", t.NaturalKey).
				Int("chunk", idx).
				Int("chunks", len(chunks)).
				Msg("bill summary unavailable")
			return nil
		}
		parts = append(parts, strings.TrimSpace(part))
	}
	if len(parts) == 0 {
		return nil
	}
	joined := strings.Join(parts, "\n\n")
	return &joined
}
