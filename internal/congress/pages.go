package congress

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"horse.fit/breakdown/internal/metrics"
)

const DefaultFetchConcurrency = 6

// PageRequest describes one category of a paginated collection. A Total of
// zero or less requests the URL once without an offset.
type PageRequest struct {
	URL      string
	Category string
	PageSize int
	Total    int
}

// PageURLs returns ceil(Total/PageSize) URLs with increasing offsets.
func (r PageRequest) PageURLs() []string {
	if r.Total <= 0 || r.PageSize <= 0 {
		return []string{r.URL}
	}
	pages := (r.Total + r.PageSize - 1) / r.PageSize
	urls := make([]string, 0, pages)
	for page := 0; page < pages; page++ {
		urls = append(urls, WithOffset(r.URL, page*r.PageSize))
	}
	return urls
}

// PageFetcher issues page requests with bounded concurrency.
type PageFetcher struct {
	getter      Getter
	concurrency int
	logger      zerolog.Logger
}

func NewPageFetcher(getter Getter, concurrency int, logger zerolog.Logger) *PageFetcher {
	if concurrency <= 0 {
		concurrency = DefaultFetchConcurrency
	}
	return &PageFetcher{
		getter:      getter,
		concurrency: concurrency,
		logger:      logger,
	}
}

// FetchPages fetches every page of req and flattens the decoded items of
// field. A page that fails to fetch or decode contributes nothing; the
// remaining pages are still returned. Items are flattened in page order.
func FetchPages[T any](ctx context.Context, f *PageFetcher, req PageRequest, field string) []T {
	if f == nil || f.getter == nil {
		return nil
	}

	urls := req.PageURLs()
	pages := make([][]T, len(urls))

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for idx, pageURL := range urls {
		if ctx.Err() != nil {
			f.logger.Warn().
				Err(ctx.Err()).
				Str("category", req.Category).
				Int("pages_skipped", len(urls)-idx).
				Msg("page fetch cancelled")
			break
		}
		g.Go(func() error {
			items, err := fetchPage[T](ctx, f.getter, pageURL, field)
			metrics.RecordPage(req.Category, err == nil)
			if err != nil {
				f.logger.Warn().
					Err(err).
					Str("category", req.Category).
					Str("url", pageURL).
					Msg("page fetch failed; treating page as empty")
				return nil
			}
			pages[idx] = items
			return nil
		})
	}
	_ = g.Wait()

	var out []T
	for _, items := range pages {
		out = append(out, items...)
	}
	f.logger.Debug().
		Str("category", req.Category).
		Int("pages", len(urls)).
		Int("items", len(out)).
		Msg("category fetched")
	return out
}

func fetchPage[T any](ctx context.Context, getter Getter, pageURL, field string) ([]T, error) {
	body, err := getter.GetJSON(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return DecodeEnvelope[T](body, field)
}
