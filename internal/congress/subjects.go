package congress

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

const maxSubjectPages = 10

// SubjectCache memoizes subject lists by the first-page URL.
type SubjectCache interface {
	Get(ctx context.Context, key string) ([]string, bool)
	Set(ctx context.Context, key string, subjects []string)
}

// SubjectSource reads the full subject term list for a bill.
type SubjectSource struct {
	getter    Getter
	endpoints Endpoints
	pageSize  int
	cache     SubjectCache
	logger    zerolog.Logger
}

func NewSubjectSource(getter Getter, endpoints Endpoints, pageSize int, cache SubjectCache, logger zerolog.Logger) *SubjectSource {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &SubjectSource{
		getter:    getter,
		endpoints: endpoints,
		pageSize:  pageSize,
		cache:     cache,
		logger:    logger,
	}
}

// Subjects pages through the subjects endpoint until a short page. Any
// failure yields nil, which the reconciler treats as no data.
func (s *SubjectSource) Subjects(ctx context.Context, slug string) []string {
	slug = strings.TrimSpace(slug)
	if s == nil || s.getter == nil || slug == "" {
		return nil
	}

	baseURL := s.endpoints.BillSubjects(slug)
	cacheKey := WithOffset(baseURL, 0)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, cacheKey); ok {
			return cached
		}
	}

	var subjects []string
	for page := 0; page < maxSubjectPages; page++ {
		records, err := fetchPage[SubjectRecord](ctx, s.getter, WithOffset(baseURL, page*s.pageSize), "subjects")
		if err != nil {
			s.logger.Warn().Err(err).Str("slug", slug).Int("page", page).Msg("subject fetch failed")
			return nil
		}
		for _, record := range records {
			if name := strings.TrimSpace(record.Name); name != "" {
				subjects = append(subjects, name)
			}
		}
		if len(records) < s.pageSize {
			break
		}
	}

	if s.cache != nil && len(subjects) > 0 {
		s.cache.Set(ctx, cacheKey, subjects)
	}
	return subjects
}
