// Package issues maintains the issue catalog: named groups of legislative
// subject terms used to classify bills.
package issues

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"horse.fit/breakdown/internal/db"
	"horse.fit/breakdown/internal/globaltime"
)

//go:embed data/default_mapping.json
var defaultMappingJSON []byte

// Mapping lists subject url names per issue name. Subjects optionally maps a
// url name to its display name.
type Mapping struct {
	Subjects map[string]string   `json:"subjects"`
	Issues   map[string][]string `json:"issues"`
}

func DefaultMapping() (Mapping, error) {
	return ParseMapping(defaultMappingJSON)
}

func LoadMapping(path string) (Mapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("read mapping %s: %w", path, err)
	}
	return ParseMapping(raw)
}

func ParseMapping(raw []byte) (Mapping, error) {
	var m Mapping
	if err := json.Unmarshal(raw, &m); err != nil {
		return Mapping{}, fmt.Errorf("decode issue mapping: %w", err)
	}
	if len(m.Issues) == 0 {
		return Mapping{}, fmt.Errorf("issue mapping has no issues")
	}
	return m, nil
}

// Slugify lowercases name and collapses every run of non-alphanumeric
// characters to one underscore.
func Slugify(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// SubjectName resolves a subject url name to the display name bills carry.
func (m Mapping) SubjectName(urlName string) string {
	key := strings.TrimSpace(urlName)
	if name, ok := m.Subjects[key]; ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	unslugged := strings.ReplaceAll(key, "-", " ")
	if unslugged == "" {
		return ""
	}
	runes := []rune(unslugged)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

type TxBeginner interface {
	BeginTx(ctx context.Context, opts db.TxOptions) (db.Tx, error)
}

type SeedResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Seed upserts every issue of m by slug in one transaction. The mapping is
// authoritative: names and subject lists are replaced.
func Seed(ctx context.Context, store TxBeginner, m Mapping, logger zerolog.Logger) (SeedResult, error) {
	if store == nil {
		return SeedResult{}, fmt.Errorf("issue store is not initialized")
	}

	names := make([]string, 0, len(m.Issues))
	for name := range m.Issues {
		names = append(names, name)
	}
	sort.Strings(names)

	tx, err := store.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return SeedResult{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	now := globaltime.UTC()
	var result SeedResult
	for _, name := range names {
		slug := Slugify(name)
		if slug == "" {
			return SeedResult{}, fmt.Errorf("issue %q has an empty slug", name)
		}
		subjects := make([]string, 0, len(m.Issues[name]))
		for _, urlName := range m.Issues[name] {
			if subject := m.SubjectName(urlName); subject != "" {
				subjects = append(subjects, subject)
			}
		}

		created, err := db.UpsertIssueTx(ctx, tx, db.UpsertIssueParams{
			Slug:     slug,
			Name:     strings.TrimSpace(name),
			Subjects: subjects,
		}, now)
		if err != nil {
			return SeedResult{}, err
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
		logger.Debug().Str("slug", slug).Int("subjects", len(subjects)).Bool("created", created).Msg("issue seeded")
	}

	if err := tx.Commit(ctx); err != nil {
		return SeedResult{}, fmt.Errorf("commit transaction: %w", err)
	}
	return result, nil
}
