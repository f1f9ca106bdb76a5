package search

import (
	"log"
	"strings"

	"multilookup/api/internal/lookup"
)

// Service tries Meilisearch first and falls back to in-memory fuzzy matching.
type Service struct {
	meili *Meili
	fuzzy Fuzzy
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili) *Service {
	return &Service{meili: meili}
}

// Search returns the options matching text, best first. Blank text returns
// options in their original order. Ghost options are always matched in memory
// because they are never indexed. A positive limit caps both cases.
func (s *Service) Search(source, text string, limit int, options []lookup.Option) []lookup.Option {
	if strings.TrimSpace(text) == "" {
		if limit > 0 && len(options) > limit {
			return options[:limit]
		}
		return options
	}
	q := Query{Source: source, Text: strings.TrimSpace(text), Limit: limit}

	fetched, ghosts := splitGhosts(options)

	var keys []string
	if s.meili != nil && s.meili.Healthy() {
		found, err := s.meili.Search(q, fetched)
		if err == nil {
			keys = found
		} else {
			log.Printf("search: meilisearch error, falling back to fuzzy: %v", err)
		}
	}
	if keys == nil {
		keys, _ = s.fuzzy.Search(q, fetched)
	}
	ghostKeys, _ := s.fuzzy.Search(q, ghosts)
	keys = append(keys, ghostKeys...)

	byKey := make(map[string]lookup.Option, len(options))
	for _, option := range options {
		byKey[option.Key] = option
	}
	results := make([]lookup.Option, 0, len(keys))
	for _, key := range keys {
		if option, ok := byKey[key]; ok {
			results = append(results, option)
		}
		if limit > 0 && len(results) == limit {
			break
		}
	}
	return results
}

// IndexOptions pushes a fetched option set to Meilisearch (fire-and-forget).
func (s *Service) IndexOptions(source string, options []lookup.Option) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	snapshot := append([]lookup.Option(nil), options...)
	go func() {
		if err := s.meili.IndexOptions(source, snapshot); err != nil {
			log.Printf("search: index options %s: %v", source, err)
		}
	}()
}

func splitGhosts(options []lookup.Option) (fetched, ghosts []lookup.Option) {
	for _, option := range options {
		if option.Ghost {
			ghosts = append(ghosts, option)
			continue
		}
		fetched = append(fetched, option)
	}
	return fetched, ghosts
}
