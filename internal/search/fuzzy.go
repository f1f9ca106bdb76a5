package search

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"multilookup/api/internal/lookup"
)

// Fuzzy implements Searcher in memory with case-insensitive fuzzy matching.
type Fuzzy struct{}

// Healthy always returns true.
func (Fuzzy) Healthy() bool {
	return true
}

// Search ranks options by Levenshtein distance, keeping the original order
// for equal distances.
func (Fuzzy) Search(q Query, options []lookup.Option) ([]string, error) {
	labels := make([]string, len(options))
	for i, option := range options {
		labels[i] = option.Label
	}

	ranks := fuzzy.RankFindFold(q.Text, labels)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	keys := make([]string, 0, len(ranks))
	for _, rank := range ranks {
		keys = append(keys, options[rank.OriginalIndex].Key)
		if q.Limit > 0 && len(keys) == q.Limit {
			break
		}
	}
	return keys, nil
}
