// Package search ranks a widget's options against typed text.
package search

import "multilookup/api/internal/lookup"

// Query describes a typeahead request over one option source.
type Query struct {
	// Source identifies the option set, normally fetch.Query.Key().
	Source string
	Text   string
	Limit  int
}

// Searcher returns the keys of matching options, best match first.
type Searcher interface {
	Search(q Query, options []lookup.Option) ([]string, error)
	Healthy() bool
}

// Indexer can push an option set into a search index.
type Indexer interface {
	IndexOptions(source string, options []lookup.Option) error
}

// OptionRecord is the data we index for an option.
type OptionRecord struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Key    string `json:"key"`
	Label  string `json:"label"`
}
