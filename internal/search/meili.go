package search

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"multilookup/api/internal/lookup"
)

const idxOptions = "lookup_options"

// Meili implements Searcher and Indexer via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the option index.
// An unreachable server leaves the client unhealthy; the health loop picks it
// up when it comes back.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxOptions,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxOptions, err)
	}

	index := m.client.Index(idxOptions)
	filterable := []interface{}{"source"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", idxOptions, err)
	}
	searchable := []string{"label"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxOptions, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries the option index for q.Source. Hits whose key is not in
// options are dropped, so stale index entries never surface.
func (m *Meili) Search(q Query, options []lookup.Option) ([]string, error) {
	if !m.healthy.Load() {
		return nil, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 50
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{{
			IndexUID: idxOptions,
			Query:    q.Text,
			Limit:    limit,
			Filter:   []string{fmt.Sprintf("source = %q", q.Source)},
		}},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	known := make(map[string]struct{}, len(options))
	for _, option := range options {
		known[option.Key] = struct{}{}
	}

	var keys []string
	for _, sr := range resp.Results {
		for _, hit := range sr.Hits {
			key := decodeString(hit, "key")
			if _, ok := known[key]; ok {
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

// IndexOptions adds or updates the fetched options of source. Ghost options
// are never indexed.
func (m *Meili) IndexOptions(source string, options []lookup.Option) error {
	records := make([]OptionRecord, 0, len(options))
	for _, option := range options {
		if option.Ghost {
			continue
		}
		records = append(records, OptionRecord{
			ID:     documentID(source, option.Key),
			Source: source,
			Key:    option.Key,
			Label:  option.Label,
		})
	}
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxOptions).AddDocuments(records, nil)
	return err
}

// documentID derives a Meilisearch-safe primary key.
func documentID(source, key string) string {
	sum := sha1.Sum([]byte(source + "\x00" + key))
	return hex.EncodeToString(sum[:])
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}
