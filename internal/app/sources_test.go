package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"multilookup/api/internal/config"
	"multilookup/api/internal/fetch"
)

func TestOpenSourcesWebAPIWithCache(t *testing.T) {
	calls := 0
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/api/data/v9.2/fruits" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[{"fruitid":"1","name":"Apple"}]}`))
	}))
	defer api.Close()
	redis := miniredis.RunT(t)

	sources, err := OpenSources(context.Background(), config.Config{
		Source:    config.SourceWebAPI,
		WebAPIURL: api.URL,
		RedisURL:  "redis://" + redis.Addr(),
	}, false)
	if err != nil {
		t.Fatalf("OpenSources() error = %v", err)
	}
	defer sources.Close()

	fetcher := fetch.New(sources.Source, fetch.WithLogger(nil))
	q := fetch.Query{Collection: "fruit", DisplayColumn: "name"}
	for i := 0; i < 2; i++ {
		options, err := fetcher.Fetch(context.Background(), q)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if len(options) != 1 || options[0].Label != "Apple" || options[0].Key != "1" {
			t.Fatalf("unexpected options %+v", options)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one Web API call, got %d", calls)
	}
	if sources.Health == nil {
		t.Fatalf("expected redis health check")
	}
	if err := sources.Health.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestOpenSourcesBadRedisURL(t *testing.T) {
	_, err := OpenSources(context.Background(), config.Config{
		Source:    config.SourceWebAPI,
		WebAPIURL: "http://localhost:1",
		RedisURL:  "://bad",
	}, false)
	if err == nil {
		t.Fatal("expected error for bad redis url")
	}
}
