package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"multilookup/api/internal/cache"
	"multilookup/api/internal/config"
	"multilookup/api/internal/fetch"
	"multilookup/api/internal/store"
	"multilookup/api/internal/webapi"
)

// Sources is the assembled record source chain:
// backend -> optional Redis cache -> in-flight coalescing.
type Sources struct {
	Source fetch.RecordSource
	// Health is pinged by /api/ready; nil when nothing needs checking.
	Health pinger

	closers []func() error
}

// OpenSources builds the record source selected by cfg.Source. When migrate
// is set, Postgres migrations are applied before use.
func OpenSources(ctx context.Context, cfg config.Config, migrate bool) (*Sources, error) {
	s := &Sources{}
	var backend fetch.RecordSource

	switch cfg.Source {
	case config.SourceWebAPI:
		log.Printf("Reading records from Web API %s", cfg.WebAPIURL)
		backend = webapi.New(webapi.Config{
			BaseURL:    cfg.WebAPIURL,
			Token:      cfg.WebAPIToken,
			EntitySets: cfg.EntitySets,
		})
	default:
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		if migrate {
			if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
				s.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		pg := store.NewPostgresStore(db)
		backend = pg
		s.Health = pg
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Caching option sets in Redis for %s", cfg.CacheTTL)
		cached, err := cache.NewRedisCache(cfg.RedisURL, backend, cfg.CacheTTL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		s.closers = append(s.closers, cached.Close)
		backend = cached
		if s.Health == nil {
			s.Health = cached
		}
	}

	s.Source = fetch.NewCoalescing(backend)
	return s, nil
}

// Close releases connections in reverse order of opening.
func (s *Sources) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Printf("close source: %v", err)
		}
	}
	s.closers = nil
}
