// Package fetch retrieves the option set for one widget configuration.
package fetch

import (
	"context"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"multilookup/api/internal/lookup"
)

// Logger receives fetch diagnostics.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f != nil {
		f(format, args...)
	}
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger replaces the standard logger.
func WithLogger(logger Logger) Option {
	return func(f *Fetcher) {
		if logger == nil {
			logger = LoggerFunc(nil)
		}
		f.logger = logger
	}
}

// Fetcher turns source records into options. It makes a single attempt per
// call and never retries.
type Fetcher struct {
	source RecordSource
	logger Logger
}

// New constructs a Fetcher over source.
func New(source RecordSource, opts ...Option) *Fetcher {
	f := &Fetcher{source: source, logger: log.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fetch validates q, queries the source and maps each record to an option.
// Errors are always *ConfigurationError or *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, q Query) (options []lookup.Option, err error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		fetchTotal.WithLabelValues(outcomeConfigError).Inc()
		return nil, err
	}

	f.logger.Printf("lookup: fetching from %s with query: %s", q.Collection, q.ODataString())

	timer := prometheus.NewTimer(fetchDuration.WithLabelValues(q.Collection))
	records, err := f.retrieve(ctx, q)
	timer.ObserveDuration()
	if err != nil {
		fetchTotal.WithLabelValues(outcomeFetchError).Inc()
		f.logger.Printf("lookup: fetch %s failed: %v", q.Collection, err)
		return nil, newFetchError(q.Collection, err)
	}

	if len(records) == 0 {
		fetchTotal.WithLabelValues(outcomeEmpty).Inc()
		f.logger.Printf("lookup: WARNING query on %s returned 0 records", q.Collection)
	} else {
		fetchTotal.WithLabelValues(outcomeOK).Inc()
	}

	options = make([]lookup.Option, 0, len(records))
	for _, record := range records {
		options = append(options, lookup.Option{Key: record.ID, Label: record.Name})
	}
	return options, nil
}

// Invalidate drops any records the source keeps for q. Sources without a
// cache make it a no-op.
func (f *Fetcher) Invalidate(ctx context.Context, q Query) error {
	inv, ok := f.source.(Invalidator)
	if !ok {
		return nil
	}
	return inv.Invalidate(ctx, q.Normalize())
}

func (f *Fetcher) retrieve(ctx context.Context, q Query) (records []Record, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			records = nil
			err = fmt.Errorf("record source panic: %v", recovered)
		}
	}()
	if f.source == nil {
		return nil, fmt.Errorf("no record source configured")
	}
	return f.source.RetrieveMultiple(ctx, q)
}
