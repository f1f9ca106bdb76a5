package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK          = "ok"
	outcomeEmpty       = "empty"
	outcomeConfigError = "config_error"
	outcomeFetchError  = "fetch_error"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lookup_fetch_total",
		Help: "Option fetches by outcome",
	}, []string{"outcome"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lookup_fetch_duration_seconds",
		Help:    "Duration of option fetches against the record source",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"collection"})

	// CacheLookups counts option cache hits and misses.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lookup_cache_lookups_total",
		Help: "Option cache lookups by result",
	}, []string{"result"})
)
