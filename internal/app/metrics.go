package app

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lookup_http_requests_total",
		Help: "HTTP requests by method and status",
	}, []string{"method", "status"})

	widgetsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lookup_widgets_active",
		Help: "Widgets currently registered",
	})
)

func observeRequest(method string, status int) {
	httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
