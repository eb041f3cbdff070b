package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketplace_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	UploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_media_uploads_total",
		Help: "Media store uploads by outcome",
	}, []string{"outcome"})
)

func Init() {
	prometheus.MustRegister(RequestsTotal, RequestDuration, UploadsTotal)
}

// Handler serves the scrape endpoint on the metrics side server.
func Handler() http.Handler {
	return promhttp.Handler()
}
