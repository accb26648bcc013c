/*
Package metrics exposes Prometheus instrumentation for streamhub.

HTTP metrics are recorded by GinMiddleware keyed on the matched route
template, so /api/shows/:id stays a single series. Domain counters cover
token issuance, authentication failures, progress pings and admin catalog
mutations. Handler serves everything in Prometheus text format at /metrics.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamhub_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamhub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	TokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamhub_tokens_issued_total",
			Help: "Session tokens issued by principal kind",
		},
		[]string{"kind"},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamhub_auth_failures_total",
			Help: "Rejected logins and token checks by reason",
		},
		[]string{"reason"},
	)

	ProgressUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamhub_progress_updates_total",
			Help: "Watch progress upserts",
		},
	)

	ProgressEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamhub_progress_events_dropped_total",
			Help: "Progress events dropped because the feed buffer was full",
		},
	)

	CatalogMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamhub_catalog_mutations_total",
			Help: "Admin catalog mutations by entity and action",
		},
		[]string{"entity", "action"},
	)

	RealtimeClients = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streamhub_realtime_clients",
			Help: "Connected side-channel clients by channel",
		},
		[]string{"channel"},
	)
)

// GinMiddleware records request count and latency per matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
