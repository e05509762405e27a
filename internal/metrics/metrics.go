package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clinstudy",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "clinstudy",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	authEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clinstudy",
		Name:      "auth_events_total",
		Help:      "Authentication events by kind and outcome.",
	}, []string{"event", "outcome"})

	tokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clinstudy",
		Name:      "tokens_issued_total",
		Help:      "Signed tokens issued by kind.",
	}, []string{"kind"})

	registerOnce sync.Once
)

// InitMetrics registers the collectors with the default registry. Safe to call repeatedly.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, authEvents, tokensIssued)
	})
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	InitMetrics()
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// AuthEvent counts an authentication event such as login or refresh.
func AuthEvent(event string, ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	authEvents.WithLabelValues(event, outcome).Inc()
}

// TokenIssued counts a minted token of the given kind.
func TokenIssued(kind string) {
	tokensIssued.WithLabelValues(kind).Inc()
}
