package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts API requests.
	// Labels: route, status
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passage_complete",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP API requests by route and status code",
	}, []string{"route", "status"})

	requestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "passage_complete",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP API request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

func instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		requestDurationSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
