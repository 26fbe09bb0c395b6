package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AuditRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "obrig",
		Name:      "audit_records_total",
		Help:      "Audit rows written, by action and severity.",
	}, []string{"action", "severity"})

	OrderExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "obrig",
		Name:      "order_executions_total",
		Help:      "Order execution attempts, by result.",
	}, []string{"result"})

	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "obrig",
		Name:      "transitions_total",
		Help:      "Applied personnel transitions, by event type.",
	}, []string{"type"})

	ImportedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "obrig",
		Name:      "import_rows_total",
		Help:      "Personnel import rows, by outcome.",
	}, []string{"outcome"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "obrig",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests, by route, method and status.",
	}, []string{"route", "method", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "obrig",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpLatency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
