package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 分发/验收业务指标
	DistributionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_distributions_total",
			Help: "Total number of task distribution operations",
		},
		[]string{"kind"}, // distribute / redistribute
	)

	AssignmentCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assignment_actions_total",
			Help: "Total number of tagger accept/refuse actions",
		},
		[]string{"action"}, // accept / refuse
	)

	SubmissionCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "question_submissions_total",
			Help: "Total number of submitted question results",
		},
	)

	AutoCheckCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auto_check_results_total",
			Help: "Total number of automatic grading outcomes",
		},
		[]string{"outcome"}, // accepted / refused
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DistributionCounter)
	prometheus.MustRegister(AssignmentCounter)
	prometheus.MustRegister(SubmissionCounter)
	prometheus.MustRegister(AutoCheckCounter)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
