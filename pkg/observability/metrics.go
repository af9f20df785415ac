package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	LoginsTotal     *prometheus.CounterVec
	LoginDuration   *prometheus.HistogramVec
	CallbacksTotal  *prometheus.CounterVec
}

// NewMetrics returns a new set of Prometheus metrics registered on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"code", "method", "path"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of latencies for HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"code", "method", "path"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "google_login_attempts_total",
				Help: "Login attempts by flow mode and outcome.",
			},
			[]string{"mode", "outcome"},
		),
		LoginDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "google_login_duration_seconds",
				Help:    "Time from login start to resolution.",
				Buckets: []float64{0.5, 1, 2, 3, 5, 8, 13},
			},
			[]string{"mode"},
		),
		CallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "google_callback_forwards_total",
				Help: "Authorization codes forwarded to the backend, by result.",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.LoginsTotal, m.LoginDuration, m.CallbacksTotal)
	return m
}

// ObserveLogin records one resolved login attempt. Safe on a nil receiver.
func (m *Metrics) ObserveLogin(mode, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(mode, outcome).Inc()
	m.LoginDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// ObserveCallback records one forwarded callback. Safe on a nil receiver.
func (m *Metrics) ObserveCallback(result string) {
	if m == nil {
		return
	}
	m.CallbacksTotal.WithLabelValues(result).Inc()
}

// PrometheusMiddleware returns a Gin middleware that records Prometheus metrics for HTTP requests.
func PrometheusMiddleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next() // Process request

		statusCode := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		metrics.RequestsTotal.WithLabelValues(statusCode, method, path).Inc()
		metrics.RequestDuration.WithLabelValues(statusCode, method, path).Observe(time.Since(start).Seconds())
	}
}

// PrometheusHandler returns an http.Handler serving metrics from g.
func PrometheusHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
