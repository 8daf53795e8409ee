package httpx

import (
    "strconv"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics bundles the request collectors of the dashboard server.
type HTTPMetrics struct {
    Requests *prometheus.CounterVec
    Duration *prometheus.HistogramVec
    Errors   *prometheus.CounterVec
    InFlight prometheus.Gauge
}

// NewHTTPMetrics registers the collectors on reg under a service label.
func NewHTTPMetrics(reg prometheus.Registerer, service string) *HTTPMetrics {
    factory := promauto.With(reg)
    labels := prometheus.Labels{"service": service}
    return &HTTPMetrics{
        Requests: factory.NewCounterVec(prometheus.CounterOpts{
            Name:        "http_requests_total",
            Help:        "Total HTTP requests received",
            ConstLabels: labels,
        }, []string{"method", "path", "status"}),
        Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
            Name:        "http_request_duration_seconds",
            Help:        "Latency distribution of HTTP requests",
            ConstLabels: labels,
            Buckets:     prometheus.DefBuckets,
        }, []string{"method", "path"}),
        Errors: factory.NewCounterVec(prometheus.CounterOpts{
            Name:        "http_errors_total",
            Help:        "Total HTTP errors returned",
            ConstLabels: labels,
        }, []string{"method", "path", "status"}),
        InFlight: factory.NewGauge(prometheus.GaugeOpts{
            Name:        "http_in_flight_requests",
            Help:        "Number of in-flight HTTP requests",
            ConstLabels: labels,
        }),
    }
}

// Handler records one observation per request. Paths are route templates so
// report levels don't explode label cardinality.
func (m *HTTPMetrics) Handler() gin.HandlerFunc {
    return func(c *gin.Context) {
        start := time.Now()
        path := c.FullPath()
        if path == "" {
            path = "unmatched"
        }
        m.InFlight.Inc()
        defer m.InFlight.Dec()

        c.Next()

        status := strconv.Itoa(c.Writer.Status())
        method := c.Request.Method
        m.Requests.WithLabelValues(method, path, status).Inc()
        m.Duration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
        if c.Writer.Status() >= 400 {
            m.Errors.WithLabelValues(method, path, status).Inc()
        }
    }
}
