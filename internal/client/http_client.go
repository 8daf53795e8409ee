package client

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "strconv"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
    "github.com/sirupsen/logrus"

    "ads-dashboard/internal/config"
)

// ProviderError is returned for any non-2xx provider response.
type ProviderError struct {
    Provider   string
    StatusCode int
    Message    string
}

func (e *ProviderError) Error() string {
    if e.Message == "" {
        return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
    }
    return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Unauthorized reports whether the provider rejected the credentials.
func (e *ProviderError) Unauthorized() bool {
    return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// ProviderMetrics counts and times every outbound provider call.
type ProviderMetrics struct {
    Requests *prometheus.CounterVec
    Duration *prometheus.HistogramVec
}

func NewProviderMetrics(reg prometheus.Registerer) *ProviderMetrics {
    factory := promauto.With(reg)
    return &ProviderMetrics{
        Requests: factory.NewCounterVec(prometheus.CounterOpts{
            Name: "provider_requests_total",
            Help: "Outbound provider requests by outcome",
        }, []string{"provider", "outcome"}),
        Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
            Name:    "provider_request_duration_seconds",
            Help:    "Latency of outbound provider requests",
            Buckets: prometheus.DefBuckets,
        }, []string{"provider"}),
    }
}

func (m *ProviderMetrics) observe(provider, outcome string, started time.Time) {
    if m == nil {
        return
    }
    m.Requests.WithLabelValues(provider, outcome).Inc()
    m.Duration.WithLabelValues(provider).Observe(time.Since(started).Seconds())
}

type HTTPClient struct {
    client  *http.Client
    logger  *logrus.Logger
    metrics *ProviderMetrics
}

func NewHTTPClient(cfg *config.Config, logger *logrus.Logger, metrics *ProviderMetrics) *HTTPClient {
    return &HTTPClient{
        client: &http.Client{
            Timeout: cfg.HTTPTimeout,
        },
        logger:  logger,
        metrics: metrics,
    }
}

// getJSON performs a single GET and decodes the body into target. Failures
// are returned to the caller as-is; nothing is retried.
func (c *HTTPClient) getJSON(ctx context.Context, provider, url string, headers map[string]string, target interface{}) error {
    started := time.Now()

    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil {
        return fmt.Errorf("failed to create %s request: %w", provider, err)
    }
    req.Header.Set("Accept", "application/json")
    for key, value := range headers {
        req.Header.Set(key, value)
    }

    resp, err := c.client.Do(req)
    if err != nil {
        c.metrics.observe(provider, "transport_error", started)
        return fmt.Errorf("%s request failed: %w", provider, err)
    }
    defer resp.Body.Close()

    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
        c.metrics.observe(provider, strconv.Itoa(resp.StatusCode), started)
        return &ProviderError{
            Provider:   provider,
            StatusCode: resp.StatusCode,
            Message:    errorMessage(body),
        }
    }

    decoder := json.NewDecoder(resp.Body)
    decoder.UseNumber()
    if err := decoder.Decode(target); err != nil {
        c.metrics.observe(provider, "decode_error", started)
        return fmt.Errorf("failed to decode %s response: %w", provider, err)
    }

    c.metrics.observe(provider, "ok", started)
    c.logger.WithFields(logrus.Fields{
        "provider":    provider,
        "status_code": resp.StatusCode,
        "duration_ms": time.Since(started).Milliseconds(),
    }).Debug("Request successful")
    return nil
}

// PostJSON sends body once with the given headers. Any non-2xx response is a
// ProviderError.
func (c *HTTPClient) PostJSON(ctx context.Context, provider, url string, body []byte, headers map[string]string) error {
    started := time.Now()

    req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
    if err != nil {
        return fmt.Errorf("failed to create %s request: %w", provider, err)
    }
    req.Header.Set("Content-Type", "application/json")
    for key, value := range headers {
        req.Header.Set(key, value)
    }

    resp, err := c.client.Do(req)
    if err != nil {
        c.metrics.observe(provider, "transport_error", started)
        return fmt.Errorf("%s request failed: %w", provider, err)
    }
    defer resp.Body.Close()

    respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        c.metrics.observe(provider, strconv.Itoa(resp.StatusCode), started)
        return &ProviderError{
            Provider:   provider,
            StatusCode: resp.StatusCode,
            Message:    errorMessage(respBody),
        }
    }

    c.metrics.observe(provider, "ok", started)
    return nil
}

// errorMessage pulls a readable message out of the common provider error
// envelopes, falling back to the raw body.
func errorMessage(body []byte) string {
    var envelope struct {
        Error struct {
            Message string `json:"message"`
        } `json:"error"`
        Errors []struct {
            Detail string `json:"detail"`
        } `json:"errors"`
    }
    if err := json.Unmarshal(body, &envelope); err == nil {
        if envelope.Error.Message != "" {
            return envelope.Error.Message
        }
        if len(envelope.Errors) > 0 && envelope.Errors[0].Detail != "" {
            return envelope.Errors[0].Detail
        }
    }
    return string(body)
}
