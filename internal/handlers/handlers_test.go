package handlers

import (
    "context"
    "encoding/json"
    "errors"
    "io"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/sirupsen/logrus"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"

    "ads-dashboard/internal/client"
    "ads-dashboard/internal/config"
    "ads-dashboard/internal/daterange"
    "ads-dashboard/internal/export"
    "ads-dashboard/internal/metrics"
    "ads-dashboard/internal/models"
    "ads-dashboard/internal/report"
    "ads-dashboard/internal/storage"
    "ads-dashboard/internal/transformer"
)

type stubInsights struct {
    records []models.RawInsightRecord
    err     error
    windows []daterange.Range
    clients []string
}

func (s *stubInsights) FetchInsights(_ context.Context, accountID string, _ models.Granularity, window daterange.Range) ([]models.RawInsightRecord, error) {
    s.windows = append(s.windows, window)
    s.clients = append(s.clients, accountID)
    return s.records, s.err
}

type stubCampaigns struct{}

func (stubCampaigns) FetchCampaigns(context.Context, models.SecondaryChannel, *config.ChannelConfig, daterange.Range) ([]models.SecondaryCampaign, error) {
    return nil, nil
}

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type testServer struct {
    router   *gin.Engine
    insights *stubInsights
    cookies  []*http.Cookie
}

func newTestServer(t *testing.T, passwordHash, sinkURL string) *testServer {
    t.Helper()
    gin.SetMode(gin.TestMode)

    logger := logrus.New()
    logger.SetOutput(io.Discard)

    cfg := &config.Config{SessionTTL: time.Hour, SinkURL: sinkURL, SinkSecret: "secret", HTTPTimeout: 2 * time.Second}
    clients := config.Clients{
        "Acme": {Name: "Acme", AccountID: "act_acme", AverageOrderValue: 50},
        "Beta": {Name: "Beta", AccountID: "act_beta", AverageOrderValue: 35},
    }
    insights := &stubInsights{records: []models.RawInsightRecord{
        {"campaign_name": "Winner", "ad_name": "Winner ad", "spend": "100", "impressions": "2000", "clicks": "60",
            "actions":       []interface{}{map[string]interface{}{"action_type": "purchase", "value": "6"}},
            "action_values": []interface{}{map[string]interface{}{"action_type": "purchase", "value": "600"}}},
        {"campaign_name": "Loser", "ad_name": "Loser ad", "spend": "80", "impressions": "8000", "clicks": "8"},
    }}

    builder := report.NewBuilder(insights, stubCampaigns{}, clients, transformer.New(), metrics.NewCalculator(), logger)
    httpClient := client.NewHTTPClient(cfg, logger, client.NewProviderMetrics(prometheus.NewRegistry()))
    exporter := export.NewExporter(cfg.SinkSecret, httpClient, logger)

    h := New(cfg, clients, builder, storage.NewMemoryStore(cfg.SessionTTL, passwordHash), exporter, logger)
    h.now = func() time.Time { return fixedNow }

    router := gin.New()
    h.Register(router)
    return &testServer{router: router, insights: insights}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
    t.Helper()
    var reader io.Reader
    if body != "" {
        reader = strings.NewReader(body)
    }
    req := httptest.NewRequest(method, path, reader)
    if body != "" {
        req.Header.Set("Content-Type", "application/json")
    }
    for _, cookie := range s.cookies {
        req.AddCookie(cookie)
    }
    rec := httptest.NewRecorder()
    s.router.ServeHTTP(rec, req)
    if cookies := rec.Result().Cookies(); len(cookies) > 0 {
        s.cookies = cookies
    }
    return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
    t.Helper()
    var out map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
    return out
}

func TestHealthAndReadiness(t *testing.T) {
    s := newTestServer(t, "", "")

    rec := s.do(t, http.MethodGet, "/healthz", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", decode(t, rec)["status"])

    rec = s.do(t, http.MethodGet, "/readyz", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, 2.0, decode(t, rec)["clients"])
}

func TestPasswordGate(t *testing.T) {
    hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
    require.NoError(t, err)
    s := newTestServer(t, string(hash), "")

    assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/report", "").Code)
    require.NotEmpty(t, s.cookies)

    assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/session/login", `{"password":"nope"}`).Code)
    assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/session/login", `{}`).Code)
    assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/session/login", `{"password":"letmein"}`).Code)
    assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/report", "").Code)

    assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/session/logout", "").Code)
    assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/report", "").Code)
}

func TestReportDefaultsToFirstClientAndPreset(t *testing.T) {
    s := newTestServer(t, "", "")

    rec := s.do(t, http.MethodGet, "/report", "")
    require.Equal(t, http.StatusOK, rec.Code)

    body := decode(t, rec)
    assert.Equal(t, "Acme", body["client"])
    assert.Equal(t, "2025-06-08", body["since"])
    assert.Equal(t, "2025-06-15", body["until"])

    totals := body["totals"].(map[string]interface{})
    assert.Equal(t, 180.0, totals["spend"])
    assert.Equal(t, 600.0, totals["revenue"])
    assert.Nil(t, body["combined"])
}

func TestReportRemembersSelection(t *testing.T) {
    s := newTestServer(t, "", "")

    require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/report?client=Beta&since=2025-01-01&until=2025-01-31", "").Code)
    rec := s.do(t, http.MethodGet, "/report", "")
    require.Equal(t, http.StatusOK, rec.Code)

    body := decode(t, rec)
    assert.Equal(t, "Beta", body["client"])
    assert.Equal(t, "2025-01-01", body["since"])
    assert.Equal(t, "act_beta", s.insights.clients[len(s.insights.clients)-1])
}

func TestReportErrors(t *testing.T) {
    s := newTestServer(t, "", "")

    assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/report?client=Nobody", "").Code)
    assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/report?since=2025-01-01", "").Code)
    assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/report?preset=3d", "").Code)
    assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/report/keyword", "").Code)

    s.insights.err = errors.New("token expired")
    assert.Equal(t, http.StatusBadGateway, s.do(t, http.MethodGet, "/report", "").Code)
}

func TestLevelRowsCarryLabels(t *testing.T) {
    s := newTestServer(t, "", "")

    rec := s.do(t, http.MethodGet, "/report/ad", "")
    require.Equal(t, http.StatusOK, rec.Code)

    rows := decode(t, rec)["rows"].([]interface{})
    require.Len(t, rows, 2)
    first := rows[0].(map[string]interface{})
    second := rows[1].(map[string]interface{})
    assert.Equal(t, "Winner", first["campaign_name"])
    assert.Equal(t, string(models.LabelWinningCreative), first["label"])
    assert.Equal(t, string(models.LabelRefreshCreative), second["label"])
}

func TestQualityReport(t *testing.T) {
    s := newTestServer(t, "", "")

    rec := s.do(t, http.MethodGet, "/quality/report", "")
    require.Equal(t, http.StatusOK, rec.Code)

    summary := decode(t, rec)["summary"].(map[string]interface{})
    assert.Equal(t, 6.0, summary["total_records"])
}

func TestExportPostsSignedPayload(t *testing.T) {
    var signature string
    sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        signature = r.Header.Get("X-Signature")
        w.WriteHeader(http.StatusOK)
    }))
    defer sink.Close()

    s := newTestServer(t, "", sink.URL)
    rec := s.do(t, http.MethodPost, "/export/run?client=Acme", "")
    require.Equal(t, http.StatusOK, rec.Code)

    body := decode(t, rec)
    assert.Equal(t, true, body["exported"])
    assert.Equal(t, 2.0, body["campaigns"])
    assert.True(t, strings.HasPrefix(signature, "sha256="))
}

func TestExportWithoutSinkReturnsPayload(t *testing.T) {
    s := newTestServer(t, "", "")
    rec := s.do(t, http.MethodPost, "/export/run", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, false, decode(t, rec)["exported"])
}

func TestRespondErrorMapsSentinels(t *testing.T) {
    gin.SetMode(gin.TestMode)
    logger := logrus.New()
    logger.SetOutput(io.Discard)
    h := &Handler{logger: logger}

    tests := []struct {
        name string
        err  error
        code int
    }{
        {"expired session", storage.ErrSessionNotFound, http.StatusUnauthorized},
        {"bad range", daterange.ErrInvalidRange, http.StatusBadRequest},
        {"unknown client", config.ErrUnknownClient, http.StatusNotFound},
        {"ads platform down", report.ErrPrimaryUnavailable, http.StatusBadGateway},
        {"anything else", errors.New("boom"), http.StatusInternalServerError},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            rec := httptest.NewRecorder()
            c, _ := gin.CreateTestContext(rec)
            h.respondError(c, tt.err)
            assert.Equal(t, tt.code, rec.Code)
        })
    }
}

func TestExportStampsGenerationTime(t *testing.T) {
    s := newTestServer(t, "", "")
    rec := s.do(t, http.MethodPost, "/export/run", "")
    require.Equal(t, http.StatusOK, rec.Code)

    body := decode(t, rec)
    assert.Equal(t, "2025-06-15T10:00:00Z", body["exported_at"])
    data := body["data"].(map[string]interface{})
    assert.Equal(t, "2025-06-15T10:00:00Z", data["generated_at"])
}
