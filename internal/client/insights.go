package client

import (
    "context"
    "encoding/json"
    "fmt"
    "net/url"
    "strings"

    "github.com/sirupsen/logrus"

    "ads-dashboard/internal/config"
    "ads-dashboard/internal/daterange"
    "ads-dashboard/internal/models"
)

const (
    insightsProvider = "ads_insights"
    insightsPageSize = "500"
    maxInsightsPages = 100
)

var baseInsightFields = []string{
    "campaign_id", "campaign_name", "spend", "actions", "action_values",
    "cost_per_action_type", "ctr", "cpm", "impressions", "clicks", "reach", "frequency",
}

var levelInsightFields = map[models.Granularity][]string{
    models.LevelCampaign: {"purchase_roas"},
    models.LevelAdSet:    {"adset_id", "adset_name"},
    models.LevelAd:       {"adset_id", "adset_name", "ad_id", "ad_name"},
}

// InsightsClient reads performance insights for one ad account.
type InsightsClient struct {
    http     *HTTPClient
    baseURL  string
    version  string
    token    string
    maxPages int
}

func NewInsightsClient(httpClient *HTTPClient, cfg *config.Config) *InsightsClient {
    return &InsightsClient{
        http:     httpClient,
        baseURL:  strings.TrimRight(cfg.AdsAPIURL, "/"),
        version:  cfg.AdsAPIVersion,
        token:    cfg.AdsAccessToken,
        maxPages: maxInsightsPages,
    }
}

// FetchInsights returns every insights row of the account at the given level
// for the window, following pagination until the provider reports no next page.
func (c *InsightsClient) FetchInsights(ctx context.Context, accountID string, level models.Granularity, window daterange.Range) ([]models.RawInsightRecord, error) {
    next, err := c.insightsURL(accountID, level, window)
    if err != nil {
        return nil, err
    }

    headers := map[string]string{"Authorization": "Bearer " + c.token}
    var records []models.RawInsightRecord

    for page := 0; next != "" && page < c.maxPages; page++ {
        var resp models.InsightsResponse
        if err := c.http.getJSON(ctx, insightsProvider, next, headers, &resp); err != nil {
            return nil, fmt.Errorf("failed to fetch %s insights: %w", level, err)
        }
        records = append(records, resp.Data...)
        next = resp.Paging.Next
    }

    if next != "" {
        c.http.logger.WithFields(logrus.Fields{
            "account_id": accountID,
            "level":      level,
            "max_pages":  c.maxPages,
        }).Warn("Insights pagination limit reached, remaining pages not fetched")
    }

    c.http.logger.WithFields(logrus.Fields{
        "account_id": accountID,
        "level":      level,
        "records":    len(records),
        "range":      window.String(),
    }).Info("Fetched insights")
    return records, nil
}

func (c *InsightsClient) insightsURL(accountID string, level models.Granularity, window daterange.Range) (string, error) {
    timeRange, err := json.Marshal(map[string]string{
        "since": window.SinceString(),
        "until": window.UntilString(),
    })
    if err != nil {
        return "", err
    }

    fields := append(append([]string{}, baseInsightFields...), levelInsightFields[level]...)

    params := url.Values{}
    params.Set("level", string(level))
    params.Set("fields", strings.Join(fields, ","))
    params.Set("time_range", string(timeRange))
    params.Set("action_breakdowns", `["action_type"]`)
    params.Set("action_attribution_windows", `["7d_click","1d_view"]`)
    params.Set("limit", insightsPageSize)

    endpoint := fmt.Sprintf("%s/%s/%s/insights", c.baseURL, c.version, url.PathEscape(accountID))
    return endpoint + "?" + params.Encode(), nil
}
