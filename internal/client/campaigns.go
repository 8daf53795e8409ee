package client

import (
    "context"
    "fmt"
    "net/url"
    "sort"
    "strings"

    "github.com/sirupsen/logrus"

    "ads-dashboard/internal/config"
    "ads-dashboard/internal/daterange"
    "ads-dashboard/internal/models"
    "ads-dashboard/internal/transformer"
)

const (
    campaignsRevision = "2024-10-15"
    sentStatus        = "Sent"
    maxCampaignPages  = 50
)

type campaignListResponse struct {
    Data []struct {
        ID         string `json:"id"`
        Attributes struct {
            Name     string `json:"name"`
            Status   string `json:"status"`
            SendTime string `json:"send_time"`
        } `json:"attributes"`
    } `json:"data"`
    Links struct {
        Next string `json:"next"`
    } `json:"links"`
}

// Attributes stay untyped so one malformed metric cannot fail the decode.
type campaignMetricsResponse struct {
    Data struct {
        Attributes map[string]interface{} `json:"attributes"`
    } `json:"data"`
}

// CampaignClient reads sent email or SMS campaigns and their metrics from a
// messaging provider.
type CampaignClient struct {
    http     *HTTPClient
    baseURL  map[models.SecondaryChannel]string
    maxPages int
}

func NewCampaignClient(httpClient *HTTPClient, cfg *config.Config) *CampaignClient {
    return &CampaignClient{
        http: httpClient,
        baseURL: map[models.SecondaryChannel]string{
            models.ChannelEmail: strings.TrimRight(cfg.EmailAPIURL, "/"),
            models.ChannelSMS:   strings.TrimRight(cfg.SMSAPIURL, "/"),
        },
        maxPages: maxCampaignPages,
    }
}

// FetchCampaigns lists the channel's sent campaigns in the window, then looks
// up each campaign's metrics with one request per campaign.
func (c *CampaignClient) FetchCampaigns(ctx context.Context, channel models.SecondaryChannel, creds *config.ChannelConfig, window daterange.Range) ([]models.SecondaryCampaign, error) {
    base, ok := c.baseURL[channel]
    if !ok || base == "" {
        return nil, fmt.Errorf("no provider configured for channel %s", channel)
    }
    provider := string(channel) + "_campaigns"
    headers := map[string]string{
        "Authorization": "Klaviyo-API-Key " + creds.APIKey,
        "revision":      campaignsRevision,
    }

    var campaigns []models.SecondaryCampaign
    next := campaignListURL(base, channel, creds.SenderID, window)

    for page := 0; next != "" && page < c.maxPages; page++ {
        var list campaignListResponse
        if err := c.http.getJSON(ctx, provider, next, headers, &list); err != nil {
            return nil, fmt.Errorf("failed to list %s campaigns: %w", channel, err)
        }

        for _, item := range list.Data {
            var metrics campaignMetricsResponse
            metricsURL := fmt.Sprintf("%s/campaigns/%s/metrics?%s", base, url.PathEscape(item.ID), url.Values{
                "since": {window.SinceString()},
                "until": {window.UntilString()},
            }.Encode())
            if err := c.http.getJSON(ctx, provider, metricsURL, headers, &metrics); err != nil {
                return nil, fmt.Errorf("failed to fetch metrics for %s campaign %s: %w", channel, item.ID, err)
            }

            m := campaignMetrics{attrs: metrics.Data.Attributes}
            campaign := models.SecondaryCampaign{
                ID:        item.ID,
                Name:      item.Attributes.Name,
                Status:    item.Attributes.Status,
                SentCount: m.count("recipients"),
                Opens:     m.count("opens"),
                Clicks:    m.count("clicks"),
                Revenue:   m.amount("revenue"),
                OpenRate:  m.amount("open_rate"),
                ClickRate: m.amount("click_rate"),
            }
            if len(m.malformed) > 0 {
                sort.Strings(m.malformed)
                c.http.logger.WithFields(logrus.Fields{
                    "channel":  channel,
                    "campaign": item.ID,
                    "fields":   m.malformed,
                }).Warn("Malformed campaign metrics, using 0")
            }
            campaigns = append(campaigns, campaign)
        }
        next = list.Links.Next
    }

    if next != "" {
        c.http.logger.WithFields(logrus.Fields{
            "channel":   channel,
            "max_pages": c.maxPages,
        }).Warn("Campaign pagination limit reached, remaining pages not fetched")
    }

    c.http.logger.WithFields(logrus.Fields{
        "channel":   channel,
        "campaigns": len(campaigns),
        "range":     window.String(),
    }).Info("Fetched secondary channel campaigns")
    return campaigns, nil
}

func campaignListURL(base string, channel models.SecondaryChannel, senderID string, window daterange.Range) string {
    filters := []string{
        fmt.Sprintf("equals(messages.channel,'%s')", channel),
        fmt.Sprintf("equals(status,'%s')", sentStatus),
        fmt.Sprintf("greater-or-equal(send_time,%sT00:00:00Z)", window.SinceString()),
        fmt.Sprintf("less-or-equal(send_time,%sT23:59:59Z)", window.UntilString()),
    }
    params := url.Values{"filter": {strings.Join(filters, ",")}}
    if senderID != "" {
        params.Set("sender_id", senderID)
    }
    return base + "/campaigns?" + params.Encode()
}

// campaignMetrics reads metric attributes, using 0 for any value that is
// missing or does not parse. Only present but unparseable values are recorded.
type campaignMetrics struct {
    attrs     map[string]interface{}
    malformed []string
}

func (m *campaignMetrics) count(key string) int {
    raw, present := m.attrs[key]
    n, ok := transformer.ParseCount(raw)
    if !ok && present && raw != nil {
        m.malformed = append(m.malformed, key)
    }
    return n
}

func (m *campaignMetrics) amount(key string) float64 {
    raw, present := m.attrs[key]
    f, ok := transformer.ParseAmount(raw)
    if !ok && present && raw != nil {
        m.malformed = append(m.malformed, key)
    }
    return f
}
