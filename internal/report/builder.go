package report

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/sirupsen/logrus"

    "ads-dashboard/internal/config"
    "ads-dashboard/internal/daterange"
    "ads-dashboard/internal/metrics"
    "ads-dashboard/internal/models"
    "ads-dashboard/internal/rules"
    "ads-dashboard/internal/transformer"
)

// ErrPrimaryUnavailable means the ads platform could not be read and no
// report can be produced.
var ErrPrimaryUnavailable = errors.New("ads platform unavailable")

const (
    priorityActionsLimit = 3
    topPerformersLimit   = 5
)

var levelLabels = map[models.Granularity]string{
    models.LevelCampaign: "campaign",
    models.LevelAdSet:    "ad set",
    models.LevelAd:       "ad",
}

type InsightsFetcher interface {
    FetchInsights(ctx context.Context, accountID string, level models.Granularity, window daterange.Range) ([]models.RawInsightRecord, error)
}

type CampaignFetcher interface {
    FetchCampaigns(ctx context.Context, channel models.SecondaryChannel, creds *config.ChannelConfig, window daterange.Range) ([]models.SecondaryCampaign, error)
}

type LevelSection struct {
    Level           models.Granularity      `json:"level"`
    Rows            []models.NormalizedRow  `json:"rows"`
    Empty           bool                    `json:"empty"`
    Message         string                  `json:"message,omitempty"`
    TopPerformers   []models.NormalizedRow  `json:"top_performers"`
    PriorityActions []models.Recommendation `json:"priority_actions"`
    Recommendations []models.Recommendation `json:"recommendations"`
}

type ChannelSection struct {
    Channel   models.SecondaryChannel    `json:"channel"`
    Totals    models.ChannelTotals       `json:"totals"`
    Campaigns []models.SecondaryCampaign `json:"campaigns"`
    Empty     bool                       `json:"empty"`
    Message   string                     `json:"message,omitempty"`
}

// Report is everything one render pass produces for a client and window.
type Report struct {
    Client            string                   `json:"client"`
    AccountID         string                   `json:"account_id"`
    LogoURL           string                   `json:"logo_url,omitempty"`
    AverageOrderValue float64                  `json:"average_order_value"`
    Since             string                   `json:"since"`
    Until             string                   `json:"until"`
    Days              int                      `json:"days"`
    GeneratedAt       time.Time                `json:"generated_at"`
    Totals            models.ChannelTotals     `json:"totals"`
    Campaigns         *LevelSection            `json:"campaigns"`
    AdSets            *LevelSection            `json:"adsets"`
    Ads               *LevelSection            `json:"ads"`
    Channels          []ChannelSection         `json:"channels,omitempty"`
    Combined          *models.CombinedTotals   `json:"combined,omitempty"`
    Notices           []string                 `json:"notices,omitempty"`
    Quality           models.DataQualityReport `json:"-"`
}

// Level returns the section of the given granularity.
func (r *Report) Level(level models.Granularity) *LevelSection {
    switch level {
    case models.LevelAdSet:
        return r.AdSets
    case models.LevelAd:
        return r.Ads
    }
    return r.Campaigns
}

type Builder struct {
    insights    InsightsFetcher
    campaigns   CampaignFetcher
    clients     config.Clients
    transformer *transformer.Transformer
    calculator  *metrics.Calculator
    logger      *logrus.Logger
    now         func() time.Time
}

func NewBuilder(insights InsightsFetcher, campaigns CampaignFetcher, clients config.Clients,
    transformer *transformer.Transformer, calculator *metrics.Calculator, logger *logrus.Logger) *Builder {
    return &Builder{
        insights:    insights,
        campaigns:   campaigns,
        clients:     clients,
        transformer: transformer,
        calculator:  calculator,
        logger:      logger,
        now:         time.Now,
    }
}

// Build runs one sequential pass: the three insights levels, then each enabled
// secondary channel. An ads platform failure aborts the pass; a secondary
// channel failure only drops that channel and adds a notice.
func (b *Builder) Build(ctx context.Context, clientName string, window daterange.Range) (*Report, error) {
    started := b.now()

    client, err := b.clients.Get(clientName)
    if err != nil {
        return nil, err
    }

    report := &Report{
        Client:            client.Name,
        AccountID:         client.AccountID,
        LogoURL:           client.LogoURL,
        AverageOrderValue: client.AverageOrderValue,
        Since:             window.SinceString(),
        Until:             window.UntilString(),
        Days:              window.Days(),
        GeneratedAt:       started,
    }

    normalized := make(map[models.Granularity][]models.NormalizedRow, len(models.Levels))
    for _, level := range models.Levels {
        raw, err := b.insights.FetchInsights(ctx, client.AccountID, level, window)
        if err != nil {
            b.logger.WithError(err).WithFields(logrus.Fields{
                "client":     client.Name,
                "account_id": client.AccountID,
                "level":      level,
            }).Error("Failed to fetch insights")
            return nil, fmt.Errorf("%w: %w", ErrPrimaryUnavailable, err)
        }

        rows := b.transformer.Normalize(raw, level, client.AverageOrderValue)
        normalized[level] = rows
        b.setLevel(report, level, rows)
    }

    report.Totals = b.calculator.Aggregate(models.ChannelAds, normalized[models.LevelCampaign])

    var secondary []models.ChannelTotals
    for _, channel := range client.EnabledChannels() {
        section, err := b.buildChannel(ctx, client, channel, window)
        if err != nil {
            b.logger.WithError(err).WithFields(logrus.Fields{
                "client":  client.Name,
                "channel": channel,
            }).Warn("Secondary channel unavailable, omitting it")
            report.Notices = append(report.Notices, fmt.Sprintf("%s data unavailable: %v", channel, err))
            continue
        }
        report.Channels = append(report.Channels, section)
        secondary = append(secondary, section.Totals)
    }

    report.Combined = b.calculator.Combine(report.Totals, secondary...)
    if report.Combined != nil && !report.Combined.ContributionsAvailable {
        report.Notices = append(report.Notices, "No revenue in the selected period; channel contributions unavailable")
    }

    report.Quality = b.transformer.GenerateQualityReport(normalized)
    if len(report.Quality.Summary.CommonIssues) > 0 {
        b.logger.WithField("common_issues", report.Quality.Summary.CommonIssues).Warn("Data quality issues detected")
    }

    b.logger.WithFields(logrus.Fields{
        "client":        client.Name,
        "range":         window.String(),
        "campaigns":     len(normalized[models.LevelCampaign]),
        "adsets":        len(normalized[models.LevelAdSet]),
        "ads":           len(normalized[models.LevelAd]),
        "channels":      len(report.Channels),
        "duration_ms":   b.now().Sub(started).Milliseconds(),
        "quality_score": report.Quality.Summary.OverallQualityScore,
    }).Info("Report built")

    return report, nil
}

func (b *Builder) setLevel(report *Report, level models.Granularity, rows []models.NormalizedRow) {
    section := &LevelSection{
        Level:           level,
        Rows:            rules.SortByROAS(rows),
        TopPerformers:   rules.TopPerformers(rows, topPerformersLimit),
        PriorityActions: rules.Recommend(rows, level, priorityActionsLimit),
        Recommendations: rules.Recommend(rows, level, 0),
    }
    if len(rows) == 0 {
        section.Empty = true
        section.Message = fmt.Sprintf("No %s data found for the selected time period.", levelLabels[level])
    }

    switch level {
    case models.LevelCampaign:
        report.Campaigns = section
    case models.LevelAdSet:
        report.AdSets = section
    case models.LevelAd:
        report.Ads = section
    }
}

func (b *Builder) buildChannel(ctx context.Context, client config.ClientConfig, channel models.SecondaryChannel, window daterange.Range) (ChannelSection, error) {
    creds, _ := client.Channel(channel)
    campaigns, err := b.campaigns.FetchCampaigns(ctx, channel, creds, window)
    if err != nil {
        return ChannelSection{}, err
    }

    for i := range campaigns {
        campaigns[i] = b.calculator.EngagementRates(campaigns[i])
    }

    section := ChannelSection{
        Channel:   channel,
        Totals:    b.calculator.AggregateSecondary(channel, campaigns),
        Campaigns: campaigns,
    }
    if len(campaigns) == 0 {
        section.Empty = true
        section.Message = fmt.Sprintf("No %s campaigns found for the selected time period.", channel)
    }
    return section, nil
}
