package models

import "time"

// Data Quality Tracking Structures
type FieldQuality struct {
    IsValid       bool        `json:"is_valid"`
    Description   string      `json:"description"`
    OriginalValue interface{} `json:"original_value,omitempty"`
}

// RecordQuality only lists fields that had to be defaulted. A record whose
// fields all parsed has an empty FieldErrors map.
type RecordQuality struct {
    RecordID    string                  `json:"record_id"`
    IsValid     bool                    `json:"is_valid"`
    FieldErrors map[string]FieldQuality `json:"field_errors,omitempty"`
    ErrorCount  int                     `json:"error_count"`
}

// Granularity is the reporting level insights are requested at.
type Granularity string

const (
    LevelCampaign Granularity = "campaign"
    LevelAdSet    Granularity = "adset"
    LevelAd       Granularity = "ad"
)

// Levels lists every granularity in fetch order.
var Levels = []Granularity{LevelCampaign, LevelAdSet, LevelAd}

func ParseGranularity(s string) (Granularity, bool) {
    switch Granularity(s) {
    case LevelCampaign, LevelAdSet, LevelAd:
        return Granularity(s), true
    }
    return "", false
}

// External API Response Structures

// RawInsightRecord is one insights row exactly as the ads platform returned it.
// Any key may be missing and numeric values usually arrive as strings.
type RawInsightRecord map[string]interface{}

type InsightsResponse struct {
    Data   []RawInsightRecord `json:"data"`
    Paging struct {
        Next string `json:"next"`
    } `json:"paging"`
}

// ActionEntry is one element of the "actions" or "action_values" lists.
type ActionEntry struct {
    ActionType string
    Value      interface{}
}

// Normalized internal structures with Quality Tracking
type NormalizedRow struct {
    CampaignID   string `json:"campaign_id"`
    CampaignName string `json:"campaign_name"`
    AdSetID      string `json:"adset_id,omitempty"`
    AdSetName    string `json:"adset_name,omitempty"`
    AdID         string `json:"ad_id,omitempty"`
    AdName       string `json:"ad_name,omitempty"`

    Spend       float64 `json:"spend"`
    Impressions int     `json:"impressions"`
    Clicks      int     `json:"clicks"`
    CPM         float64 `json:"cpm"`

    Purchases     int     `json:"purchases"`
    ActualRevenue float64 `json:"actual_revenue"`
    Revenue       float64 `json:"revenue"`
    ROAS          float64 `json:"roas"`
    CPA           float64 `json:"cpa"`
    CTR           float64 `json:"ctr"`

    // Data Quality Tracking
    Quality RecordQuality `json:"quality"`
}

// DisplayName returns the name of the entity the row describes at the given level.
func (r NormalizedRow) DisplayName(level Granularity) string {
    switch level {
    case LevelAdSet:
        return r.AdSetName
    case LevelAd:
        return r.AdName
    }
    return r.CampaignName
}

// EntityID returns the identifier of the entity the row describes at the given level.
func (r NormalizedRow) EntityID(level Granularity) string {
    switch level {
    case LevelAdSet:
        return r.AdSetID
    case LevelAd:
        return r.AdID
    }
    return r.CampaignID
}

// Secondary channels (email / SMS)
type SecondaryChannel string

// ChannelAds names the primary ad-platform channel in totals.
const ChannelAds = "ads"

const (
    ChannelEmail SecondaryChannel = "email"
    ChannelSMS   SecondaryChannel = "sms"
)

// SecondaryCampaign is an email or SMS campaign in the provider-neutral shape.
type SecondaryCampaign struct {
    ID        string  `json:"id"`
    Name      string  `json:"name"`
    SentCount int     `json:"sent_count"`
    Opens     int     `json:"opens"`
    Clicks    int     `json:"clicks"`
    Revenue   float64 `json:"revenue"`
    OpenRate  float64 `json:"open_rate"`
    ClickRate float64 `json:"click_rate"`
    Status    string  `json:"status"`
}

// Business metrics
type ChannelTotals struct {
    Channel     string  `json:"channel"`
    Spend       float64 `json:"spend"`
    Revenue     float64 `json:"revenue"`
    Impressions int     `json:"impressions"`
    Clicks      int     `json:"clicks"`
    Purchases   int     `json:"purchases"`
    ROAS        float64 `json:"roas"`
    CTR         float64 `json:"ctr"`
    CPA         float64 `json:"cpa"`
    Records     int     `json:"records"`
}

type ChannelContribution struct {
    Channel                string  `json:"channel"`
    Revenue                float64 `json:"revenue"`
    ContributionPercentage float64 `json:"contribution_percentage"`
}

type CombinedTotals struct {
    PrimaryRevenue   float64 `json:"primary_revenue"`
    SecondaryRevenue float64 `json:"secondary_revenue"`
    CombinedRevenue  float64 `json:"combined_revenue"`
    PrimarySpend     float64 `json:"primary_spend"`
    CombinedROAS     float64 `json:"combined_roas"`

    // Contributions is empty unless ContributionsAvailable is set.
    ContributionsAvailable bool                  `json:"contributions_available"`
    Contributions          []ChannelContribution `json:"contributions,omitempty"`
}

// Recommendations
type ActionLabel string

const (
    LabelScale            ActionLabel = "SCALE"
    LabelPause            ActionLabel = "PAUSE"
    LabelAudienceFatigue  ActionLabel = "AUDIENCE_FATIGUE"
    LabelWinningCreative  ActionLabel = "WINNING_CREATIVE"
    LabelRefreshCreative  ActionLabel = "REFRESH_CREATIVE"
    LabelLandingPageIssue ActionLabel = "LANDING_PAGE_ISSUE"
)

type Recommendation struct {
    Level    Granularity `json:"level"`
    EntityID string      `json:"entity_id"`
    Name     string      `json:"name"`
    Campaign string      `json:"campaign_name"`
    Label    ActionLabel `json:"label"`
    Detail   string      `json:"detail"`
}

// Data Quality Report Structures
type DataQualityReport struct {
    Summary   QualitySummary                  `json:"summary"`
    Levels    map[Granularity][]RecordQuality `json:"levels"`
    Timestamp string                          `json:"timestamp"`
}

type QualitySummary struct {
    TotalRecords        int      `json:"total_records"`
    ValidRecords        int      `json:"valid_records"`
    OverallQualityScore float64  `json:"overall_quality_score"`
    CommonIssues        []string `json:"common_issues"`
}

type ExportRecord struct {
    Client      string          `json:"client"`
    Since       string          `json:"since"`
    Until       string          `json:"until"`
    Totals      ChannelTotals   `json:"totals"`
    Combined    *CombinedTotals `json:"combined,omitempty"`
    Campaigns   []NormalizedRow `json:"campaigns"`
    GeneratedAt time.Time       `json:"generated_at"`
}
