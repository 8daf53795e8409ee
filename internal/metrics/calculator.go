package metrics

import (
    "math"

    "ads-dashboard/internal/models"
)

// CalculateROAS is the only ROAS formula in the service: revenue over spend,
// or 0 when nothing was spent.
func CalculateROAS(spend, revenue float64) float64 {
    if spend <= 0 {
        return 0
    }
    return safeDivide(revenue, spend)
}

// CalculateCPA returns spend per purchase, or 0 without purchases.
func CalculateCPA(spend float64, purchases int) float64 {
    return safeDivide(spend, float64(purchases))
}

// CalculateCTR returns clicks per impression as a percentage, or 0 without impressions.
func CalculateCTR(clicks, impressions int) float64 {
    return safeDivide(float64(clicks), float64(impressions)) * 100
}

// ResolveRevenue prefers reported purchase revenue and only imputes
// purchases × average order value when none was reported.
func ResolveRevenue(actualRevenue float64, purchases int, averageOrderValue float64) float64 {
    if actualRevenue > 0 {
        return actualRevenue
    }
    return float64(purchases) * averageOrderValue
}

type Calculator struct{}

func NewCalculator() *Calculator {
    return &Calculator{}
}

// Aggregate sums rows into channel totals. Callers pass campaign-level rows:
// ad set and ad rows repeat the same spend at a finer grain.
func (c *Calculator) Aggregate(channel string, rows []models.NormalizedRow) models.ChannelTotals {
    totals := models.ChannelTotals{Channel: channel, Records: len(rows)}

    for _, row := range rows {
        totals.Spend += row.Spend
        totals.Revenue += row.Revenue
        totals.Impressions += row.Impressions
        totals.Clicks += row.Clicks
        totals.Purchases += row.Purchases
    }

    totals.ROAS = CalculateROAS(totals.Spend, totals.Revenue)
    totals.CTR = CalculateCTR(totals.Clicks, totals.Impressions)
    totals.CPA = CalculateCPA(totals.Spend, totals.Purchases)
    return totals
}

// AggregateSecondary sums email or SMS campaigns. Messages sent stand in for
// impressions; these channels carry no spend of their own.
func (c *Calculator) AggregateSecondary(channel models.SecondaryChannel, campaigns []models.SecondaryCampaign) models.ChannelTotals {
    totals := models.ChannelTotals{Channel: string(channel), Records: len(campaigns)}

    for _, campaign := range campaigns {
        totals.Revenue += campaign.Revenue
        totals.Impressions += campaign.SentCount
        totals.Clicks += campaign.Clicks
    }

    totals.ROAS = CalculateROAS(totals.Spend, totals.Revenue)
    totals.CTR = CalculateCTR(totals.Clicks, totals.Impressions)
    return totals
}

// EngagementRates fills open and click rates from raw counts when the provider
// did not report them. Rates are percentages; nothing sent means 0.
func (c *Calculator) EngagementRates(campaign models.SecondaryCampaign) models.SecondaryCampaign {
    if campaign.OpenRate == 0 {
        campaign.OpenRate = safeDivide(float64(campaign.Opens), float64(campaign.SentCount)) * 100
    }
    if campaign.ClickRate == 0 {
        campaign.ClickRate = safeDivide(float64(campaign.Clicks), float64(campaign.SentCount)) * 100
    }
    return campaign
}

// Combine merges the ads channel with any secondary channels. It returns nil
// when there is nothing to combine. Secondary spend never enters the ROAS
// denominator.
func (c *Calculator) Combine(primary models.ChannelTotals, secondary ...models.ChannelTotals) *models.CombinedTotals {
    if len(secondary) == 0 {
        return nil
    }

    combined := &models.CombinedTotals{
        PrimaryRevenue: primary.Revenue,
        PrimarySpend:   primary.Spend,
    }
    for _, channel := range secondary {
        combined.SecondaryRevenue += channel.Revenue
    }
    combined.CombinedRevenue = combined.PrimaryRevenue + combined.SecondaryRevenue
    combined.CombinedROAS = CalculateROAS(primary.Spend, combined.CombinedRevenue)

    if combined.CombinedRevenue <= 0 {
        return combined
    }

    combined.ContributionsAvailable = true
    for _, channel := range append([]models.ChannelTotals{primary}, secondary...) {
        combined.Contributions = append(combined.Contributions, models.ChannelContribution{
            Channel:                channel.Channel,
            Revenue:                channel.Revenue,
            ContributionPercentage: channel.Revenue / combined.CombinedRevenue * 100,
        })
    }
    return combined
}

func safeDivide(numerator, denominator float64) float64 {
    if denominator == 0 {
        return 0
    }
    result := numerator / denominator
    if math.IsNaN(result) || math.IsInf(result, 0) {
        return 0
    }
    return result
}
