// Package rules classifies normalized rows into budget actions using fixed
// business thresholds. Classification is per row; ordering and limiting the
// result list is done by Recommend.
package rules

import (
    "fmt"
    "sort"

    "ads-dashboard/internal/models"
)

// Thresholds are literal business heuristics. Changing any of them changes
// which entities get flagged.
const (
    campaignScaleMinROAS      = 4.0
    campaignScaleMinPurchases = 5
    campaignPauseMaxROAS      = 2.0
    campaignPauseMinSpend     = 50.0

    adSetScaleMaxCPA        = 30.0
    adSetPauseMinSpend      = 25.0
    adSetFatigueMinCPM      = 50.0
    adSetFatigueMaxCTR      = 1.0

    adWinningMinCTR         = 2.0
    adWinningMinImpressions = 1000
    adRefreshMaxCTR         = 0.5
    adRefreshMinSpend       = 15.0
    adLandingMinCTR         = 1.5
    adLandingMinSpend       = 20.0
)

// Classify returns the first matching label for the row at the given level.
func Classify(row models.NormalizedRow, level models.Granularity) (models.ActionLabel, bool) {
    switch level {
    case models.LevelCampaign:
        switch {
        case row.ROAS > campaignScaleMinROAS && row.Purchases >= campaignScaleMinPurchases:
            return models.LabelScale, true
        case row.ROAS < campaignPauseMaxROAS && row.Spend > campaignPauseMinSpend:
            return models.LabelPause, true
        }
    case models.LevelAdSet:
        switch {
        case row.Purchases > 0 && row.CPA < adSetScaleMaxCPA:
            return models.LabelScale, true
        case row.Spend > adSetPauseMinSpend && row.Purchases == 0:
            return models.LabelPause, true
        case row.CPM > adSetFatigueMinCPM && row.CTR < adSetFatigueMaxCTR:
            return models.LabelAudienceFatigue, true
        }
    case models.LevelAd:
        switch {
        case row.CTR > adWinningMinCTR && row.Impressions > adWinningMinImpressions:
            return models.LabelWinningCreative, true
        case row.CTR < adRefreshMaxCTR && row.Spend > adRefreshMinSpend:
            return models.LabelRefreshCreative, true
        case row.CTR > adLandingMinCTR && row.Purchases == 0 && row.Spend > adLandingMinSpend:
            return models.LabelLandingPageIssue, true
        }
    }
    return "", false
}

// Recommend orders rows the way each level is reviewed (campaigns by ROAS,
// ad sets by cheapest CPA, ads by CTR), keeps the labeled ones and returns at
// most limit of them. A limit of zero or less returns every match.
func Recommend(rows []models.NormalizedRow, level models.Granularity, limit int) []models.Recommendation {
    sorted := make([]models.NormalizedRow, len(rows))
    copy(sorted, rows)

    switch level {
    case models.LevelAdSet:
        sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CPA < sorted[j].CPA })
    case models.LevelAd:
        sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CTR > sorted[j].CTR })
    default:
        sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ROAS > sorted[j].ROAS })
    }

    recommendations := []models.Recommendation{}
    for _, row := range sorted {
        label, ok := Classify(row, level)
        if !ok {
            continue
        }
        recommendations = append(recommendations, models.Recommendation{
            Level:    level,
            EntityID: row.EntityID(level),
            Name:     row.DisplayName(level),
            Campaign: row.CampaignName,
            Label:    label,
            Detail:   detail(row, level, label),
        })
    }
    return take(recommendations, limit)
}

// TopPerformers returns up to n rows by descending ROAS, skipping rows
// without purchases.
func TopPerformers(rows []models.NormalizedRow, n int) []models.NormalizedRow {
    sorted := SortByROAS(rows)
    top := []models.NormalizedRow{}
    for _, row := range sorted {
        if row.Purchases > 0 {
            top = append(top, row)
        }
    }
    return take(top, n)
}

// SortByROAS returns a copy of rows ordered by descending ROAS.
func SortByROAS(rows []models.NormalizedRow) []models.NormalizedRow {
    sorted := make([]models.NormalizedRow, len(rows))
    copy(sorted, rows)
    sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ROAS > sorted[j].ROAS })
    return sorted
}

func take[T any](items []T, n int) []T {
    if n <= 0 || n >= len(items) {
        return items
    }
    return items[:n]
}

func detail(row models.NormalizedRow, level models.Granularity, label models.ActionLabel) string {
    switch label {
    case models.LabelScale:
        if level == models.LevelAdSet {
            return fmt.Sprintf("Great CPA: $%.2f | Campaign: %s", row.CPA, row.CampaignName)
        }
        return fmt.Sprintf("Increase budget by 50-100%% (Current ROAS: %.2fx)", row.ROAS)
    case models.LabelPause:
        if level == models.LevelAdSet {
            return fmt.Sprintf("No conversions after $%.2f spend | Campaign: %s", row.Spend, row.CampaignName)
        }
        return fmt.Sprintf("Poor performance: %.2fx ROAS after $%.2f spend", row.ROAS, row.Spend)
    case models.LabelAudienceFatigue:
        return fmt.Sprintf("High CPM ($%.2f) + Low CTR (%.2f%%) = Audience fatigue", row.CPM, row.CTR)
    case models.LabelWinningCreative:
        return fmt.Sprintf("High CTR: %.2f%% | Use this creative style for new ads", row.CTR)
    case models.LabelRefreshCreative:
        return fmt.Sprintf("Low CTR: %.2f%% | Creative is worn out, needs refresh", row.CTR)
    case models.LabelLandingPageIssue:
        return fmt.Sprintf("Good CTR (%.2f%%) but no conversions - check landing page", row.CTR)
    }
    return ""
}
