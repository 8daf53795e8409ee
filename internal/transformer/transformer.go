package transformer

import (
    "fmt"
    "sort"
    "time"

    "ads-dashboard/internal/metrics"
    "ads-dashboard/internal/models"
)

const unknownCampaignName = "Unknown"

type Transformer struct{}

func New() *Transformer {
    return &Transformer{}
}

// Normalize turns one granularity's raw insights into rows with derived
// metrics. Output order matches input order and no record is dropped.
// averageOrderValue is only used when a record reports no purchase revenue.
func (t *Transformer) Normalize(records []models.RawInsightRecord, level models.Granularity, averageOrderValue float64) []models.NormalizedRow {
    normalized := make([]models.NormalizedRow, 0, len(records))

    for i, record := range records {
        quality := models.RecordQuality{
            RecordID:    fmt.Sprintf("%s_%d", level, i),
            IsValid:     true,
            FieldErrors: make(map[string]models.FieldQuality),
        }

        row := models.NormalizedRow{
            CampaignID:   stringField(record, "campaign_id"),
            CampaignName: t.validateCampaignName(record, &quality),
            AdSetID:      stringField(record, "adset_id"),
            AdSetName:    stringField(record, "adset_name"),
            AdID:         stringField(record, "ad_id"),
            AdName:       stringField(record, "ad_name"),
            Spend:        t.validateCurrency(record, "spend", &quality),
            Impressions:  t.validateCount(record, "impressions", &quality),
            Clicks:       t.validateCount(record, "clicks", &quality),
            CPM:          t.validateCurrency(record, "cpm", &quality),
        }

        purchases, actualRevenue, skipped := extractActions(
            ToActionEntries(record["actions"]),
            ToActionEntries(record["action_values"]),
        )
        if skipped > 0 {
            quality.FieldErrors["actions"] = models.FieldQuality{
                IsValid:     false,
                Description: fmt.Sprintf("Invalid - %d action value(s) could not be parsed, counted as 0", skipped),
            }
            quality.ErrorCount++
        }

        row.Purchases = purchases
        row.ActualRevenue = actualRevenue
        row.Revenue = metrics.ResolveRevenue(actualRevenue, purchases, averageOrderValue)
        row.ROAS = metrics.CalculateROAS(row.Spend, row.Revenue)
        row.CPA = metrics.CalculateCPA(row.Spend, row.Purchases)
        row.CTR = metrics.CalculateCTR(row.Clicks, row.Impressions)

        quality.IsValid = quality.ErrorCount == 0
        row.Quality = quality

        normalized = append(normalized, row)
    }

    return normalized
}

func (t *Transformer) validateCampaignName(record models.RawInsightRecord, quality *models.RecordQuality) string {
    name, ok := record["campaign_name"].(string)
    if !ok {
        quality.FieldErrors["campaign_name"] = models.FieldQuality{
            IsValid:       false,
            Description:   "Missing - Campaign name is empty, using 'Unknown'",
            OriginalValue: record["campaign_name"],
        }
        quality.ErrorCount++
        return unknownCampaignName
    }
    return name
}

func (t *Transformer) validateCurrency(record models.RawInsightRecord, field string, quality *models.RecordQuality) float64 {
    raw, present := record[field]
    if !present {
        t.markDefaulted(quality, field, "Missing - %s not reported, using 0", raw)
        return 0
    }

    amount, ok := parseDecimal(raw)
    if !ok {
        t.markDefaulted(quality, field, "Invalid - %s is not a decimal amount, using 0", raw)
        return 0
    }
    if amount.IsNegative() {
        t.markDefaulted(quality, field, "Invalid - %s cannot be negative, using 0", raw)
        return 0
    }
    return amount.InexactFloat64()
}

func (t *Transformer) validateCount(record models.RawInsightRecord, field string, quality *models.RecordQuality) int {
    raw, present := record[field]
    if !present {
        t.markDefaulted(quality, field, "Missing - %s not reported, using 0", raw)
        return 0
    }

    count, ok := parseInt(raw)
    if !ok {
        t.markDefaulted(quality, field, "Invalid - %s is not an integer, using 0", raw)
        return 0
    }
    if count < 0 {
        t.markDefaulted(quality, field, "Invalid - %s cannot be negative, using 0", raw)
        return 0
    }
    return count
}

func (t *Transformer) markDefaulted(quality *models.RecordQuality, field, format string, original interface{}) {
    quality.FieldErrors[field] = models.FieldQuality{
        IsValid:       false,
        Description:   fmt.Sprintf(format, field),
        OriginalValue: describe(original),
    }
    quality.ErrorCount++
}

func stringField(record models.RawInsightRecord, key string) string {
    if value, ok := record[key].(string); ok {
        return value
    }
    return ""
}

// Generate Quality Report
func (t *Transformer) GenerateQualityReport(levels map[models.Granularity][]models.NormalizedRow) models.DataQualityReport {
    report := models.DataQualityReport{
        Levels:    make(map[models.Granularity][]models.RecordQuality, len(levels)),
        Timestamp: time.Now().Format(time.RFC3339),
    }

    issueCount := make(map[string]int)
    total, valid := 0, 0

    for level, rows := range levels {
        qualities := make([]models.RecordQuality, 0, len(rows))
        for _, row := range rows {
            qualities = append(qualities, row.Quality)
            total++
            if row.Quality.IsValid {
                valid++
            }
            for _, fieldError := range row.Quality.FieldErrors {
                if !fieldError.IsValid {
                    issueCount[fieldError.Description]++
                }
            }
        }
        report.Levels[level] = qualities
    }

    score := 0.0
    if total > 0 {
        score = float64(valid) / float64(total) * 100
    }

    report.Summary = models.QualitySummary{
        TotalRecords:        total,
        ValidRecords:        valid,
        OverallQualityScore: score,
        CommonIssues:        t.identifyCommonIssues(issueCount),
    }
    return report
}

func (t *Transformer) identifyCommonIssues(issueCount map[string]int) []string {
    commonIssues := []string{}
    for issue, count := range issueCount {
        if count > 1 { // Only include issues that appear more than once
            commonIssues = append(commonIssues, fmt.Sprintf("%s (occurs %d times)", issue, count))
        }
    }
    sort.Strings(commonIssues)
    return commonIssues
}

// HasIssues reports whether any row in the batch had a defaulted field.
func HasIssues(rows []models.NormalizedRow) bool {
    for _, row := range rows {
        if !row.Quality.IsValid {
            return true
        }
    }
    return false
}
