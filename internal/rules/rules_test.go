package rules

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "ads-dashboard/internal/models"
)

func TestClassifyTable(t *testing.T) {
    cases := []struct {
        name  string
        level models.Granularity
        row   models.NormalizedRow
        want  models.ActionLabel
        ok    bool
    }{
        {"campaign scale", models.LevelCampaign, models.NormalizedRow{ROAS: 4.5, Purchases: 5}, models.LabelScale, true},
        {"campaign scale needs five purchases", models.LevelCampaign, models.NormalizedRow{ROAS: 4.5, Purchases: 4}, "", false},
        {"campaign roas exactly four is not scale", models.LevelCampaign, models.NormalizedRow{ROAS: 4.0, Purchases: 9}, "", false},
        {"campaign pause", models.LevelCampaign, models.NormalizedRow{ROAS: 1.2, Spend: 50.01}, models.LabelPause, true},
        {"campaign pause needs spend over fifty", models.LevelCampaign, models.NormalizedRow{ROAS: 1.2, Spend: 50}, "", false},
        {"adset scale", models.LevelAdSet, models.NormalizedRow{Purchases: 1, CPA: 29.99}, models.LabelScale, true},
        {"adset pause", models.LevelAdSet, models.NormalizedRow{Spend: 26}, models.LabelPause, true},
        {"adset fatigue", models.LevelAdSet, models.NormalizedRow{Purchases: 1, CPA: 45, CPM: 60, CTR: 0.8}, models.LabelAudienceFatigue, true},
        {"adset nothing", models.LevelAdSet, models.NormalizedRow{Purchases: 1, CPA: 45, CPM: 20, CTR: 0.8}, "", false},
        {"ad winning", models.LevelAd, models.NormalizedRow{CTR: 2.1, Impressions: 1001}, models.LabelWinningCreative, true},
        {"ad refresh", models.LevelAd, models.NormalizedRow{CTR: 0.4, Spend: 16}, models.LabelRefreshCreative, true},
        {"ad landing page", models.LevelAd, models.NormalizedRow{CTR: 1.8, Spend: 21, Impressions: 500}, models.LabelLandingPageIssue, true},
        {"ad landing page needs no purchases", models.LevelAd, models.NormalizedRow{CTR: 1.8, Spend: 21, Purchases: 1}, "", false},
        {"unknown level", models.Granularity("account"), models.NormalizedRow{ROAS: 9, Purchases: 9}, "", false},
    }

    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            got, ok := Classify(tc.row, tc.level)
            assert.Equal(t, tc.ok, ok)
            assert.Equal(t, tc.want, got)
        })
    }
}

func TestClassifyFirstMatchWins(t *testing.T) {
    // Spend over 50 also satisfies the pause spend condition; scale is checked first.
    label, ok := Classify(models.NormalizedRow{ROAS: 5.0, Purchases: 10, Spend: 200}, models.LevelCampaign)
    require.True(t, ok)
    assert.Equal(t, models.LabelScale, label)

    // A winning ad with no purchases is never reported as a landing page issue.
    label, ok = Classify(models.NormalizedRow{CTR: 3, Impressions: 5000, Spend: 100}, models.LevelAd)
    require.True(t, ok)
    assert.Equal(t, models.LabelWinningCreative, label)
}

func TestRecommendSortsFiltersAndLimits(t *testing.T) {
    rows := []models.NormalizedRow{
        {CampaignID: "1", CampaignName: "weak", ROAS: 1.0, Spend: 80},
        {CampaignID: "2", CampaignName: "neutral", ROAS: 3.0, Spend: 80},
        {CampaignID: "3", CampaignName: "great", ROAS: 6.0, Purchases: 8, Spend: 100},
        {CampaignID: "4", CampaignName: "good", ROAS: 4.5, Purchases: 6, Spend: 100},
    }

    all := Recommend(rows, models.LevelCampaign, 0)
    require.Len(t, all, 3)
    assert.Equal(t, "great", all[0].Name)
    assert.Equal(t, "good", all[1].Name)
    assert.Equal(t, "weak", all[2].Name)
    assert.Equal(t, models.LabelPause, all[2].Label)
    assert.Contains(t, all[2].Detail, "Poor performance")

    limited := Recommend(rows, models.LevelCampaign, 2)
    require.Len(t, limited, 2)
    assert.Equal(t, "3", limited[0].EntityID)

    // Input order is left untouched.
    assert.Equal(t, "weak", rows[0].CampaignName)
}

func TestRecommendAdSetsByCheapestCPA(t *testing.T) {
    rows := []models.NormalizedRow{
        {AdSetID: "a", AdSetName: "pricey", Purchases: 2, CPA: 25, CampaignName: "C"},
        {AdSetID: "b", AdSetName: "cheap", Purchases: 5, CPA: 8, CampaignName: "C"},
    }
    recs := Recommend(rows, models.LevelAdSet, 3)
    require.Len(t, recs, 2)
    assert.Equal(t, "cheap", recs[0].Name)
    assert.Equal(t, "b", recs[0].EntityID)
    assert.Contains(t, recs[0].Detail, "Great CPA")
}

func TestRecommendEmpty(t *testing.T) {
    assert.Empty(t, Recommend(nil, models.LevelAd, 3))
}

func TestTopPerformers(t *testing.T) {
    rows := []models.NormalizedRow{
        {CampaignName: "no sales", ROAS: 0},
        {CampaignName: "mid", ROAS: 2, Purchases: 1},
        {CampaignName: "best", ROAS: 8, Purchases: 3},
        {CampaignName: "odd", ROAS: 9, Purchases: 0},
    }
    top := TopPerformers(rows, 5)
    require.Len(t, top, 2)
    assert.Equal(t, "best", top[0].CampaignName)
    assert.Equal(t, "mid", top[1].CampaignName)

    assert.Len(t, TopPerformers(rows, 1), 1)
}
