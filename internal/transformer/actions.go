package transformer

import (
    "encoding/json"
    "fmt"
    "math"
    "strings"

    "github.com/shopspring/decimal"

    "ads-dashboard/internal/models"
)

// Conversion types counted as purchases. app_install and complete_registration
// are folded into the same metric as purchase.
var purchaseActionTypes = map[string]bool{
    "purchase":              true,
    "app_install":           true,
    "complete_registration": true,
}

// revenueActionType is the only action_values entry that contributes revenue.
const revenueActionType = "purchase"

var (
    maxCount = decimal.NewFromInt(int64(math.MaxInt))
    minCount = decimal.NewFromInt(int64(math.MinInt))
)

// ExtractActions sums purchase-like conversion counts from actions and purchase
// revenue from actionValues. Entries whose value does not parse count as 0.
func ExtractActions(actions, actionValues []models.ActionEntry) (int, float64) {
    purchases, revenue, _ := extractActions(actions, actionValues)
    return purchases, revenue
}

func extractActions(actions, actionValues []models.ActionEntry) (purchases int, revenue float64, skipped int) {
    for _, action := range actions {
        if !purchaseActionTypes[action.ActionType] {
            continue
        }
        count, ok := ParseCount(action.Value)
        if !ok {
            skipped++
            continue
        }
        purchases += count
    }

    total := decimal.Zero
    for _, actionValue := range actionValues {
        if actionValue.ActionType != revenueActionType {
            continue
        }
        amount, ok := parseDecimal(actionValue.Value)
        if !ok || amount.IsNegative() {
            skipped++
            continue
        }
        total = total.Add(amount)
    }

    return purchases, total.InexactFloat64(), skipped
}

// ToActionEntries converts the decoded "actions"/"action_values" field of a raw
// record. Anything that is not a list of objects yields no entries; list items
// without an action_type are kept with an empty type so they never match.
func ToActionEntries(v interface{}) []models.ActionEntry {
    switch list := v.(type) {
    case []models.ActionEntry:
        return list
    case []map[string]interface{}:
        entries := make([]models.ActionEntry, 0, len(list))
        for _, item := range list {
            entries = append(entries, toActionEntry(item))
        }
        return entries
    case []interface{}:
        entries := make([]models.ActionEntry, 0, len(list))
        for _, raw := range list {
            item, ok := raw.(map[string]interface{})
            if !ok {
                continue
            }
            entries = append(entries, toActionEntry(item))
        }
        return entries
    }
    return nil
}

func toActionEntry(item map[string]interface{}) models.ActionEntry {
    actionType, _ := item["action_type"].(string)
    return models.ActionEntry{ActionType: actionType, Value: item["value"]}
}

// parseDecimal reads a currency-like value from the shapes the JSON decoder
// (or a hand-built record) can produce.
func parseDecimal(v interface{}) (decimal.Decimal, bool) {
    switch value := v.(type) {
    case nil:
        return decimal.Zero, false
    case string:
        d, err := decimal.NewFromString(strings.TrimSpace(value))
        if err != nil {
            return decimal.Zero, false
        }
        return d, true
    case json.Number:
        d, err := decimal.NewFromString(value.String())
        if err != nil {
            return decimal.Zero, false
        }
        return d, true
    case float64:
        return decimal.NewFromFloat(value), true
    case float32:
        return decimal.NewFromFloat32(value), true
    case int:
        return decimal.NewFromInt(int64(value)), true
    case int64:
        return decimal.NewFromInt(value), true
    }
    return decimal.Zero, false
}

// parseInt accepts only integral values that fit in an int; "12.5" and
// "1e30" are malformed.
func parseInt(v interface{}) (int, bool) {
    d, ok := parseDecimal(v)
    if !ok || !d.IsInteger() || d.GreaterThan(maxCount) || d.LessThan(minCount) {
        return 0, false
    }
    return int(d.IntPart()), true
}

// ParseCount reads a provider count. Negative, fractional or out-of-range
// values are malformed.
func ParseCount(v interface{}) (int, bool) {
    n, ok := parseInt(v)
    if !ok || n < 0 {
        return 0, false
    }
    return n, true
}

// ParseAmount reads a provider currency amount or rate. Negative values are
// malformed.
func ParseAmount(v interface{}) (float64, bool) {
    d, ok := parseDecimal(v)
    if !ok || d.IsNegative() {
        return 0, false
    }
    return d.InexactFloat64(), true
}

func describe(v interface{}) string {
    if v == nil {
        return "<missing>"
    }
    return fmt.Sprintf("%v", v)
}
