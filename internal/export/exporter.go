package export

import (
    "context"
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "github.com/sirupsen/logrus"

    "ads-dashboard/internal/client"
    "ads-dashboard/internal/models"
    "ads-dashboard/internal/report"
)

const (
    sinkProvider    = "export_sink"
    signatureHeader = "X-Signature"
)

var ErrSinkNotConfigured = errors.New("export sink not configured")

type Exporter struct {
    secret     string
    httpClient *client.HTTPClient
    logger     *logrus.Logger
}

func NewExporter(secret string, httpClient *client.HTTPClient, logger *logrus.Logger) *Exporter {
    return &Exporter{
        secret:     secret,
        httpClient: httpClient,
        logger:     logger,
    }
}

// Export signs the record and posts it to the sink once.
func (e *Exporter) Export(ctx context.Context, sinkURL string, record models.ExportRecord) error {
    if sinkURL == "" {
        return ErrSinkNotConfigured
    }

    body, err := json.Marshal(record)
    if err != nil {
        return fmt.Errorf("failed to marshal export record: %w", err)
    }

    signature := e.Sign(body)
    if err := e.httpClient.PostJSON(ctx, sinkProvider, sinkURL, body, map[string]string{signatureHeader: signature}); err != nil {
        e.logger.WithError(err).WithField("client", record.Client).Error("Failed to export record")
        return fmt.Errorf("failed to export record: %w", err)
    }

    e.logger.WithFields(logrus.Fields{
        "client":    record.Client,
        "since":     record.Since,
        "until":     record.Until,
        "campaigns": len(record.Campaigns),
    }).Info("Successfully exported record")
    return nil
}

// RecordFromReport builds the export payload: ads totals, combined totals when
// present and the campaign rows.
func (e *Exporter) RecordFromReport(r *report.Report, generatedAt time.Time) models.ExportRecord {
    record := models.ExportRecord{
        Client:      r.Client,
        Since:       r.Since,
        Until:       r.Until,
        Totals:      r.Totals,
        Combined:    r.Combined,
        GeneratedAt: generatedAt,
    }
    if r.Campaigns != nil {
        record.Campaigns = r.Campaigns.Rows
    }
    return record
}

// Sign returns the sha256=<hex> HMAC of payload under the sink secret.
func (e *Exporter) Sign(payload []byte) string {
    h := hmac.New(sha256.New, []byte(e.secret))
    h.Write(payload)
    return "sha256=" + hex.EncodeToString(h.Sum(nil))
}
