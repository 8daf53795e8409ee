package handlers

import (
    "errors"
    "net/http"
    "sort"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/sirupsen/logrus"

    "ads-dashboard/internal/config"
    "ads-dashboard/internal/daterange"
    "ads-dashboard/internal/export"
    "ads-dashboard/internal/models"
    "ads-dashboard/internal/report"
    "ads-dashboard/internal/rules"
    "ads-dashboard/internal/storage"
)

type Handler struct {
    config   *config.Config
    clients  config.Clients
    builder  *report.Builder
    store    *storage.MemoryStore
    exporter *export.Exporter
    logger   *logrus.Logger
    now      func() time.Time
}

func New(cfg *config.Config, clients config.Clients, builder *report.Builder,
    store *storage.MemoryStore, exporter *export.Exporter, logger *logrus.Logger) *Handler {
    return &Handler{
        config:   cfg,
        clients:  clients,
        builder:  builder,
        store:    store,
        exporter: exporter,
        logger:   logger,
        now:      time.Now,
    }
}

// Register mounts every dashboard route. Report routes sit behind the session
// gate; health and login do not.
func (h *Handler) Register(router gin.IRouter) {
    router.GET("/healthz", h.HealthCheck)
    router.GET("/readyz", h.ReadinessCheck)

    session := router.Group("/", h.Session())
    session.POST("/session/login", h.Login)
    session.POST("/session/logout", h.Logout)

    gated := session.Group("/", h.RequireAuth())
    gated.GET("/clients", h.ListClients)
    gated.GET("/report", h.GetReport)
    gated.GET("/report/:level", h.GetLevel)
    gated.GET("/quality/report", h.GetDataQualityReport)
    gated.POST("/export/run", h.ExportData)
}

func (h *Handler) HealthCheck(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{
        "status":    "ok",
        "timestamp": h.now().Format(time.RFC3339),
        "service":   "ads-dashboard",
    })
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
    if len(h.clients) == 0 {
        c.JSON(http.StatusServiceUnavailable, gin.H{
            "status":  "not ready",
            "message": "No clients configured",
        })
        return
    }
    c.JSON(http.StatusOK, gin.H{
        "status":  "ready",
        "clients": len(h.clients),
    })
}

type clientView struct {
    config.ClientConfig
    Channels []models.SecondaryChannel `json:"channels"`
}

func (h *Handler) ListClients(c *gin.Context) {
    names := h.clients.Names()
    views := make([]clientView, 0, len(names))
    for _, name := range names {
        client := h.clients[name]
        views = append(views, clientView{ClientConfig: client, Channels: client.EnabledChannels()})
    }
    c.JSON(http.StatusOK, gin.H{
        "clients": views,
        "default": firstOrEmpty(names),
        "presets": presetNames(),
    })
}

func (h *Handler) GetReport(c *gin.Context) {
    r, ok := h.buildReport(c)
    if !ok {
        return
    }
    c.JSON(http.StatusOK, r)
}

type levelRow struct {
    models.NormalizedRow
    Label models.ActionLabel `json:"label,omitempty"`
}

// GetLevel returns every row of one granularity, best ROAS first, each with
// its action label if one applies.
func (h *Handler) GetLevel(c *gin.Context) {
    level, ok := models.ParseGranularity(c.Param("level"))
    if !ok {
        c.JSON(http.StatusBadRequest, gin.H{"error": "level must be one of campaign, adset, ad"})
        return
    }

    r, ok := h.buildReport(c)
    if !ok {
        return
    }

    section := r.Level(level)
    rows := make([]levelRow, 0, len(section.Rows))
    for _, row := range section.Rows {
        label, _ := rules.Classify(row, level)
        rows = append(rows, levelRow{NormalizedRow: row, Label: label})
    }

    c.JSON(http.StatusOK, gin.H{
        "client":          r.Client,
        "since":           r.Since,
        "until":           r.Until,
        "level":           level,
        "rows":            rows,
        "empty":           section.Empty,
        "message":         section.Message,
        "recommendations": section.Recommendations,
        "notices":         r.Notices,
    })
}

func (h *Handler) GetDataQualityReport(c *gin.Context) {
    r, ok := h.buildReport(c)
    if !ok {
        return
    }

    c.JSON(http.StatusOK, r.Quality)
}

func (h *Handler) ExportData(c *gin.Context) {
    r, ok := h.buildReport(c)
    if !ok {
        return
    }

    record := h.exporter.RecordFromReport(r, h.now())
    exported := false
    if h.config.SinkURL != "" {
        if err := h.exporter.Export(c.Request.Context(), h.config.SinkURL, record); err != nil {
            c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to export data"})
            return
        }
        exported = true
    }

    c.JSON(http.StatusOK, gin.H{
        "status":      "success",
        "exported":    exported,
        "campaigns":   len(record.Campaigns),
        "exported_at": record.GeneratedAt.Format(time.RFC3339),
        "data":        record,
    })
}

// buildReport resolves the selection, runs the pipeline and remembers the
// selection on success. On failure it writes the error response itself.
func (h *Handler) buildReport(c *gin.Context) (*report.Report, bool) {
    session := currentSession(c)

    clientName, preset, window, err := h.selection(c, session)
    if err != nil {
        h.respondError(c, err)
        return nil, false
    }

    r, err := h.builder.Build(c.Request.Context(), clientName, window)
    if err != nil {
        h.respondError(c, err)
        return nil, false
    }

    h.store.Remember(session.ID, clientName, preset, window)
    return r, true
}

// selection reads client and window from the query, falling back to what the
// session last used and then to the first client and the default preset.
func (h *Handler) selection(c *gin.Context, session storage.Session) (string, string, daterange.Range, error) {
    clientName := c.Query("client")
    if clientName == "" {
        clientName = session.Client
    }
    if clientName == "" {
        clientName = firstOrEmpty(h.clients.Names())
    }

    preset, since, until := c.Query("preset"), c.Query("since"), c.Query("until")
    if preset == "" && since == "" && until == "" {
        if session.Preset != "" {
            preset = session.Preset
        } else if session.Range != nil {
            return clientName, "", *session.Range, nil
        }
    }

    window, err := daterange.Resolve(preset, since, until, h.now())
    if err != nil {
        return "", "", daterange.Range{}, err
    }
    switch {
    case since != "":
        preset = ""
    case preset == "":
        preset = daterange.DefaultPreset
    }
    return clientName, preset, window, nil
}

func (h *Handler) respondError(c *gin.Context, err error) {
    switch {
    case errors.Is(err, storage.ErrSessionNotFound):
        c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired, please log in again"})
    case errors.Is(err, daterange.ErrInvalidRange):
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    case errors.Is(err, config.ErrUnknownClient):
        c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
    case errors.Is(err, report.ErrPrimaryUnavailable):
        h.logger.WithError(err).Error("Report unavailable")
        c.JSON(http.StatusBadGateway, gin.H{"error": "Ads platform unavailable, no report could be produced"})
    default:
        h.logger.WithError(err).Error("Request failed")
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
    }
}

func presetNames() []string {
    names := make([]string, 0, len(daterange.Presets))
    for name := range daterange.Presets {
        names = append(names, name)
    }
    sort.Slice(names, func(i, j int) bool {
        return daterange.Presets[names[i]] < daterange.Presets[names[j]]
    })
    return names
}

func firstOrEmpty(names []string) string {
    if len(names) == 0 {
        return ""
    }
    return names[0]
}
