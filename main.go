package main

import (
    "context"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/sirupsen/logrus"

    "ads-dashboard/internal/client"
    "ads-dashboard/internal/config"
    "ads-dashboard/internal/export"
    "ads-dashboard/internal/handlers"
    "ads-dashboard/internal/httpx"
    "ads-dashboard/internal/metrics"
    "ads-dashboard/internal/report"
    "ads-dashboard/internal/storage"
    "ads-dashboard/internal/transformer"
)

const sessionPurgeInterval = 10 * time.Minute

func main() {
    // Load configuration
    cfg := config.Load()

    // Setup logger
    logger := logrus.New()
    level, err := logrus.ParseLevel(cfg.LogLevel)
    if err != nil {
        level = logrus.InfoLevel
    }
    logger.SetLevel(level)
    logger.SetFormatter(&logrus.JSONFormatter{})

    logger.Info("Starting ads dashboard")

    clients, err := config.LoadClients(cfg.ClientsConfigPath)
    if err != nil {
        logger.WithError(err).WithField("path", cfg.ClientsConfigPath).Fatal("Failed to load clients")
    }
    if cfg.AdsAccessToken == "" {
        logger.Warn("ADS_ACCESS_TOKEN is not set, ads platform requests will be rejected")
    }
    if !cfg.PasswordGateEnabled() {
        logger.Warn("DASHBOARD_PASSWORD_HASH is not set, dashboard is not password protected")
    }

    registry := prometheus.NewRegistry()
    registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

    // Initialize components
    httpClient := client.NewHTTPClient(cfg, logger, client.NewProviderMetrics(registry))
    builder := report.NewBuilder(
        client.NewInsightsClient(httpClient, cfg),
        client.NewCampaignClient(httpClient, cfg),
        clients,
        transformer.New(),
        metrics.NewCalculator(),
        logger,
    )
    store := storage.NewMemoryStore(cfg.SessionTTL, cfg.DashboardPassHash)
    exporter := export.NewExporter(cfg.SinkSecret, httpClient, logger)

    handler := handlers.New(cfg, clients, builder, store, exporter, logger)

    // Setup Gin router
    if cfg.LogLevel != "debug" {
        gin.SetMode(gin.ReleaseMode)
    }
    router := gin.New()
    router.Use(gin.Logger(), gin.Recovery())
    router.Use(httpx.NewHTTPMetrics(registry, "ads_dashboard").Handler())

    router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))
    handler.Register(router)

    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    go purgeSessions(ctx, store, logger)

    // Start server
    srv := &http.Server{
        Addr:    ":" + cfg.Port,
        Handler: router,
    }

    go func() {
        logger.WithFields(logrus.Fields{
            "port":    cfg.Port,
            "clients": len(clients),
        }).Info("Server started")
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            logger.WithError(err).Fatal("Failed to start server")
        }
    }()

    // Graceful shutdown
    quit := make(chan os.Signal, 1)
    signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
    <-quit

    logger.Info("Shutting down server...")
    cancel()
    shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer shutdownCancel()

    if err := srv.Shutdown(shutdownCtx); err != nil {
        logger.WithError(err).Fatal("Server forced to shutdown")
    }

    logger.Info("Server exited")
}

func purgeSessions(ctx context.Context, store *storage.MemoryStore, logger *logrus.Logger) {
    ticker := time.NewTicker(sessionPurgeInterval)
    defer ticker.Stop()

    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            if removed := store.PurgeExpired(); removed > 0 {
                logger.WithField("removed", removed).Debug("Purged expired sessions")
            }
        }
    }
}
