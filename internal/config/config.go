package config

import (
    "os"
    "time"

    "github.com/joho/godotenv"
    "github.com/sirupsen/logrus"
)

type Config struct {
    AdsAPIURL         string
    AdsAPIVersion     string
    AdsAccessToken    string
    EmailAPIURL       string
    SMSAPIURL         string
    ClientsConfigPath string
    DashboardPassHash string
    SessionTTL        time.Duration
    SinkURL           string
    SinkSecret        string
    Port              string
    LogLevel          string
    HTTPTimeout       time.Duration
}

func Load() *Config {
    // Load .env file if it exists
    if err := godotenv.Load(); err != nil {
        logrus.Warn("No .env file found, using environment variables")
    }

    return &Config{
        AdsAPIURL:         getEnv("ADS_API_URL", "https://graph.facebook.com"),
        AdsAPIVersion:     getEnv("ADS_API_VERSION", "v19.0"),
        AdsAccessToken:    os.Getenv("ADS_ACCESS_TOKEN"),
        EmailAPIURL:       getEnv("EMAIL_API_URL", "https://a.klaviyo.com/api"),
        SMSAPIURL:         getEnv("SMS_API_URL", "https://a.klaviyo.com/api"),
        ClientsConfigPath: getEnv("CLIENTS_CONFIG_PATH", "config/clients.yml"),
        DashboardPassHash: os.Getenv("DASHBOARD_PASSWORD_HASH"),
        SessionTTL:        getDuration("SESSION_TTL", 12*time.Hour),
        SinkURL:           os.Getenv("SINK_URL"),
        SinkSecret:        os.Getenv("SINK_SECRET"),
        Port:              getEnv("PORT", "8080"),
        LogLevel:          getEnv("LOG_LEVEL", "info"),
        HTTPTimeout:       getDuration("HTTP_TIMEOUT", 30*time.Second),
    }
}

// PasswordGateEnabled reports whether report routes require a login.
func (c *Config) PasswordGateEnabled() bool {
    return c.DashboardPassHash != ""
}

func getEnv(key, defaultValue string) string {
    if value := os.Getenv(key); value != "" {
        return value
    }
    return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
    value := os.Getenv(key)
    if value == "" {
        return defaultValue
    }
    d, err := time.ParseDuration(value)
    if err != nil {
        logrus.WithField("key", key).WithError(err).Warn("Invalid duration, using default")
        return defaultValue
    }
    return d
}
