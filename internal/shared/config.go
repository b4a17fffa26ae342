package shared

import (
	"os"
	"strconv"
	"time"

	"listings_portal/internal/domain"
)

type Config struct {
	AppEnv          string
	HTTPAddr        string
	HTTPRatePerMin  int
	MetricsAddr     string
	WebhookURL      string
	BitrixRPS       int
	CRMTimeout      time.Duration
	LayoutFile      string
	Layout          domain.FieldLayout
	RedisAddr       string
	RedisDB         int
	RedisPass       string
	CacheTTL        time.Duration
	MySQLDSN        string
	SnapshotWorkers int
}

// Load reads the environment. A missing webhook URL is a *domain.ConfigurationError.
func Load() (Config, error) {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		HTTPRatePerMin:  atoi("HTTP_RATE_PER_MINUTE", 120),
		MetricsAddr:     env("METRICS_ADDR", ""),
		WebhookURL:      env("BITRIX_WEBHOOK_URL", ""),
		BitrixRPS:       atoi("BITRIX_RPS", 2),
		CRMTimeout:      time.Duration(atoi("CRM_TIMEOUT_SECONDS", 20)) * time.Second,
		LayoutFile:      env("CRM_LAYOUT_FILE", ""),
		RedisAddr:       env("REDIS_ADDR", ""),
		RedisPass:       env("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 60)) * time.Second,
		MySQLDSN:        env("MYSQL_DSN", ""),
		SnapshotWorkers: atoi("SNAPSHOT_WORKERS", 8),
	}
	if c.WebhookURL == "" {
		return c, &domain.ConfigurationError{Key: "BITRIX_WEBHOOK_URL"}
	}

	c.Layout = domain.DefaultLayout()
	if c.LayoutFile != "" {
		l, err := LoadLayout(c.LayoutFile)
		if err != nil {
			return c, err
		}
		c.Layout = l
	}
	return c, nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
