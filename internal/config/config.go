package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	CRMURL    string
	CRMAPIKey string `validate:"required_with=CRMURL"`

	GoogleAdsURL   string
	GoogleAdsToken string `validate:"required_with=GoogleAdsURL"`
	MetaAdsURL     string
	MetaAdsToken   string `validate:"required_with=MetaAdsURL"`

	AnalyticsURL      string
	AnalyticsToken    string `validate:"required_with=AnalyticsURL"`
	AnalyticsProperty string `validate:"required_with=AnalyticsURL"`

	SinkURL    string
	SinkSecret string `validate:"required_with=SinkURL"`

	Port         string
	HTTPTimeout  time.Duration
	PageSize     int `validate:"min=1,max=1000"`
	MaxPages     int `validate:"min=1"`
	PageDelay    time.Duration
	ReportDir    string  `validate:"required"`
	Window       string  `validate:"oneof=day week month all"`
	LookbackDays int     `validate:"min=1"`
	TotalBudget  float64 `validate:"gte=0"`
	LogLevel     slog.Level

	ThresholdsFile string
	Thresholds     Thresholds `validate:"-"`
}

// Load lee .env (si existe), el entorno y el archivo de umbrales, y valida.
// Un error aquí es la única condición fatal del proceso.
func Load() (Config, error) {
	_ = godotenv.Load()
	cfg := FromEnv()
	if cfg.ThresholdsFile != "" {
		th, err := LoadThresholds(cfg.ThresholdsFile)
		if err != nil {
			return cfg, err
		}
		cfg.Thresholds = th
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func FromEnv() Config {
	to := 15 * time.Second
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			to = d
		}
	}
	lvl := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		lvl = slog.LevelDebug
	}
	return Config{
		CRMURL:            os.Getenv("CRM_API_URL"),
		CRMAPIKey:         os.Getenv("CRM_API_KEY"),
		GoogleAdsURL:      os.Getenv("GOOGLE_ADS_API_URL"),
		GoogleAdsToken:    os.Getenv("GOOGLE_ADS_TOKEN"),
		MetaAdsURL:        os.Getenv("META_ADS_API_URL"),
		MetaAdsToken:      os.Getenv("META_ADS_TOKEN"),
		AnalyticsURL:      os.Getenv("ANALYTICS_API_URL"),
		AnalyticsToken:    os.Getenv("ANALYTICS_TOKEN"),
		AnalyticsProperty: os.Getenv("ANALYTICS_PROPERTY_ID"),
		SinkURL:           os.Getenv("SINK_URL"),
		SinkSecret:        os.Getenv("SINK_SECRET"),
		Port:              envOr("PORT", "8080"),
		HTTPTimeout:       to,
		PageSize:          envInt("PAGE_SIZE", 100),
		MaxPages:          envInt("MAX_PAGES", 200),
		PageDelay:         time.Duration(envInt("PAGE_DELAY_MS", 0)) * time.Millisecond,
		ReportDir:         envOr("REPORT_DIR", "reports"),
		Window:            envOr("WINDOW", "all"),
		LookbackDays:      envInt("LOOKBACK_DAYS", 30),
		TotalBudget:       envFloat("TOTAL_BUDGET", 0),
		LogLevel:          lvl,
		ThresholdsFile:    os.Getenv("THRESHOLDS_FILE"),
		Thresholds:        DefaultThresholds(),
	}
}

func (c Config) Sources() []string {
	var out []string
	if c.CRMURL != "" {
		out = append(out, "crm")
	}
	if c.GoogleAdsURL != "" {
		out = append(out, "google_ads")
	}
	if c.MetaAdsURL != "" {
		out = append(out, "meta_ads")
	}
	if c.AnalyticsURL != "" {
		out = append(out, "analytics")
	}
	return out
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func envFloat(k string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil {
		return def
	}
	return v
}

func (c Config) String() string {
	return fmt.Sprintf("sources=%v window=%s lookback=%dd page_size=%d max_pages=%d",
		c.Sources(), c.Window, c.LookbackDays, c.PageSize, c.MaxPages)
}
